package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is the profile mirrored from the identity provider.
type User struct {
	Base
	Name     string   `db:"name"`
	Email    string   `db:"email"`
	Phone    *string  `db:"phone"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
