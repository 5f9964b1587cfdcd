// Package gormstore implements the repositories on GORM for the embedded
// SQLite deployment and for tests that need a real database.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sqliteConstraintCode = 19

// Migrate creates or updates the tables used by the store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}, &Reservation{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// NewRepository builds the GORM-backed repositories around a shared rate
// table.
func NewRepository(db *gorm.DB, rates repository.RateRepository, log *zap.Logger) *repository.Repository {
	return &repository.Repository{
		Reservation: &ReservationStore{db: db, log: log.With(zap.String("repository", "reservation"))},
		User:        &UserStore{db: db},
		Session:     &SessionStore{db: db},
		Rate:        rates,
	}
}

// ReservationStore implements repository.ReservationRepository.
type ReservationStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func (s *ReservationStore) Create(ctx context.Context, res *entity.Reservation) error {
	model := reservationFromEntity(res)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		err := blocking(tx.Model(&Reservation{}), res.PropertyID, res.UnitID, res.Stay).Count(&overlapping).Error
		if err != nil {
			return fmt.Errorf("check overlap for %s: %w", res.UnitID, err)
		}
		if overlapping > 0 {
			return fmt.Errorf("%w: %s %s", repository.ErrDateConflict, res.UnitID, res.Stay)
		}
		return tx.Create(model).Error
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrDateConflict) {
		return err
	}
	if mapped := mapWriteError(err); mapped != nil {
		return fmt.Errorf("create reservation %s: %w", res.PaymentReference, mapped)
	}
	s.log.Error("Failed to create reservation", zap.Error(err), zap.String("payment_reference", res.PaymentReference))
	return fmt.Errorf("create reservation %s: %w", res.PaymentReference, err)
}

func (s *ReservationStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return s.findOne(ctx, "id = ?", id.String())
}

func (s *ReservationStore) FindByPaymentReference(ctx context.Context, reference string) (*entity.Reservation, error) {
	return s.findOne(ctx, "payment_reference = ?", reference)
}

func (s *ReservationStore) FindByBookingReference(ctx context.Context, reference string) (*entity.Reservation, error) {
	return s.findOne(ctx, "booking_reference = ?", reference)
}

func (s *ReservationStore) findOne(ctx context.Context, where string, arg any) (*entity.Reservation, error) {
	var model Reservation
	err := s.db.WithContext(ctx).Where(where, arg).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reservation where %s: %w", where, err)
	}
	return model.toEntity()
}

func (s *ReservationStore) ExistsByBookingReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Reservation{}).Where("booking_reference = ?", reference).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check booking reference %s: %w", reference, err)
	}
	return count > 0, nil
}

func (s *ReservationStore) FindBlocking(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]*entity.Reservation, error) {
	var models []Reservation
	err := blocking(s.db.WithContext(ctx), propertyID, unitID, window).Order("check_in").Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find blocking reservations for %s/%s: %w", propertyID, unitID, err)
	}
	return toEntities(models)
}

func (s *ReservationStore) List(ctx context.Context, filter repository.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	var models []Reservation
	err := filtered(s.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return toEntities(models)
}

func (s *ReservationStore) Count(ctx context.Context, filter repository.ReservationFilter) (int64, error) {
	var count int64
	if err := filtered(s.db.WithContext(ctx).Model(&Reservation{}), filter).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (s *ReservationStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus, updatedAt time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ? AND status = ?", id.String(), string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": updatedAt.UTC()})
	if result.Error != nil {
		return fmt.Errorf("update reservation %s status: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", repository.ErrReservationNotFound, id)
	}
	return fmt.Errorf("%w: %s is %s", repository.ErrStatusChanged, id, existing.Status)
}

// UserStore implements repository.UserRepository.
type UserStore struct {
	db *gorm.DB
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var model User
	err := s.db.WithContext(ctx).Where("id = ? AND deleted_at IS NULL", id.String()).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by ID %s: %w", id, err)
	}

	user := &entity.User{
		Name:     model.Name,
		Email:    model.Email,
		Phone:    model.Phone,
		Role:     entity.UserRole(model.Role),
		IsActive: model.IsActive,
	}
	user.ID = id
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return user, nil
}

// SessionStore implements repository.SessionRepository.
type SessionStore struct {
	db *gorm.DB
}

func (s *SessionStore) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	var model Session
	err := s.db.WithContext(ctx).
		Where("token = ? AND revoked_at IS NULL AND expires_at > ?", token, time.Now().UTC()).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	session := &entity.Session{ExpiresAt: model.ExpiresAt, RevokedAt: model.RevokedAt}
	if session.ID, err = uuid.Parse(model.ID); err != nil {
		return nil, fmt.Errorf("session %s: %w", model.ID, err)
	}
	if session.UserID, err = uuid.Parse(model.UserID); err != nil {
		return nil, fmt.Errorf("session %s user: %w", model.ID, err)
	}
	if session.Token, err = uuid.Parse(model.Token); err != nil {
		return nil, fmt.Errorf("session %s token: %w", model.ID, err)
	}
	session.CreatedAt = model.CreatedAt
	return session, nil
}

func blocking(db *gorm.DB, propertyID, unitID string, window entity.DateRange) *gorm.DB {
	return db.Where("property_id = ? AND unit_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
		propertyID, unitID, repository.BlockingStatusValues(), window.CheckOut, window.CheckIn)
}

func filtered(db *gorm.DB, filter repository.ReservationFilter) *gorm.DB {
	if filter.UserID != nil {
		db = db.Where("user_id = ?", filter.UserID.String())
	}
	if filter.Status != "" {
		db = db.Where("status = ?", string(filter.Status))
	}
	return db
}

func toEntities(models []Reservation) ([]*entity.Reservation, error) {
	out := make([]*entity.Reservation, 0, len(models))
	for i := range models {
		r, err := models[i].toEntity()
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", models[i].ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func mapWriteError(err error) error {
	var sqliteErr *gosqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code()&0xFF != sqliteConstraintCode {
		return nil
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "payment_reference"):
		return repository.ErrDuplicatePaymentReference
	case strings.Contains(msg, "booking_reference"):
		return repository.ErrDuplicateBookingReference
	}
	return nil
}
