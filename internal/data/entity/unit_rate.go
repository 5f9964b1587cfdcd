package entity

// UnitRate is the configured price of one bookable unit. Amounts are in the
// smallest currency unit.
type UnitRate struct {
	PropertyID   string
	PropertyName string
	UnitID       string
	Label        string
	NightlyRate  int64
	BedroomCount int
}
