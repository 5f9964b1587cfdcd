package repository

import (
	"fmt"
	"sort"

	"apartment-booking/internal/data/entity"

	"github.com/BurntSushi/toml"
)

// RateRepository is the read-only rate table. It is built once at startup
// and is safe for concurrent use.
type RateRepository interface {
	LookupRate(propertyID, unitID string) (entity.UnitRate, error)
	ListUnits(propertyID string) []entity.UnitRate
	ListProperties() []string
}

type rateKey struct {
	propertyID string
	unitID     string
}

type rateTable struct {
	rates      map[rateKey]entity.UnitRate
	properties []string
}

// NewRateRepository validates rates and indexes them by property and unit.
func NewRateRepository(rates []entity.UnitRate) (RateRepository, error) {
	if len(rates) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	t := &rateTable{rates: make(map[rateKey]entity.UnitRate, len(rates))}
	seen := make(map[string]bool)
	for _, rate := range rates {
		if rate.PropertyID == "" || rate.UnitID == "" {
			return nil, fmt.Errorf("rate for %q/%q: property and unit are required", rate.PropertyID, rate.UnitID)
		}
		if rate.NightlyRate <= 0 {
			return nil, fmt.Errorf("rate for %s/%s: nightly rate must be positive", rate.PropertyID, rate.UnitID)
		}
		key := rateKey{rate.PropertyID, rate.UnitID}
		if _, dup := t.rates[key]; dup {
			return nil, fmt.Errorf("rate for %s/%s: defined twice", rate.PropertyID, rate.UnitID)
		}
		t.rates[key] = rate
		if !seen[rate.PropertyID] {
			seen[rate.PropertyID] = true
			t.properties = append(t.properties, rate.PropertyID)
		}
	}
	sort.Strings(t.properties)

	return t, nil
}

func (t *rateTable) LookupRate(propertyID, unitID string) (entity.UnitRate, error) {
	rate, ok := t.rates[rateKey{propertyID, unitID}]
	if !ok {
		return entity.UnitRate{}, fmt.Errorf("%w: %s/%s", ErrUnknownUnit, propertyID, unitID)
	}
	return rate, nil
}

func (t *rateTable) ListUnits(propertyID string) []entity.UnitRate {
	var units []entity.UnitRate
	for key, rate := range t.rates {
		if key.propertyID == propertyID {
			units = append(units, rate)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].UnitID < units[j].UnitID })
	return units
}

func (t *rateTable) ListProperties() []string {
	return append([]string(nil), t.properties...)
}

// DefaultRates is the built-in catalogue, in kobo.
func DefaultRates() []entity.UnitRate {
	const property, name = "pa-claudius", "Pa Claudius Apartments"
	return []entity.UnitRate{
		{PropertyID: property, PropertyName: name, UnitID: "premium-3bedroom", Label: "Premium 3-Bedroom Ensuite Apartment (Unit 1)", NightlyRate: 16500000, BedroomCount: 3},
		{PropertyID: property, PropertyName: name, UnitID: "executive-3bedroom", Label: "Executive 3-Bedroom Ensuite Apartment (Unit 2)", NightlyRate: 16500000, BedroomCount: 3},
		{PropertyID: property, PropertyName: name, UnitID: "deluxe-1bedroom", Label: "Deluxe 1-Bedroom Ensuite Apartment (Unit 3)", NightlyRate: 8000000, BedroomCount: 1},
	}
}

type rateFile struct {
	Properties []struct {
		ID    string `toml:"id"`
		Name  string `toml:"name"`
		Units []struct {
			ID          string `toml:"id"`
			Label       string `toml:"label"`
			NightlyRate int64  `toml:"nightly_rate"`
			Bedrooms    int    `toml:"bedrooms"`
		} `toml:"unit"`
	} `toml:"property"`
}

// LoadRateTable reads a TOML rate file. An empty path yields DefaultRates.
func LoadRateTable(path string) (RateRepository, error) {
	if path == "" {
		return NewRateRepository(DefaultRates())
	}

	var file rateFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("decode rate file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("rate file %s: unknown keys %v", path, undecoded)
	}

	var rates []entity.UnitRate
	for _, p := range file.Properties {
		for _, u := range p.Units {
			rates = append(rates, entity.UnitRate{
				PropertyID:   p.ID,
				PropertyName: p.Name,
				UnitID:       u.ID,
				Label:        u.Label,
				NightlyRate:  u.NightlyRate,
				BedroomCount: u.Bedrooms,
			})
		}
	}

	return NewRateRepository(rates)
}
