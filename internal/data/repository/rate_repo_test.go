package repository

import (
	"os"
	"path/filepath"
	"testing"

	"apartment-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRates(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRateTableFromFile(t *testing.T) {
	path := writeRates(t, `
[[property]]
id = "harbour"
name = "Harbour View"

  [[property.unit]]
  id = "studio"
  label = "Studio"
  nightly_rate = 4500000
  bedrooms = 1

  [[property.unit]]
  id = "penthouse"
  label = "Penthouse"
  nightly_rate = 25000000
  bedrooms = 4
`)

	rates, err := LoadRateTable(path)
	require.NoError(t, err)

	rate, err := rates.LookupRate("harbour", "penthouse")
	require.NoError(t, err)
	assert.Equal(t, int64(25000000), rate.NightlyRate)
	assert.Equal(t, "Harbour View", rate.PropertyName)
	assert.Equal(t, 4, rate.BedroomCount)

	assert.Equal(t, []string{"harbour"}, rates.ListProperties())
	units := rates.ListUnits("harbour")
	require.Len(t, units, 2)
	assert.Equal(t, "penthouse", units[0].UnitID)
}

func TestLoadRateTableRejectsBadFiles(t *testing.T) {
	_, err := LoadRateTable(writeRates(t, `
[[property]]
id = "harbour"
  [[property.unit]]
  id = "studio"
  nightly_rate = 0
`))
	assert.ErrorContains(t, err, "must be positive")

	_, err = LoadRateTable(writeRates(t, `
[[property]]
id = "harbour"
  [[property.unit]]
  id = "studio"
  nightly_rate = 100
  colour = "blue"
`))
	assert.ErrorContains(t, err, "unknown keys")

	_, err = LoadRateTable(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLookupRateUnknownUnit(t *testing.T) {
	rates, err := LoadRateTable("")
	require.NoError(t, err)

	_, err = rates.LookupRate("pa-claudius", "penthouse")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	rate, err := rates.LookupRate("pa-claudius", "deluxe-1bedroom")
	require.NoError(t, err)
	assert.Equal(t, int64(8000000), rate.NightlyRate)
}

func TestNewRateRepositoryRejectsDuplicates(t *testing.T) {
	rate := entity.UnitRate{PropertyID: "p", UnitID: "u", NightlyRate: 10}
	_, err := NewRateRepository([]entity.UnitRate{rate, rate})
	assert.ErrorContains(t, err, "defined twice")

	_, err = NewRateRepository(nil)
	assert.Error(t, err)
}
