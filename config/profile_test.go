package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing-ranker/models"
)

func TestDefaultLimaProfileIsValid(t *testing.T) {
	p := DefaultLimaProfile()
	require.NoError(t, p.Validate())
	assert.Len(t, p.Districts, 43)
	assert.Equal(t, 5.0, p.NeutralScore)
	assert.Equal(t, 500, p.Radius.ServicesMeters)
	assert.Equal(t, 1000, p.Radius.PoliceMeters)
}

func TestDefaultWeightSums(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultThreeFactorWeights().Sum(), weightTolerance)
	assert.InDelta(t, 1.0, DefaultFourFactorWeights().Sum(), weightTolerance)
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights interface{ Validate() error }
		wantErr bool
	}{
		{"three-factor defaults", DefaultThreeFactorWeights(), false},
		{"four-factor defaults", DefaultFourFactorWeights(), false},
		{"three-factor over one", ThreeFactorWeights{Cost: 0.5, Safety: 0.4, Services: 0.2}, true},
		{"three-factor negative", ThreeFactorWeights{Cost: 1.2, Safety: -0.4, Services: 0.2}, true},
		{"four-factor under one", FourFactorWeights{Services: 0.2, Police: 0.08, DistrictSecurity: 0.3, Price: 0.4}, true},
		{"four-factor all price", FourFactorWeights{Price: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, models.ErrInvalidWeights), "got %v", err)
		})
	}
}

func TestProfileValidateRejectsDanglingAlias(t *testing.T) {
	p := DefaultLimaProfile()
	p.Aliases["CALLAO"] = "BELLAVISTA"
	assert.Error(t, p.Validate())
}

func TestLoadProfileEmptyPath(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLimaProfile(), p)
}

func TestLoadProfileBundledLima(t *testing.T) {
	p, err := LoadProfile(filepath.Join("..", "profiles", "lima.yaml"))
	require.NoError(t, err)

	def := DefaultLimaProfile()
	assert.Equal(t, def.Districts, p.Districts)
	assert.Equal(t, def.Aliases, p.Aliases)
	assert.Equal(t, def.Currency, p.Currency)
	assert.Equal(t, def.CityWideLabel, p.CityWideLabel)
	assert.InDelta(t, 1.0, p.Weights.FourFactor.Sum(), weightTolerance)
}

func TestLoadProfileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arequipa.yaml")
	yaml := `
city: Arequipa
city_tail_depth: 1
districts: [CAYMA, YANAHUARA, CERRO COLORADO]
aliases:
  CAYMA CENTRO: CAYMA
weights:
  three_factor: {cost: 0.5, safety: 0.3, services: 0.2}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "AREQUIPA (CITY-WIDE)", p.CityWideLabel)
	assert.Equal(t, 5.0, p.NeutralScore)
	assert.Equal(t, "PEN", p.Currency.Local)
	assert.NotEmpty(t, p.Prefixes)
	assert.Equal(t, 0.5, p.Weights.ThreeFactor.Cost)
	assert.Equal(t, DefaultFourFactorWeights(), p.Weights.FourFactor)
}

func TestLoadProfileRejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	yaml := `
city: Lima
districts: [MIRAFLORES]
weights:
  four_factor: {services: 0.5, police: 0.5, district_security: 0.5, price: 0.5}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := LoadProfile(path)
	assert.True(t, errors.Is(err, models.ErrInvalidWeights))
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
