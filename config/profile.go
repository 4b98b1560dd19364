package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"housing-ranker/models"
)

const weightTolerance = 1e-9

// CityProfile is the versionable reference data for one target city: the
// district vocabulary, the alias table and the scoring weights.
type CityProfile struct {
	City          string            `yaml:"city" validate:"required"`
	CityTailDepth int               `yaml:"city_tail_depth" validate:"gte=0,lte=5"`
	CityWideLabel string            `yaml:"city_wide_label"`
	Districts     []string          `yaml:"districts" validate:"required,min=1,dive,required"`
	Aliases       map[string]string `yaml:"aliases"`
	Prefixes      []string          `yaml:"prefixes"`
	Currency      CurrencyConfig    `yaml:"currency"`
	NeutralScore  float64           `yaml:"neutral_score" validate:"gte=0,lte=10"`
	Radius        RadiusConfig      `yaml:"radius"`
	Weights       WeightsConfig     `yaml:"weights"`
}

// CurrencyConfig lists the markers that flag a price as foreign currency.
type CurrencyConfig struct {
	Local   string   `yaml:"local"`
	Foreign string   `yaml:"foreign"`
	Markers []string `yaml:"markers"`
}

// RadiusConfig holds the places lookup radii in meters.
type RadiusConfig struct {
	ServicesMeters int `yaml:"services_meters" validate:"gte=0"`
	PoliceMeters   int `yaml:"police_meters" validate:"gte=0"`
}

// WeightsConfig carries both composite weight sets.
type WeightsConfig struct {
	ThreeFactor ThreeFactorWeights `yaml:"three_factor"`
	FourFactor  FourFactorWeights  `yaml:"four_factor"`
}

// ThreeFactorWeights weights cost, safety and services.
type ThreeFactorWeights struct {
	Cost     float64 `yaml:"cost"`
	Safety   float64 `yaml:"safety"`
	Services float64 `yaml:"services"`
}

// FourFactorWeights splits safety into police infrastructure and the
// district security index, and prices against the market.
type FourFactorWeights struct {
	Services         float64 `yaml:"services"`
	Police           float64 `yaml:"police"`
	DistrictSecurity float64 `yaml:"district_security"`
	Price            float64 `yaml:"price"`
}

// DefaultThreeFactorWeights is the 0.4/0.4/0.2 cost/safety/services split.
func DefaultThreeFactorWeights() ThreeFactorWeights {
	return ThreeFactorWeights{Cost: 0.4, Safety: 0.4, Services: 0.2}
}

// DefaultFourFactorWeights is the 0.20/0.08/0.32/0.40 split.
func DefaultFourFactorWeights() FourFactorWeights {
	return FourFactorWeights{Services: 0.20, Police: 0.08, DistrictSecurity: 0.32, Price: 0.40}
}

func (w ThreeFactorWeights) Sum() float64 { return w.Cost + w.Safety + w.Services }

func (w FourFactorWeights) Sum() float64 {
	return w.Services + w.Police + w.DistrictSecurity + w.Price
}

// Validate rejects negative weights and sets that do not sum to 1.
func (w ThreeFactorWeights) Validate() error {
	return checkWeights("three-factor", w.Sum(), w.Cost, w.Safety, w.Services)
}

// Validate rejects negative weights and sets that do not sum to 1.
func (w FourFactorWeights) Validate() error {
	return checkWeights("four-factor", w.Sum(), w.Services, w.Police, w.DistrictSecurity, w.Price)
}

func checkWeights(name string, sum float64, parts ...float64) error {
	for _, p := range parts {
		if p < 0 {
			return fmt.Errorf("%s weights: negative weight %.2f: %w", name, p, models.ErrInvalidWeights)
		}
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%s weights sum to %.4f: %w", name, sum, models.ErrInvalidWeights)
	}
	return nil
}

// DefaultLimaProfile returns a fresh copy of the Lima Metropolitana profile.
func DefaultLimaProfile() *CityProfile {
	return &CityProfile{
		City:          "LIMA",
		CityTailDepth: 2,
		CityWideLabel: "LIMA (CITY-WIDE)",
		Districts: []string{
			"ANCON", "ATE", "BARRANCO", "BREÑA", "CARABAYLLO", "CHACLACAYO",
			"CHORRILLOS", "CIENEGUILLA", "COMAS", "EL AGUSTINO", "INDEPENDENCIA",
			"JESUS MARIA", "LA MOLINA", "LA VICTORIA", "LIMA", "LINCE", "LOS OLIVOS",
			"LURIGANCHO", "LURIN", "MAGDALENA DEL MAR", "MIRAFLORES", "PACHACAMAC",
			"PUEBLO LIBRE", "PUENTE PIEDRA", "RIMAC", "SAN BARTOLO", "SAN BORJA",
			"SAN ISIDRO", "SAN JUAN DE LURIGANCHO", "SAN JUAN DE MIRAFLORES",
			"SAN LUIS", "SAN MARTIN DE PORRES", "SAN MIGUEL", "SANTA ANITA",
			"SANTA MARIA DEL MAR", "SANTA ROSA", "SURCO", "SURQUILLO",
			"VILLA EL SALVADOR", "VILLA MARIA DEL TRIUNFO", "PUNTA HERMOSA",
			"PUNTA NEGRA", "PUCUSANA",
		},
		Aliases: map[string]string{
			"SANTIAGO DE SURCO":    "SURCO",
			"LURIGANCHO - CHOSICA": "LURIGANCHO",
			"LURIGANCHO-CHOSICA":   "LURIGANCHO",
			"CHOSICA":              "LURIGANCHO",
			"CERCADO DE LIMA":      "LIMA",
			"CERCADO":              "LIMA",
			"LIMA CERCADO":         "LIMA",
			"MAGDALENA":            "MAGDALENA DEL MAR",
			"MAGDALENA VIEJA":      "PUEBLO LIBRE",
			"SMP":                  "SAN MARTIN DE PORRES",
			"SJL":                  "SAN JUAN DE LURIGANCHO",
			"SJM":                  "SAN JUAN DE MIRAFLORES",
			"VES":                  "VILLA EL SALVADOR",
			"VMT":                  "VILLA MARIA DEL TRIUNFO",
		},
		Prefixes: []string{
			"URBANIZACION", "URB.", "URB", "UR.", "UR",
			"AVENIDA", "AV.", "AV",
			"CALLE", "CA.",
			"JIRON", "JR.", "JR",
			"PASAJE", "PSJE.", "PSJ.",
			"RESIDENCIAL", "RES.",
			"MANZANA", "MZA.", "MZ.",
			"BLOCK", "BLOQUE", "BLQ.",
		},
		Currency: CurrencyConfig{
			Local:   "PEN",
			Foreign: "USD",
			Markers: []string{"USD", "US$", "U$S", "$"},
		},
		NeutralScore: 5.0,
		Radius:       RadiusConfig{ServicesMeters: 500, PoliceMeters: 1000},
		Weights: WeightsConfig{
			ThreeFactor: DefaultThreeFactorWeights(),
			FourFactor:  DefaultFourFactorWeights(),
		},
	}
}

// LoadProfile reads a YAML city profile. An empty path returns the Lima
// profile. Settings the file leaves out fall back to the Lima defaults, except
// the vocabulary and alias table, which always come from the file as a unit.
func LoadProfile(path string) (*CityProfile, error) {
	if path == "" {
		return DefaultLimaProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}

	p := &CityProfile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	p.applyDefaults(DefaultLimaProfile())

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CityProfile) applyDefaults(def *CityProfile) {
	if p.CityWideLabel == "" {
		p.CityWideLabel = strings.ToUpper(p.City) + " (CITY-WIDE)"
	}
	if len(p.Prefixes) == 0 {
		p.Prefixes = def.Prefixes
	}
	if p.Currency.Local == "" {
		p.Currency.Local = def.Currency.Local
	}
	if p.Currency.Foreign == "" {
		p.Currency.Foreign = def.Currency.Foreign
	}
	if len(p.Currency.Markers) == 0 {
		p.Currency.Markers = def.Currency.Markers
	}
	if p.NeutralScore == 0 {
		p.NeutralScore = def.NeutralScore
	}
	if p.Radius.ServicesMeters == 0 {
		p.Radius.ServicesMeters = def.Radius.ServicesMeters
	}
	if p.Radius.PoliceMeters == 0 {
		p.Radius.PoliceMeters = def.Radius.PoliceMeters
	}
	if p.Weights.ThreeFactor.Sum() == 0 {
		p.Weights.ThreeFactor = def.Weights.ThreeFactor
	}
	if p.Weights.FourFactor.Sum() == 0 {
		p.Weights.FourFactor = def.Weights.FourFactor
	}
}

// Validate checks the profile is internally consistent: every alias points at
// a vocabulary district and both weight sets sum to 1.
func (p *CityProfile) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	vocab := make(map[string]struct{}, len(p.Districts))
	for _, d := range p.Districts {
		vocab[strings.ToUpper(strings.TrimSpace(d))] = struct{}{}
	}
	for alias, target := range p.Aliases {
		if _, ok := vocab[strings.ToUpper(strings.TrimSpace(target))]; !ok {
			return fmt.Errorf("profile: alias %q targets %q, which is not in the district vocabulary", alias, target)
		}
	}

	if err := p.Weights.ThreeFactor.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := p.Weights.FourFactor.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}
