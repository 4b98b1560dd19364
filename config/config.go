package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Scoring variants.
const (
	VariantThreeFactor = "three-factor"
	VariantFourFactor  = "four-factor"
)

// Config holds all run configuration loaded from environment variables.
type Config struct {
	ListingsPath  string `validate:"required"`
	SecurityPath  string
	AmenitiesPath string
	ProfilePath   string
	OutputDir     string `validate:"required"`

	Variant         string `validate:"oneof=three-factor four-factor"`
	StrictDistricts bool
	OperationFilter string
	CurrentYear     int `validate:"gte=1900,lte=2200"`
	BaselineYear    int `validate:"gte=1800,lte=2200"`

	// ExchangeRate pins the USD rate for the run; zero means look it up.
	ExchangeRate      float64 `validate:"gte=0"`
	ExchangeFallback  float64 `validate:"gt=0"`
	ExchangeAPIURL    string
	ExchangeTimeoutMs int `validate:"gt=0"`

	PlacesAPIKey    string
	PlacesBaseURL   string `validate:"omitempty,url"`
	PlacesTimeoutMs int    `validate:"gt=0"`

	MaxConcurrency int `validate:"gte=1"`
	RateLimitMs    int `validate:"gte=0"`
	MaxRetries     int `validate:"gte=1"`

	SecurityEncoding string `validate:"oneof=utf8 latin1"`

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MeiliHost   string `validate:"omitempty,url"`
	MeiliAPIKey string
	MeiliIndex  string

	ChromeBin string
	LogLevel  string
	Schedule  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		ListingsPath:  getEnv("LISTINGS_PATH", "./data/raw/dataset.csv"),
		SecurityPath:  getEnv("SECURITY_PATH", "./data/raw/security_raw.csv"),
		AmenitiesPath: getEnv("AMENITIES_PATH", ""),
		ProfilePath:   getEnv("PROFILE_PATH", ""),
		OutputDir:     getEnv("OUTPUT_DIR", "./output"),

		Variant:         getEnv("SCORING_VARIANT", VariantThreeFactor),
		StrictDistricts: getEnvBool("STRICT_DISTRICTS", false),
		OperationFilter: getEnv("OPERATION_FILTER", "alquiler"),
		CurrentYear:     getEnvInt("CURRENT_YEAR", time.Now().Year()),
		BaselineYear:    getEnvInt("BASELINE_YEAR", 2000),

		ExchangeRate:      getEnvFloat("EXCHANGE_RATE", 0),
		ExchangeFallback:  getEnvFloat("EXCHANGE_FALLBACK", 3.72),
		ExchangeAPIURL:    getEnv("EXCHANGE_API_URL", "https://api.apis.net.pe/v1/tipo-cambio-sunat"),
		ExchangeTimeoutMs: getEnvInt("EXCHANGE_TIMEOUT_MS", 10000),

		PlacesAPIKey:    getEnv("PLACES_API_KEY", ""),
		PlacesBaseURL:   getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"),
		PlacesTimeoutMs: getEnvInt("PLACES_TIMEOUT_MS", 10000),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 1200),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),

		SecurityEncoding: strings.ToLower(getEnv("SECURITY_ENCODING", "utf8")),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "ranker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "ranker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "housing_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MeiliHost:   getEnv("MEILI_HOST", ""),
		MeiliAPIKey: getEnv("MEILI_API_KEY", ""),
		MeiliIndex:  getEnv("MEILI_INDEX", "listings"),

		ChromeBin: getEnv("CHROME_BIN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Schedule:  getEnv("SCHEDULE", "0 2 * * *"),
	}
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.BaselineYear > c.CurrentYear {
		return fmt.Errorf("config: baseline year %d is after current year %d", c.BaselineYear, c.CurrentYear)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// ExchangeTimeout returns the exchange lookup timeout as a duration.
func (c *Config) ExchangeTimeout() time.Duration {
	return time.Duration(c.ExchangeTimeoutMs) * time.Millisecond
}

// PlacesTimeout returns the places lookup timeout as a duration.
func (c *Config) PlacesTimeout() time.Duration {
	return time.Duration(c.PlacesTimeoutMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
