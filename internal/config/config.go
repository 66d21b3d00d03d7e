package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port     string
	LogLevel string

	StoreDriver   string
	DBConn        string
	MongoURI      string
	MongoDatabase string

	WarningDays        int
	SmallDebtThreshold decimal.Decimal
	Location           *time.Location

	JWTSecret         string
	AdminPasswordHash string
	EncryptionKey     []byte
	CORSOrigins       []string

	ReminderSchedule string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
	ReminderEmail    string

	CompaniesFile string
}

// NewConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func NewConfig() (*Config, error) {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5432 user=hutang password=hutang dbname=hutang sslmode=disable"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DB_NAME", "debt_management"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:8501,http://127.0.0.1:8501")),
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "0 8 * * *"),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", "hutangku@localhost"),
		ReminderEmail:     getEnv("REMINDER_EMAIL", ""),
		CompaniesFile:     getEnv("COMPANIES_FILE", ""),
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required for the postgres store")
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo store")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	days, err := strconv.Atoi(getEnv("DUE_DATE_WARNING_DAYS", "7"))
	if err != nil || days < 0 {
		return nil, fmt.Errorf("DUE_DATE_WARNING_DAYS must be a non-negative integer")
	}
	cfg.WarningDays = days

	threshold, err := decimal.NewFromString(getEnv("SMALL_DEBT_THRESHOLD", "1.00"))
	if err != nil || threshold.IsNegative() {
		return nil, fmt.Errorf("SMALL_DEBT_THRESHOLD must be a non-negative number")
	}
	cfg.SmallDebtThreshold = threshold

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if raw := getEnv("ENCRYPTION_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be hex encoded: %w", err)
		}
		if len(key) != 16 && len(key) != 24 && len(key) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
		}
		cfg.EncryptionKey = key
	}

	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}

	return cfg, nil
}

// EmailEnabled reports whether reminder emails can be sent
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.ReminderEmail != ""
}

// AuthEnabled reports whether API requests must carry a bearer token
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
