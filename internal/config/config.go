package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	ConfirmTokenSecret string

	// Application
	AppEnv   string
	LogLevel string

	// Matching
	SearchRadiusKm    float64
	MinMatchScore     int
	ConfirmWindowHrs  int
	IntentTTLHours    int
	ExtraOpenSlots    int
	ActivityLeadHours int

	// Jobs
	IntentExpiryIntervalMin int
	MatchExpiryIntervalMin  int

	// Rate Limiting
	IntentRatePerUser int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "mingle"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "mingle_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ConfirmTokenSecret: getEnv("CONFIRM_TOKEN_SECRET", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SearchRadiusKm:    getEnvFloat("SEARCH_RADIUS_KM", 3),
		MinMatchScore:     getEnvInt("MIN_MATCH_SCORE", 80),
		ConfirmWindowHrs:  getEnvInt("CONFIRM_WINDOW_HOURS", 6),
		IntentTTLHours:    getEnvInt("INTENT_TTL_HOURS", 24),
		ExtraOpenSlots:    getEnvInt("EXTRA_OPEN_SLOTS", 2),
		ActivityLeadHours: getEnvInt("ACTIVITY_LEAD_HOURS", 2),

		IntentExpiryIntervalMin: getEnvInt("INTENT_EXPIRY_INTERVAL_MINUTES", 60),
		MatchExpiryIntervalMin:  getEnvInt("MATCH_EXPIRY_INTERVAL_MINUTES", 10),

		IntentRatePerUser: getEnvInt("INTENT_RATE_PER_USER", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.ConfirmTokenSecret == "" {
		return fmt.Errorf("CONFIRM_TOKEN_SECRET is required")
	}
	if len(c.ConfirmTokenSecret) < 32 {
		return fmt.Errorf("CONFIRM_TOKEN_SECRET must be at least 32 characters")
	}
	if c.SearchRadiusKm <= 0 {
		return fmt.Errorf("SEARCH_RADIUS_KM must be positive")
	}
	if c.MinMatchScore < 0 || c.MinMatchScore > 100 {
		return fmt.Errorf("MIN_MATCH_SCORE must be between 0 and 100")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.ConfirmTokenSecret == "change_me_to_a_real_secret_with_32_chars" {
		return fmt.Errorf("CONFIRM_TOKEN_SECRET must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetConfirmWindow() time.Duration {
	return time.Duration(c.ConfirmWindowHrs) * time.Hour
}

func (c *Config) GetIntentTTL() time.Duration {
	return time.Duration(c.IntentTTLHours) * time.Hour
}

func (c *Config) GetActivityLead() time.Duration {
	return time.Duration(c.ActivityLeadHours) * time.Hour
}

func (c *Config) GetIntentExpiryInterval() time.Duration {
	return time.Duration(c.IntentExpiryIntervalMin) * time.Minute
}

func (c *Config) GetMatchExpiryInterval() time.Duration {
	return time.Duration(c.MatchExpiryIntervalMin) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
