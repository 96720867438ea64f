// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"billing-api/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config

	// JWTSecret signs the access, refresh, and activation tokens.
	JWTSecret string
	JWTIssuer string
	// AccessTTL and RefreshTTL bound the token lifetimes.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// WebhookSigningKey is the shared secret the payment provider signs
	// webhook payloads with.
	WebhookSigningKey string
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any required variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost" // Default to localhost for local development
	}
	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		dbPortStr = "5432" // Default PostgreSQL port
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "user" // Default user for local development
	}
	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		dbPassword = "password" // Default password for local development
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "billingdb" // Default database name for local development
	}
	dbSSLMode := os.Getenv("DB_SSLMODE")
	if dbSSLMode == "" {
		dbSSLMode = "disable" // Default to disable for local development
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "billing-api"
	}

	accessTTL, err := parseTTL("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := parseTTL("JWT_REFRESH_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	signingKey := os.Getenv("WEBHOOK_SIGNING_KEY")
	if signingKey == "" {
		return nil, fmt.Errorf("WEBHOOK_SIGNING_KEY must be set")
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
		JWTSecret:         jwtSecret,
		JWTIssuer:         jwtIssuer,
		AccessTTL:         accessTTL,
		RefreshTTL:        refreshTTL,
		WebhookSigningKey: signingKey,
	}, nil
}

func parseTTL(envVar string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return fallback, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envVar, err)
	}
	return ttl, nil
}
