package config

import (
	"os"
	"time"
)

type Config struct {
	AppPort string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	AppleClientID string

	JWTSecret string
	JWTTTL    time.Duration

	ProviderTimeout  time.Duration
	DirectoryTimeout time.Duration

	DatabaseDSN string
}

func Load() Config {

	cfg := Config{

		AppPort: getenv("APP_PORT", "8080"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		AppleClientID: os.Getenv("APPLE_CLIENT_ID"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getduration("JWT_TTL", 24*time.Hour),

		ProviderTimeout:  getduration("PROVIDER_TIMEOUT", 10*time.Second),
		DirectoryTimeout: getduration("DIRECTORY_TIMEOUT", 5*time.Second),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
	}

	return cfg

}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
