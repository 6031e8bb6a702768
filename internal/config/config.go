package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration. Each field maps to one environment
// variable; required variables are enforced by must() and abort startup when
// missing.
type Config struct {
	Env           string        // application environment (dev/test/prod)
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host
	DBPort        string        // database port
	DBName        string        // database name
	SessionSecret string        // secret used to sign session tokens
	SessionTTL    time.Duration // absolute session lifetime from login
	BcryptCost    int           // bcrypt cost for password hashing
	UploadDir     string        // content directory for photos and signatures
}

// Load reads the configuration from the environment. Missing required
// variables are fatal.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    time.Duration(intDefault("SESSION_TTL_HOURS", 8)) * time.Hour,
		BcryptCost:    mustInt("BCRYPT_COST"),
		UploadDir:     must("UPLOAD_DIR"),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() with integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// intDefault reads an optional integer variable, falling back to def.
func intDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
