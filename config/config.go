package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration read from the environment
type Config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool

	RedisURL string
	CartTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	SessionKey   []byte
	CookieSecure bool
	Showroom     Credentials
	Warehouse    Credentials

	ChromePath      string
	LogoPath        string
	CredentialsPath string
	DriveFolderID   string
}

// Credentials is one fixed username/password pair mapped to a role
type Credentials struct {
	Username string
	Password string
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	dbURL, err := databaseURL()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            strings.TrimPrefix(getEnv("PORT", "8080"), ":"),
		DatabaseURL:     dbURL,
		AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
		CookieSecure:    getBool("COOKIE_SECURE", os.Getenv("ENV") == "production"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CartTTL:         getDuration("CART_TTL", 12*time.Hour),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "orders.events"),
		ChromePath:      os.Getenv("CHROME_PATH"),
		LogoPath:        os.Getenv("LOGO_PATH"),
		CredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		DriveFolderID:   os.Getenv("DRIVE_ARCHIVE_FOLDER_ID"),
		Showroom: Credentials{
			Username: getEnv("SHOWROOM_USER", "showroom"),
			Password: os.Getenv("SHOWROOM_PASSWORD"),
		},
		Warehouse: Credentials{
			Username: getEnv("WAREHOUSE_USER", "magazzino"),
			Password: os.Getenv("WAREHOUSE_PASSWORD"),
		},
	}

	cfg.SessionKey, err = sessionKey()
	if err != nil {
		return nil, err
	}

	if cfg.Showroom.Password == "" || cfg.Warehouse.Password == "" {
		log.Printf("⚠️  Config: SHOWROOM_PASSWORD or WAREHOUSE_PASSWORD not set, login for that role is disabled")
	}

	return cfg, nil
}

// DriveEnabled reports whether order PDFs can be archived to Drive
func (c *Config) DriveEnabled() bool {
	return c.CredentialsPath != "" && c.DriveFolderID != ""
}

// databaseURL returns DATABASE_URL or builds a connection string from the DB_* variables
func databaseURL() (string, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr != "" {
		return connStr, nil
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, getEnv("DB_PORT", "5432"), user, os.Getenv("DB_PASSWORD"), dbname, getEnv("DB_SSLMODE", "disable")), nil
}

// sessionKey decodes SESSION_KEY, or generates a random key that lasts until restart
func sessionKey() ([]byte, error) {
	raw := os.Getenv("SESSION_KEY")
	if raw == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		log.Printf("⚠️  Config: SESSION_KEY not set, using a random key (sessions end on restart)")
		return key, nil
	}

	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_KEY, expected base64: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("invalid SESSION_KEY: need at least 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️  Config: invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
