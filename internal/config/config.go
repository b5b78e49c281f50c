package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port   string
	Env    string
	AppURL string

	// Database
	DBDriver   string // "postgres" | "sqlite"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string
	DBPath     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Session
	JWTSecret       string
	SessionDuration time.Duration
	SessionCookie   string
	CookieSecure    bool

	// Static content
	WebRoot string

	// Uploads
	UploadMaxImageSize int64
	UploadsPerDay      int

	// Media S3 mirror (disabled when endpoint is empty)
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaImagesBucket      string

	// Security
	BcryptCost        int
	RateLimitRequests int
	RateLimitDuration time.Duration

	// Seeding
	SeedDemoAccounts bool
}

func New() *Config {
	return &Config{
		// Server
		Port:   getEnv("PORT", "8080"),
		Env:    getEnv("ENV", "development"),
		AppURL: strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),

		// Database
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),
		DBPath:     getEnv("DB_PATH", "imageshare.db"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Session
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		SessionDuration: getEnvAsDuration("SESSION_DURATION", "24h"),
		SessionCookie:   getEnv("SESSION_COOKIE", "imageshare_session"),
		CookieSecure:    getEnv("COOKIE_SECURE", "false") == "true",

		// Static content
		WebRoot: getEnv("WEB_ROOT", "./wwwroot"),

		// Uploads
		UploadMaxImageSize: int64(getEnvAsInt("UPLOAD_MAX_IMAGE_SIZE", 10*1024*1024)),
		UploadsPerDay:      getEnvAsInt("UPLOADS_PER_DAY", 50),

		// Media S3 mirror
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnv("MEDIA_S3_USE_PATH_STYLE", "true") == "true",
		MediaImagesBucket:      getEnv("MEDIA_IMAGES_BUCKET", "imageshare-images"),

		// Security
		BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// Seeding
		SeedDemoAccounts: getEnv("SEED_DEMO_ACCOUNTS", "true") == "true",
	}
}

// Validate reports missing settings the process cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("missing database path (DB_PATH)")
		}
		return nil
	case "postgres":
	default:
		return errors.New("unsupported database driver: " + c.DBDriver)
	}
	if c.DBHost == "" {
		return errors.New("missing database connection string (DB_HOST)")
	}
	if c.DBName == "" {
		return errors.New("missing database name (DB_NAME)")
	}
	if c.DBUser == "" {
		return errors.New("missing database username (DB_USER)")
	}
	if c.DBPassword == "" {
		return errors.New("missing database password (DB_PASSWORD)")
	}
	return nil
}

// PostgresDSN builds the key/value connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimeZone)
}

// MediaS3Enabled reports whether uploaded images are mirrored to S3.
func (c *Config) MediaS3Enabled() bool {
	return c.MediaS3Endpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}
