package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the API process.
type Config struct {
	HTTPAddr string
	BaseURL  string

	// --- Databases ---
	PrimaryDSN  string
	ReadOnlyDSN string

	// --- Sessions ---
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration

	// --- Email ---
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	// --- External APIs ---
	PlantIDAPIKey     string
	PlantIDBaseURL    string
	GeminiAPIKey      string
	GeminiModel       string
	EventsURL         string
	HTTPClientTimeout time.Duration

	// --- Storage ---
	StorageBackend string // "local" or "s3"
	UploadDir      string
	S3Bucket       string
	AWSRegion      string

	// --- Events ---
	KafkaBrokers     []string
	KafkaOrdersTopic string

	CORSOrigin string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	return &Config{
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		BaseURL:  getenv("BASE_URL", "http://localhost:8080"),

		PrimaryDSN:  os.Getenv("DB_DSN_PRIMARY"),
		ReadOnlyDSN: os.Getenv("DB_DSN_READONLY"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),

		SMTPServer:   getenv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		PlantIDAPIKey:     os.Getenv("PLANT_ID_API_KEY"),
		PlantIDBaseURL:    getenv("PLANT_ID_BASE_URL", "https://api.plant.id/v2"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", "gemini-1.5-flash"),
		EventsURL:         getenv("EVENTS_URL", "https://www.eventbrite.com/d/online/agriculture/"),
		HTTPClientTimeout: getDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),

		StorageBackend: getenv("STORAGE_BACKEND", "local"),
		UploadDir:      getenv("UPLOAD_DIR", "./uploads"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		AWSRegion:      getenv("AWS_REGION", "ap-south-1"),

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrdersTopic: getenv("KAFKA_ORDERS_TOPIC", "agri.orders"),

		CORSOrigin: getenv("CORS_ORIGIN", "http://localhost:5173"),
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.PrimaryDSN == "" {
		errs = append(errs, errors.New("DB_DSN_PRIMARY is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.StorageBackend != "local" && c.StorageBackend != "s3" {
		errs = append(errs, errors.New("STORAGE_BACKEND must be 'local' or 's3'"))
	}
	if c.StorageBackend == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_BACKEND=s3"))
	}
	return errors.Join(errs...)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %s", key, v, def)
		return def
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
