package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  MySQL and RabbitMQ are optional: when their
// variables are unset the receipts log and confirmation events are skipped.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	JWTSecret string // secret used to verify access tokens issued by the auth service

	SubmissionAPIURL string        // base URL of the remote listing/review service
	SubmitTimeout    time.Duration // timeout of one remote submission
	AuthEntryURL     string        // where blocked users are sent to authenticate; "{flow}" is replaced by the flow id

	DraftPrefix   string        // storage namespace of draft and pending keys
	DraftTTL      time.Duration // lifetime of persisted draft fields
	PendingMaxAge time.Duration // older pending submissions are discarded, not resubmitted
	SessionIdle   time.Duration // in-memory sessions idle longer than this are dropped

	DBUser string // database username (optional)
	DBPass string // database password (optional)
	DBHost string // database host address (optional)
	DBPort string // database port number
	DBName string // database name

	RabbitURL string // AMQP broker URL (optional)
}

// Load reads configuration values from the environment, after merging a
// local .env file when present.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
func Load() Config {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		JWTSecret: must("JWT_SECRET"),

		SubmissionAPIURL: must("SUBMISSION_API_URL"),
		SubmitTimeout:    envDur("SUBMIT_TIMEOUT", 30*time.Second),
		AuthEntryURL:     must("AUTH_ENTRY_URL"),

		DraftPrefix:   envStr("DRAFT_PREFIX", "draft"),
		DraftTTL:      envDur("DRAFT_TTL", 30*24*time.Hour),
		PendingMaxAge: envDur("PENDING_MAX_AGE", 24*time.Hour),
		SessionIdle:   envDur("SESSION_IDLE", 2*time.Hour),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: os.Getenv("DB_NAME"),

		RabbitURL: firstEnv("RABBITMQ_URL", "AMQP_URL"),
	}
}

// DBEnabled reports whether MySQL settings are present.
func (c Config) DBEnabled() bool { return c.DBHost != "" && c.DBUser != "" && c.DBName != "" }

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool { return c.Env == "prod" || c.Env == "production" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// firstEnv returns the first non-empty variable among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
