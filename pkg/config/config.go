package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	MONGO_DB = "GreenCredit"

	USERS_COLLECTION               = "users"
	TREE_SUBMISSIONS_COLLECTION    = "treeSubmissions"
	CLEANUP_SUBMISSIONS_COLLECTION = "cleanupSubmissions"
	SOLAR_INSTALLATIONS_COLLECTION = "solarInstallations"
	SOLAR_REWARDS_COLLECTION       = "solarRewards"
	SOLAR_REQUESTS_COLLECTION      = "solarRequests"
	SOLAR_APPLICATIONS_COLLECTION  = "solarApplications"
	PRODUCTS_COLLECTION            = "products"
	ORDERS_COLLECTION              = "orders"
	LEDGER_COLLECTION              = "ledger"
	MESSAGES_COLLECTION            = "messages"
	CLEANUP_EVENTS_COLLECTION      = "cleanupEvents"
	EVENT_REGISTRATIONS_COLLECTION = "eventRegistrations"

	TREE_RATING_MULTIPLIER = 10
	MAX_TREE_RATING        = 10
	SOLAR_DEFAULT_REWARD   = 50
	DELIVERY_FEE           = 10

	MAX_CART_LINES       = 40
	MAX_UPLOAD_SIZE      = 8 << 20
	MAX_MESSAGE_GRAPHEME = 1000

	CART_TTL           = 30 * 24 * time.Hour
	CHECKOUT_MUTEX_TTL = 1 * time.Minute
	REVIEW_LOCK_TTL    = 30 * time.Second
	IDEMPOTENCY_TTL    = 7 * 24 * time.Hour
	IDEMPOTENCY_CLAIM  = 1 * time.Minute
	GEOCODE_TIMEOUT    = 5 * time.Second

	LEADERBOARD_SNAPSHOT_KEY = "leaderboard:top"
	LEADERBOARD_SCHEDULE     = "@every 5m"
	NOTIFY_QUEUE             = "notifyq"
	FAILED_NOTIFY_QUEUE      = "failed_notifications"
	CHAT_ADMIN_CHANNEL       = "chat:admin"

	EMAIL_SENDER = "no-reply@greencredit.app"
)

type EnvVars struct {
	ENV                       string
	PORT                      string
	ORIGIN                    string
	MONGO_URI                 string
	REDIS_ADDR                string
	REDIS_USERNAME            string
	REDIS_PASSWORD            string
	JWT_SECRET                string
	GOOGLE_CLIENT_ID          string
	FIREBASE_CREDENTIALS_PATH string
	CF_R2_API_ENDPOINT        string
	CF_R2_ACCESS_KEY          string
	CF_R2_SECRET_KEY          string
	CF_PROOF_BUCKET           string
	PROOF_PUBLIC_BASE_URL     string
	GEOCODE_BASE_URL          string
	AWS_REGION                string
}

// ENV holds the loaded environment. It is populated by Load.
var ENV = &EnvVars{}

func (e *EnvVars) Prod() bool {
	return e.ENV == "prod"
}

// Load reads .env outside prod and fills ENV from the process environment.
func Load() error {

	prod := os.Getenv("ENV") == "prod"

	if !prod {
		// a missing .env is fine, the environment may already be set
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	ENV = &EnvVars{
		ENV:                       os.Getenv("ENV"),
		PORT:                      getEnv("PORT", "8080"),
		ORIGIN:                    getEnv("ORIGIN", "http://localhost:5173"),
		MONGO_URI:                 getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		REDIS_ADDR:                getEnv("REDIS_ADDR", "localhost:6379"),
		REDIS_USERNAME:            os.Getenv("REDIS_USERNAME"),
		REDIS_PASSWORD:            os.Getenv("REDIS_PASSWORD"),
		JWT_SECRET:                os.Getenv("JWT_SECRET"),
		GOOGLE_CLIENT_ID:          os.Getenv("GOOGLE_CLIENT_ID"),
		FIREBASE_CREDENTIALS_PATH: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		CF_R2_API_ENDPOINT:        os.Getenv("CF_R2_API_ENDPOINT"),
		CF_R2_ACCESS_KEY:          os.Getenv("CF_R2_ACCESS_KEY"),
		CF_R2_SECRET_KEY:          os.Getenv("CF_R2_SECRET_KEY"),
		CF_PROOF_BUCKET:           getEnv("CF_PROOF_BUCKET", "proofs-dev"),
		PROOF_PUBLIC_BASE_URL:     strings.TrimRight(os.Getenv("PROOF_PUBLIC_BASE_URL"), "/"),
		GEOCODE_BASE_URL:          getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		AWS_REGION:                getEnv("AWS_REGION", "us-east-1"),
	}

	return ENV.Validate()

}

func (e *EnvVars) Validate() error {

	if e.JWT_SECRET == "" {
		return errors.New("JWT_SECRET is required")
	}
	if e.Prod() && e.PROOF_PUBLIC_BASE_URL == "" {
		return errors.New("PROOF_PUBLIC_BASE_URL is required in prod")
	}

	return nil

}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
