package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// dev default (change for demo / production)
const devAdminPassword = "dev-admin-change-me"

type ServerConfig struct {
	HTTPAddr   string
	FeedAddr   string
	NotifyAddr string
	GRPCAddr   string

	// DatasetSource is "csv" (read CSVPath) or "archive" (read SQLite rows).
	DatasetSource string
	CSVPath       string

	// CORSOrigin is the browser origin allowed to call the API.
	CORSOrigin string
}

type RateConfig struct {
	Base          string
	Quote         string
	APIKey        string
	PairBaseURL   string
	LatestBaseURL string
	Default       float64
	Interval      time.Duration
	MinGap        time.Duration
}

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	JWTDuration       time.Duration
	AdminPasswordHash []byte
}

func LoadServerConfig() ServerConfig {
	source := strings.ToLower(envOr("CARDASH_DATASET_SOURCE", "csv"))
	if source != "csv" && source != "archive" {
		log.Printf("[config] unknown CARDASH_DATASET_SOURCE %q, using csv", source)
		source = "csv"
	}
	return ServerConfig{
		HTTPAddr:      envOr("CARDASH_HTTP_ADDR", ":8080"),
		FeedAddr:      envOr("CARDASH_FEED_ADDR", ":7070"),
		NotifyAddr:    envOr("CARDASH_NOTIFY_ADDR", ":7071"),
		GRPCAddr:      envOr("CARDASH_GRPC_ADDR", ":9090"),
		DatasetSource: source,
		CSVPath:       envOr("CARDASH_CSV_PATH", "data/CarsData.csv"),
		CORSOrigin:    envOr("CARDASH_CORS_ORIGIN", "*"),
	}
}

func LoadRateConfig() RateConfig {
	return RateConfig{
		Base:          strings.ToUpper(envOr("CARDASH_RATE_BASE", "USD")),
		Quote:         strings.ToUpper(envOr("CARDASH_RATE_QUOTE", "NGN")),
		APIKey:        os.Getenv("CARDASH_RATE_API_KEY"),
		PairBaseURL:   envOr("CARDASH_RATE_PAIR_URL", "https://v6.exchangerate-api.com"),
		LatestBaseURL: envOr("CARDASH_RATE_LATEST_URL", "https://api.exchangerate-api.com"),
		Default:       envFloat("CARDASH_RATE_DEFAULT", 1),
		Interval:      envDuration("CARDASH_RATE_INTERVAL", time.Hour),
		MinGap:        envDuration("CARDASH_RATE_MIN_GAP", 10*time.Second),
	}
}

func LoadAuthConfig() AuthConfig {
	secret := envOr("CARDASH_JWT_SECRET", "dev-secret-change-me")
	issuer := envOr("CARDASH_JWT_ISSUER", "cardash")

	ttl := 24 * time.Hour
	if raw := os.Getenv("CARDASH_JWT_TTL_HOURS"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		}
	}

	hash := []byte(os.Getenv("CARDASH_ADMIN_PASSWORD_HASH"))
	if len(hash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(devAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash dev admin password: %v", err)
		}
		log.Printf("[config] CARDASH_ADMIN_PASSWORD_HASH not set, admin password is %q", devAdminPassword)
		hash = generated
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       ttl,
		AdminPasswordHash: hash,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(f > 0) {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
