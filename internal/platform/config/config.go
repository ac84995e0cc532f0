package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the scoring engine. All overridable via environment.
const (
	DefaultOnChainWeight = 0.4
	DefaultPrimaryRate   = 0.2
	DefaultDeepRate      = 0.001
	DefaultWalletCap     = 10
	DefaultInvitationTTL = 7 * 24 * time.Hour
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	DemoMode      bool
	JWTSigningKey string
	AdminToken    string
	IdentitySalt  string

	// Scoring knobs. OnChainWeight and OffChainWeight always sum to 1.
	OnChainWeight  float64
	OffChainWeight float64
	PrimaryRate    float64
	DeepRate       float64

	WalletCap     int
	InvitationTTL time.Duration

	// Invitation spam limiter. Zero disables.
	InvitationsPerMinute float64

	DatabaseURL         string
	RedisAddr           string
	LeaderboardCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables.
// A .env file in the working directory is loaded first if present.
func FromEnv() Server {
	_ = godotenv.Load()

	cfg := Server{
		Addr:                 envOr("CREDITNET_ADDR", ":8080"),
		DemoMode:             os.Getenv("DEMO_MODE") == "true",
		JWTSigningKey:        envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminToken:           envOr("ADMIN_TOKEN", "dev-admin-token"),
		IdentitySalt:         envOr("IDENTITY_SALT", "creditnet-dev-salt"),
		OnChainWeight:        envFloat("ONCHAIN_WEIGHT", DefaultOnChainWeight),
		PrimaryRate:          envFloat("REFERRAL_PRIMARY_RATE", DefaultPrimaryRate),
		DeepRate:             envFloat("REFERRAL_DEEP_RATE", DefaultDeepRate),
		WalletCap:            envInt("WALLET_CAP", DefaultWalletCap),
		InvitationTTL:        envDuration("INVITATION_TTL", DefaultInvitationTTL),
		InvitationsPerMinute: envFloat("INVITATIONS_PER_MINUTE", 10),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		LeaderboardCacheTTL:  envDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),
	}

	if cfg.OnChainWeight < 0 || cfg.OnChainWeight > 1 {
		cfg.OnChainWeight = DefaultOnChainWeight
	}
	cfg.OffChainWeight = 1 - cfg.OnChainWeight
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
