package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr       string
	PostgresDSN    string
	MigrateOnStart bool
	LogLevel       string
	BaseURL        string

	AdminAPIKey string
	VeritasEnv  string

	SigningSecret          string
	SigningSecretVaultPath string
	VerifySignature        bool

	VaultAddr      string
	VaultToken     string
	VaultNamespace string

	PolicyBundlePath    string
	MinSecurityFeatures int

	MaxUploadBytes      int
	TemplateCacheTTLSec int

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
	BatchOutputDir    string
	HealthAddr        string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		MigrateOnStart:         envBoolDefault("MIGRATE_ON_START", false),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		BaseURL:                envDefault("BASE_URL", "http://localhost:8080"),
		AdminAPIKey:            os.Getenv("ADMIN_API_KEY"),
		VeritasEnv:             os.Getenv("VERITAS_ENV"),
		SigningSecret:          os.Getenv("SIGNING_SECRET"),
		SigningSecretVaultPath: os.Getenv("SIGNING_SECRET_VAULT_PATH"),
		VerifySignature:        envBoolDefault("VERIFY_SIGNATURE", false),
		VaultAddr:              os.Getenv("VAULT_ADDR"),
		VaultToken:             os.Getenv("VAULT_TOKEN"),
		VaultNamespace:         os.Getenv("VAULT_NAMESPACE"),
		PolicyBundlePath:       os.Getenv("SECURITY_POLICY_PATH"),
		MinSecurityFeatures:    envIntDefault("MIN_SECURITY_FEATURES", 4),
		MaxUploadBytes:         envIntDefault("MAX_UPLOAD_BYTES", 10<<20),
		TemplateCacheTTLSec:    envIntDefault("TEMPLATE_CACHE_TTL_SECONDS", 300),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:    envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		TemporalAddress:        envDefault("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:      envDefault("TEMPORAL_NAMESPACE", "default"),
		TaskQueue:              envDefault("TEMPORAL_TASK_QUEUE", "certificate-batches"),
		BatchOutputDir:         envDefault("BATCH_OUTPUT_DIR", "out"),
		HealthAddr:             envDefault("HEALTH_ADDR", ":8090"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) TemplateCacheTTL() time.Duration {
	if c.TemplateCacheTTLSec <= 0 {
		return 0
	}
	return time.Duration(c.TemplateCacheTTLSec) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
