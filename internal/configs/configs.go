package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL                    string
	AdminAccountID            string
	DatabaseDSN               string
	RateLimit                 int
	CallGate                  string // "local" or "redis"
	RedisAddr                 string
	RedisLeaseKey             string
	RedisLeaseTTLSeconds      int
	AssignmentDeadlineSeconds int
	RetainResolved            bool
	ShutdownTimeoutSeconds    int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                    fmt.Sprintf("%s:%s", appHost, appPort),
		AdminAccountID:            getEnv("ADMIN_ACCOUNT_ID", "admin"),
		DatabaseDSN:               getEnv("DATABASE_DSN", "ledger.db"),
		RateLimit:                 getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
		CallGate:                  getEnv("CALL_GATE", "local"),
		RedisAddr:                 fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisLeaseKey:             getEnv("REDIS_LEASE_KEY", "ledger_call_lease"),
		RedisLeaseTTLSeconds:      getEnvAsInt("REDIS_LEASE_TTL_SECONDS", 10),
		AssignmentDeadlineSeconds: getEnvAsInt("ASSIGNMENT_DEADLINE_SECONDS", 300),
		RetainResolved:            getEnvAsBool("REVIEW_RETAIN_RESOLVED", true),
		ShutdownTimeoutSeconds:    getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.AdminAccountID == "" {
		log.Fatal("ADMIN_ACCOUNT_ID must not be empty")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.CallGate != "local" && cfg.CallGate != "redis" {
		log.Fatal("CALL_GATE must be either 'local' or 'redis'")
	}
	if cfg.RedisLeaseTTLSeconds <= 0 {
		log.Fatal("REDIS_LEASE_TTL_SECONDS must be greater than 0")
	}
	if cfg.AssignmentDeadlineSeconds <= 0 {
		log.Fatal("ASSIGNMENT_DEADLINE_SECONDS must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid boolean value for %s", key)
		}
		return b
	}
	return defaultVal
}
