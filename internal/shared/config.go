package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// Supplier protocol
	SupplierBase     string
	SupplierLogin    string
	SupplierPassword string
	SupplierDialect  string // "json" (canonical) or "xml" (legacy)
	SupplierTimeout  time.Duration
	SupplierRPS      int

	// Payment gateway
	GatewayBase     string
	GatewayUser     string
	GatewayPassword string
	GatewaySecret   string // HMAC key for callback verification
	ReturnURL       string

	CheckoutPolicy domain.CheckoutPolicy
	TokenSalt      string

	SearchCacheTTL  time.Duration
	RefCacheTTL     time.Duration
	SearchRateLimit int
	SearchRateWin   time.Duration

	Workers int
}

func Load() Config {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		SupplierBase:     env("SUPPLIER_BASE_URL", "https://xml.tunisiebooking.com/api"),
		SupplierLogin:    env("SUPPLIER_LOGIN", ""),
		SupplierPassword: env("SUPPLIER_PASSWORD", ""),
		SupplierDialect:  env("SUPPLIER_DIALECT", "json"),
		SupplierTimeout:  time.Duration(atoi("SUPPLIER_TIMEOUT_SECONDS", 30)) * time.Second,
		SupplierRPS:      atoi("SUPPLIER_RPS", 5),

		GatewayBase:     env("GATEWAY_BASE_URL", "https://test.clictopay.com/payment/rest"),
		GatewayUser:     env("GATEWAY_USER", ""),
		GatewayPassword: env("GATEWAY_PASSWORD", ""),
		GatewaySecret:   env("GATEWAY_CALLBACK_SECRET", ""),
		ReturnURL:       env("GATEWAY_RETURN_URL", "https://hotel.com.tn/payment/return"),

		CheckoutPolicy: policy(env("CHECKOUT_POLICY", string(domain.PolicyStrict))),
		TokenSalt:      env("TOKEN_SALT", "dev-only-salt"),

		SearchCacheTTL:  time.Duration(atoi("SEARCH_CACHE_TTL_SECONDS", 120)) * time.Second,
		RefCacheTTL:     time.Duration(atoi("REF_CACHE_TTL_SECONDS", 3600)) * time.Second,
		SearchRateLimit: atoi("SEARCH_RATE_LIMIT", 30),
		SearchRateWin:   time.Duration(atoi("SEARCH_RATE_WINDOW_SECONDS", 60)) * time.Second,

		Workers: atoi("SYNC_WORKERS", 8),
	}
	if c.SupplierLogin == "" || c.SupplierPassword == "" {
		log.Warn().Msg("supplier credentials are empty")
	}
	if c.GatewaySecret == "" {
		log.Warn().Msg("GATEWAY_CALLBACK_SECRET is empty; callbacks will be rejected")
	}
	return c
}

func policy(s string) domain.CheckoutPolicy {
	if s == string(domain.PolicyOnHoldPreauth) {
		return domain.PolicyOnHoldPreauth
	}
	return domain.PolicyStrict
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
