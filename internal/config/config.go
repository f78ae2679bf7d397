package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backend constants shared by the rate limiter and the authorization code store
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Rate limit store aliases kept for readability at call sites
const (
	RateLimitStoreMemory = StoreMemory
	RateLimitStoreRedis  = StoreRedis
)

// Authorization code store aliases
const (
	AuthCodeStoreMemory = StoreMemory
	AuthCodeStoreRedis  = StoreRedis
)

// Scope policy constants
const (
	ScopePolicyClient = "client" // requested scopes must be registered on the client
	ScopePolicyAllow  = "allow"  // permit every scope, development only
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string // "development" or "production"
	LogLevel    string

	// Signing keys
	PrivateKeyPath string
	PublicKeyPath  string
	KeyID          string // "kid" published in the JWKS

	// Token settings
	TokenPrefix            string        // prepended to every signed token
	SessionExpiration      time.Duration // lifetime of the login token
	JWTExpiration          time.Duration // lifetime of the JWT wrapping an access token
	AccessTokenExpiration  time.Duration // registry lifetime of an access token
	RefreshTokenExpiration time.Duration
	AuthCodeExpiration     time.Duration

	// OAuth settings
	AuthCodeStore      string // "memory" or "redis"
	ScopePolicy        string // "client" or "allow"
	DefaultRedirectURL string // supports {{username}}
	ClientCacheTTL     time.Duration

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Cookie
	CookieName   string
	CookieSecure bool

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	EnableRateLimit    bool
	RateLimitStore     string // "memory" or "redis"
	LoginRateLimit     int    // requests per minute
	RegisterRateLimit  int
	TokenRateLimit     int
	AuthorizeRateLimit int

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // optional bearer token guarding /metrics

	// Timeouts
	RequestTimeout        time.Duration
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	RedisConnTimeout      time.Duration
	RedisCloseTimeout     time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "fieldauth.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	env := getEnv("ENVIRONMENT", EnvDevelopment)

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		PrivateKeyPath: getEnv("PRIVATE_KEY_PATH", "keys/private.pem"),
		PublicKeyPath:  getEnv("PUBLIC_KEY_PATH", "keys/public.pem"),
		KeyID:          getEnv("KEY_ID", "fieldauth-1"),

		TokenPrefix:            getEnv("TOKEN_PREFIX", "v1/"),
		SessionExpiration:      getEnvDuration("SESSION_EXPIRATION", 60*time.Minute),
		JWTExpiration:          getEnvDuration("ACCESS_JWT_EXPIRATION", 24*time.Hour),
		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 14*24*time.Hour),
		AuthCodeExpiration:     getEnvDuration("AUTH_CODE_EXPIRATION", 10*time.Minute),

		AuthCodeStore:      getEnv("AUTH_CODE_STORE", AuthCodeStoreMemory),
		ScopePolicy:        getEnv("SCOPE_POLICY", ScopePolicyClient),
		DefaultRedirectURL: getEnv("DEFAULT_REDIRECT_URL", "/users/{{username}}"),
		ClientCacheTTL:     getEnvDuration("CLIENT_CACHE_TTL", time.Minute),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		CookieName:   getEnv("COOKIE_NAME", "Authorization"),
		CookieSecure: getEnvBool("COOKIE_SECURE", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EnableRateLimit:    getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 5),
		RegisterRateLimit:  getEnvInt("REGISTER_RATE_LIMIT", 3),
		TokenRateLimit:     getEnvInt("TOKEN_RATE_LIMIT", 20),
		AuthorizeRateLimit: getEnvInt("AUTHORIZE_RATE_LIMIT", 30),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout:     getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// IsProduction reports whether internal error details must be hidden from clients
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.PrivateKeyPath == "" {
		return errors.New("PRIVATE_KEY_PATH is required")
	}
	if c.TokenPrefix == "" {
		return errors.New("TOKEN_PREFIX must not be empty")
	}

	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}
	if c.EnableRateLimit && c.RateLimitStore == RateLimitStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("RATE_LIMIT_STORE=%q requires REDIS_ADDR", c.RateLimitStore)
	}

	if c.AuthCodeStore != AuthCodeStoreMemory && c.AuthCodeStore != AuthCodeStoreRedis {
		return fmt.Errorf(
			"invalid AUTH_CODE_STORE value: %q (must be %q or %q)",
			c.AuthCodeStore, AuthCodeStoreMemory, AuthCodeStoreRedis,
		)
	}
	if c.AuthCodeStore == AuthCodeStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("AUTH_CODE_STORE=%q requires REDIS_ADDR", c.AuthCodeStore)
	}

	if c.ScopePolicy != ScopePolicyClient && c.ScopePolicy != ScopePolicyAllow {
		return fmt.Errorf(
			"invalid SCOPE_POLICY value: %q (must be %q or %q)",
			c.ScopePolicy, ScopePolicyClient, ScopePolicyAllow,
		)
	}
	if c.ScopePolicy == ScopePolicyAllow && c.IsProduction() {
		return fmt.Errorf("SCOPE_POLICY=%q is not allowed in production", ScopePolicyAllow)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"SESSION_EXPIRATION", c.SessionExpiration},
		{"ACCESS_JWT_EXPIRATION", c.JWTExpiration},
		{"ACCESS_TOKEN_EXPIRATION", c.AccessTokenExpiration},
		{"REFRESH_TOKEN_EXPIRATION", c.RefreshTokenExpiration},
		{"AUTH_CODE_EXPIRATION", c.AuthCodeExpiration},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be a positive duration", d.name)
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

