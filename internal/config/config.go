package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alifh/alifh/internal/access"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Access      AccessConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Worker      WorkerConfig
}

// ServerConfig.FrontendURL, when set, is the upstream that guarded page
// requests are proxied to.
type ServerConfig struct {
	Host        string
	Port        int
	FrontendURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret     string
	SessionCookie string
	SessionTTL    time.Duration
}

// AccessConfig holds the route protection table and dashboard paths.
// RouteRules uses the access.ParseRouteRules format; empty means the
// built-in table.
type AccessConfig struct {
	RouteRules string
	Routes     access.Routes
	Redirects  access.RedirectTargets
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type WorkerConfig struct {
	Concurrency int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sessionTTL, err := getEnvDuration("SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	rateRequests, err := getEnvInt("RATE_LIMIT_REQUESTS", 120)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS: %w", err)
	}

	rateWindow, err := getEnvDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	concurrency, err := getEnvInt("WORKER_CONCURRENCY", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	routes := access.DefaultRoutes()
	redirects := access.DefaultRedirectTargets()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
			SessionCookie: getEnv("AUTH_SESSION_COOKIE", "alifh_session"),
			SessionTTL:    sessionTTL,
		},
		Access: AccessConfig{
			RouteRules: getEnv("ACCESS_ROUTE_RULES", ""),
			Routes: access.Routes{
				Admin:        getEnv("ROUTE_ADMIN_DASHBOARD", routes.Admin),
				PartnerOwner: getEnv("ROUTE_PARTNER_OWNER_DASHBOARD", routes.PartnerOwner),
				PartnerStaff: getEnv("ROUTE_PARTNER_STAFF_DASHBOARD", routes.PartnerStaff),
				User:         getEnv("ROUTE_USER_DASHBOARD", routes.User),
			},
			Redirects: access.RedirectTargets{
				SignIn:          getEnv("REDIRECT_SIGN_IN", redirects.SignIn),
				PendingApproval: getEnv("REDIRECT_PENDING_APPROVAL", redirects.PendingApproval),
				Suspended:       getEnv("REDIRECT_SUSPENDED", redirects.Suspended),
				Inactive:        getEnv("REDIRECT_INACTIVE", redirects.Inactive),
				VerifyEmail:     getEnv("REDIRECT_VERIFY_EMAIL", redirects.VerifyEmail),
				Unauthorized:    getEnv("REDIRECT_UNAUTHORIZED", redirects.Unauthorized),
			},
		},
		RateLimit: RateLimitConfig{
			Requests: rateRequests,
			Window:   rateWindow,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Worker: WorkerConfig{
			Concurrency: concurrency,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RouteTable builds the access route table from configuration.
func (c *Config) RouteTable() (access.RouteTable, error) {
	if strings.TrimSpace(c.Access.RouteRules) == "" {
		return access.DefaultRouteTable(), nil
	}
	return access.ParseRouteRules(c.Access.RouteRules)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if _, err := c.RouteTable(); err != nil {
		return fmt.Errorf("invalid ACCESS_ROUTE_RULES: %w", err)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requests and window must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
