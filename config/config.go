package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Cache     CacheConfig
	App       AppConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// RouteTTL overrides the cache TTL for paths starting with Prefix.
type RouteTTL struct {
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

type CacheConfig struct {
	Enabled     bool
	Prefix      string
	DefaultTTL  time.Duration
	MaxAge      time.Duration
	SweepSpec   string
	RoutesFile  string
	LongRoutes  []RouteTTL
	ShortRoutes []RouteTTL
	Excluded    []string
}

type AppConfig struct {
	Environment       string
	Debug             bool
	LogLevel          string
	Version           string
	StrictDateFilters bool
}

type TelemetryConfig struct {
	// MetricsExporter is "prometheus", "stdout" or "none".
	MetricsExporter string
}

// routesFile is the layout of CACHE_ROUTES_FILE.
type routesFile struct {
	Long     []RouteTTL `yaml:"long"`
	Short    []RouteTTL `yaml:"short"`
	Excluded []string   `yaml:"excluded"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "timetrack"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 1)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
			Issuer:    getEnv("JWT_ISSUER", "timetrack"),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			Prefix:     getEnv("CACHE_PREFIX", "api:"),
			DefaultTTL: time.Duration(getEnvAsInt("CACHE_DEFAULT_TTL_MINUTES", 15)) * time.Minute,
			MaxAge:     time.Duration(getEnvAsInt("CACHE_MAX_AGE_DAYS", 3)) * 24 * time.Hour,
			SweepSpec:  getEnv("CACHE_SWEEP_SPEC", "0 0 3 * * *"),
			RoutesFile: getEnv("CACHE_ROUTES_FILE", ""),
		},
		App: AppConfig{
			Environment:       getEnv("APP_ENV", "development"),
			Debug:             getEnvAsBool("APP_DEBUG", false),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			Version:           getEnv("APP_VERSION", "1.0.0"),
			StrictDateFilters: getEnvAsBool("FILTER_STRICT_DATES", false),
		},
		Telemetry: TelemetryConfig{
			MetricsExporter: strings.ToLower(getEnv("METRICS_EXPORTER", "prometheus")),
		},
	}

	if cfg.Cache.RoutesFile != "" {
		if err := cfg.Cache.loadRoutes(cfg.Cache.RoutesFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("PORT is required"))
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("DB_HOST or DB_DSN is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("REDIS_ADDR is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive"))
	}
	if c.Cache.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_DEFAULT_TTL_MINUTES must be positive"))
	}
	switch c.Telemetry.MetricsExporter {
	case "prometheus", "stdout", "none":
	default:
		errs = append(errs, fmt.Errorf("METRICS_EXPORTER must be prometheus, stdout or none"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// URL returns DB_DSN when set, otherwise a postgres URL built from the
// individual settings.
func (d DatabaseConfig) URL() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (c *CacheConfig) loadRoutes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache routes: %w", err)
	}
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse cache routes %s: %w", path, err)
	}
	c.LongRoutes = f.Long
	c.ShortRoutes = f.Short
	c.Excluded = f.Excluded
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
