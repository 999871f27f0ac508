// internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Report   ReportConfig
	Storage  StorageConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// UpstreamConfig describes the headless data provider the report reads from.
type UpstreamConfig struct {
	Mode           string // "http" or "postgres"
	BaseURL        string
	Token          string
	TimeoutSeconds int
	PageSize       int
	MaxPages       int
	MaxRetries     int
	RetryBackoffMS int
	MaxConcurrent  int
}

func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

func (u UpstreamConfig) RetryBackoff() time.Duration {
	return time.Duration(u.RetryBackoffMS) * time.Millisecond
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	ReferenceTTLSeconds int
}

type ReportConfig struct {
	RulesFile                string
	ParetoLimit              int
	InternalCustomerKeywords []string
}

type StorageConfig struct {
	SnapshotDir string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	Region      string
	UseSSL      bool
}

var (
	once     sync.Once
	instance *Config
)

// Load reads configuration once per process.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = build(viper.New())
	})

	return instance
}

func build(v *viper.Viper) *Config {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("UPSTREAM_MODE", "http")
	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8055")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 30)
	v.SetDefault("UPSTREAM_PAGE_SIZE", 500)
	v.SetDefault("UPSTREAM_MAX_PAGES", 200)
	v.SetDefault("UPSTREAM_MAX_RETRIES", 3)
	v.SetDefault("UPSTREAM_RETRY_BACKOFF_MS", 1000)
	v.SetDefault("UPSTREAM_MAX_CONCURRENT", 6)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "directus")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_REFERENCE_TTL_SECONDS", 120)

	v.SetDefault("REPORT_RULES_FILE", "")
	v.SetDefault("REPORT_PARETO_LIMIT", 10)
	v.SetDefault("REPORT_INTERNAL_CUSTOMER_KEYWORDS", []string{
		"WALK IN", "WALK-IN", "WALKIN", "EMPLOYEE", "KARYAWAN", "STAFF", "INTERNAL", "CASH CUSTOMER",
	})

	v.SetDefault("SNAPSHOT_DIR", "./data/snapshots")
	v.SetDefault("SNAPSHOT_ENDPOINT", "")
	v.SetDefault("SNAPSHOT_ACCESS_KEY", "")
	v.SetDefault("SNAPSHOT_SECRET_KEY", "")
	v.SetDefault("SNAPSHOT_BUCKET", "")
	v.SetDefault("SNAPSHOT_REGION", "us-east-1")
	v.SetDefault("SNAPSHOT_USE_SSL", true)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Upstream: UpstreamConfig{
			Mode:           strings.ToLower(strings.TrimSpace(v.GetString("UPSTREAM_MODE"))),
			BaseURL:        strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
			Token:          strings.TrimSpace(v.GetString("UPSTREAM_TOKEN")),
			TimeoutSeconds: positive(v.GetInt("UPSTREAM_TIMEOUT_SECONDS"), 30),
			PageSize:       positive(v.GetInt("UPSTREAM_PAGE_SIZE"), 500),
			MaxPages:       positive(v.GetInt("UPSTREAM_MAX_PAGES"), 200),
			MaxRetries:     nonNegative(v.GetInt("UPSTREAM_MAX_RETRIES"), 3),
			RetryBackoffMS: nonNegative(v.GetInt("UPSTREAM_RETRY_BACKOFF_MS"), 1000),
			MaxConcurrent:  positive(v.GetInt("UPSTREAM_MAX_CONCURRENT"), 6),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			ReferenceTTLSeconds: v.GetInt("CACHE_REFERENCE_TTL_SECONDS"),
		},
		Report: ReportConfig{
			RulesFile:                v.GetString("REPORT_RULES_FILE"),
			ParetoLimit:              positive(v.GetInt("REPORT_PARETO_LIMIT"), 10),
			InternalCustomerKeywords: stringList(v, "REPORT_INTERNAL_CUSTOMER_KEYWORDS"),
		},
		Storage: StorageConfig{
			SnapshotDir: v.GetString("SNAPSHOT_DIR"),
			Endpoint:    v.GetString("SNAPSHOT_ENDPOINT"),
			AccessKey:   v.GetString("SNAPSHOT_ACCESS_KEY"),
			SecretKey:   v.GetString("SNAPSHOT_SECRET_KEY"),
			Bucket:      v.GetString("SNAPSHOT_BUCKET"),
			Region:      v.GetString("SNAPSHOT_REGION"),
			UseSSL:      v.GetBool("SNAPSHOT_USE_SSL"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func nonNegative(v, fallback int) int {
	if v < 0 {
		return fallback
	}
	return v
}

// stringList reads a list that may come from a default slice or from a comma
// separated env value. viper's own slice cast splits on whitespace, which
// breaks multi-word keywords such as "WALK IN".
func stringList(v *viper.Viper, key string) []string {
	switch raw := v.Get(key).(type) {
	case string:
		return splitList([]string{raw})
	case []string:
		return splitList(raw)
	default:
		return splitList(v.GetStringSlice(key))
	}
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
