package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	WebDir   string `yaml:"web_dir"` // serve UI assets from disk with live reload when set

	// Station directory
	DirectoryBaseURL string        `yaml:"directory_base_url"`
	DirectoryTimeout time.Duration `yaml:"directory_timeout"`
	PopularLimit     int           `yaml:"popular_limit"`
	SearchLimit      int           `yaml:"search_limit"`
	DefaultVolume    float64       `yaml:"default_volume"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Redis station cache
	RedisEnabled    bool          `yaml:"redis_enabled"`
	RedisHost       string        `yaml:"redis_host"`
	RedisPort       string        `yaml:"redis_port"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	StationCacheTTL time.Duration `yaml:"station_cache_ttl"`

	// MinIO icon store
	MinioEnabled   bool   `yaml:"minio_enabled"`
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
	MinioRegion    string `yaml:"minio_region"`
	IconMaxBytes   int64  `yaml:"icon_max_bytes"`

	// Let the icon proxy fetch from loopback and private networks.
	IconAllowPrivate bool `yaml:"icon_allow_private"`
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		WebDir:   getEnv("WEB_DIR", ""),

		DirectoryBaseURL: getEnv("DIRECTORY_BASE_URL", "https://de1.api.radio-browser.info"),
		DirectoryTimeout: getEnvDuration("DIRECTORY_TIMEOUT", 10*time.Second),
		PopularLimit:     getEnvInt("POPULAR_LIMIT", 100),
		SearchLimit:      getEnvInt("SEARCH_LIMIT", 50),
		DefaultVolume:    getEnvFloat("DEFAULT_VOLUME", 0.7),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		RedisEnabled:    getEnvBool("REDIS_ENABLED", false),
		RedisHost:       getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		StationCacheTTL: getEnvDuration("STATION_CACHE_TTL", 5*time.Minute),

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "musarty"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		IconMaxBytes:   getEnvInt64("ICON_MAX_BYTES", 512*1024),

		IconAllowPrivate: getEnvBool("ICON_ALLOW_PRIVATE", false),
	}
}

// LoadFile loads the environment configuration and overlays the YAML file at path.
// Keys missing from the file keep their environment or default value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the player cannot run with.
func (c *Config) Validate() error {
	if c.DirectoryBaseURL == "" {
		return fmt.Errorf("directory_base_url must not be empty")
	}
	if c.PopularLimit <= 0 || c.SearchLimit <= 0 {
		return fmt.Errorf("query limits must be positive (popular=%d, search=%d)", c.PopularLimit, c.SearchLimit)
	}
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf("default_volume must be within [0,1], got %v", c.DefaultVolume)
	}
	return nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
