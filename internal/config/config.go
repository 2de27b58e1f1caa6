package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Index backends
const (
	BackendGitHub     = "github"
	BackendFilesystem = "filesystem"
)

// Secondary source drivers
const (
	SourceDriverREST     = "rest"
	SourceDriverPostgres = "postgres"
	SourceDriverSQLite   = "sqlite"
)

// PlaceholderServiceRoleKey is used when SOURCE_SERVICE_ROLE_KEY is unset.
// The source rejects it, so every remote call fails authentication.
const PlaceholderServiceRoleKey = "your-service-role-key"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Admin credential and sessions
	Admin AdminConfig

	// Index document and asset locations
	Index IndexConfig

	// Hosted repository settings for the github backend
	GitHub GitHubConfig

	// Upload limits
	Upload UploadConfig

	// Published index used by the public reader
	Public PublicConfig

	// Secondary record source used by the recovery batch
	Source SourceConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AdminConfig holds the single shared admin credential
type AdminConfig struct {
	Password     string
	PasswordHash string // bcrypt, preferred over Password when set
	SessionTTL   time.Duration
}

// IndexConfig holds where the index and assets live
type IndexConfig struct {
	Backend      string
	Path         string // index document path, e.g. public/data/strips.json
	AssetDir     string // asset directory, e.g. public/strips
	SiteBasePath string // URL prefix for asset urls, e.g. /Porterias
	LocalRoot    string // filesystem backend root
}

// GitHubConfig holds hosted repository API settings
type GitHubConfig struct {
	APIURL  string
	Owner   string
	Repo    string
	Branch  string
	Token   string
	Timeout time.Duration
}

// UploadConfig holds upload settings
type UploadConfig struct {
	MaxUploadSize int64 // in bytes
}

// PublicConfig holds the published index location
type PublicConfig struct {
	IndexURL string
	Timeout  time.Duration
}

// SourceConfig holds secondary record source settings
type SourceConfig struct {
	Driver         string
	URL            string
	Table          string
	DSN            string
	ServiceRoleKey string
	Timeout        time.Duration
	Migrate        bool
	MigrationsPath string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Admin: AdminConfig{
			Password:     os.Getenv("ADMIN_PASSWORD"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			SessionTTL:   getDurationEnv("ADMIN_SESSION_TTL", 12*time.Hour),
		},
		Index: IndexConfig{
			Backend:      getEnv("INDEX_BACKEND", BackendFilesystem),
			Path:         getEnv("INDEX_PATH", "public/data/strips.json"),
			AssetDir:     getEnv("ASSET_DIR", "public/strips"),
			SiteBasePath: getEnv("SITE_BASE_PATH", ""),
			LocalRoot:    getEnv("LOCAL_ROOT", "."),
		},
		GitHub: GitHubConfig{
			APIURL:  getEnv("GITHUB_API_URL", "https://api.github.com"),
			Owner:   os.Getenv("GITHUB_OWNER"),
			Repo:    os.Getenv("GITHUB_REPO"),
			Branch:  getEnv("GITHUB_BRANCH", "main"),
			Token:   os.Getenv("GITHUB_TOKEN"),
			Timeout: getDurationEnv("GITHUB_TIMEOUT", 60*time.Second),
		},
		Upload: UploadConfig{
			MaxUploadSize: getInt64Env("MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB
		},
		Public: PublicConfig{
			IndexURL: os.Getenv("PUBLIC_INDEX_URL"),
			Timeout:  getDurationEnv("PUBLIC_TIMEOUT", 15*time.Second),
		},
		Source: SourceConfig{
			Driver:         getEnv("SOURCE_DRIVER", SourceDriverREST),
			URL:            os.Getenv("SOURCE_URL"),
			Table:          getEnv("SOURCE_TABLE", "comic_strips"),
			DSN:            os.Getenv("SOURCE_DSN"),
			ServiceRoleKey: getEnv("SOURCE_SERVICE_ROLE_KEY", PlaceholderServiceRoleKey),
			Timeout:        getDurationEnv("SOURCE_TIMEOUT", 30*time.Second),
			Migrate:        getBoolEnv("SOURCE_MIGRATE", false),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
			MaxOpenConns:   getIntEnv("SOURCE_MAX_OPEN_CONNS", 5),
			MaxIdleConns:   getIntEnv("SOURCE_MAX_IDLE_CONNS", 2),
			MaxLifetime:    getDurationEnv("SOURCE_MAX_LIFETIME", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings shared by every binary
func (c *Config) Validate() error {
	if c.Index.Path == "" {
		return fmt.Errorf("INDEX_PATH is required")
	}
	if c.Index.AssetDir == "" {
		return fmt.Errorf("ASSET_DIR is required")
	}
	switch c.Index.Backend {
	case BackendGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return fmt.Errorf("GITHUB_OWNER and GITHUB_REPO are required for the github backend")
		}
		if c.GitHub.Token == "" {
			return fmt.Errorf("GITHUB_TOKEN is required for the github backend")
		}
	case BackendFilesystem:
		if c.Index.LocalRoot == "" {
			return fmt.Errorf("LOCAL_ROOT is required for the filesystem backend")
		}
	default:
		return fmt.Errorf("INDEX_BACKEND must be one of: github, filesystem")
	}
	return nil
}

// Validate checks that an admin credential is configured
func (c *AdminConfig) Validate() error {
	if c.Password == "" && c.PasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("ADMIN_SESSION_TTL must be positive")
	}
	return nil
}

// Validate checks the published index location used by the server
func (c *PublicConfig) Validate() error {
	if c.IndexURL == "" {
		return fmt.Errorf("PUBLIC_INDEX_URL is required")
	}
	u, err := url.Parse(c.IndexURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("PUBLIC_INDEX_URL must be an absolute http(s) URL, got %q", c.IndexURL)
	}
	return nil
}

// Validate checks the secondary source settings
func (c *SourceConfig) Validate() error {
	switch c.Driver {
	case SourceDriverREST:
		if c.URL == "" {
			return fmt.Errorf("SOURCE_URL is required for the rest driver")
		}
	case SourceDriverPostgres, SourceDriverSQLite:
		if c.DSN == "" {
			return fmt.Errorf("SOURCE_DSN is required for the %s driver", c.Driver)
		}
	default:
		return fmt.Errorf("SOURCE_DRIVER must be one of: rest, postgres, sqlite")
	}
	if c.Table == "" {
		return fmt.Errorf("SOURCE_TABLE is required")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
