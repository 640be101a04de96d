package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverMinio  = "minio"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Port               string        `yaml:"port"`
	CorsOrigin         string        `yaml:"cors_origin"`
	Storage            StorageConfig `yaml:"storage"`
	UploadURLExpiry    time.Duration `yaml:"upload_url_expiry"`
	MaxFileSizeMB      int64         `yaml:"max_file_size_mb"`
	StorageQuotaGB     int64         `yaml:"storage_quota_gb"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	StaticDir          string        `yaml:"static_dir"`
	LogFile            string        `yaml:"log_file"`
	LogLevel           string        `yaml:"log_level"`
}

// StorageConfig holds object store configuration
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key"`
	SecretAccessKey string `yaml:"secret_key"`
	UseSSL          bool   `yaml:"use_ssl"`
	PathStyle       bool   `yaml:"path_style"`
	BucketName      string `yaml:"bucket"`
}

// MaxFileSize returns the upload size limit in bytes
func (c *Config) MaxFileSize() int64 {
	return c.MaxFileSizeMB << 20
}

// Load configuration from environment or use defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		CorsOrigin: getEnv("CORS_ORIGIN", "*"), // UI is served by this server
		Storage: StorageConfig{
			Driver:          getEnv("STORAGE_DRIVER", DriverMinio),
			Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("S3_SECRET_KEY", "minioadmin"),
			UseSSL:          getEnvBool("S3_USE_SSL", false),
			PathStyle:       getEnvBool("S3_PATH_STYLE", true),
			BucketName:      getEnv("S3_BUCKET", "flaredrive"),
		},
		UploadURLExpiry:    getEnvDuration("UPLOAD_URL_EXPIRY", time.Hour),
		MaxFileSizeMB:      getEnvInt64("MAX_FILE_SIZE_MB", 5120), // 5GB, single PUT limit
		StorageQuotaGB:     getEnvInt64("STORAGE_QUOTA_GB", 10),
		RateLimitPerMinute: int(getEnvInt64("RATE_LIMIT_PER_MINUTE", 120)),
		ReadTimeout:        getEnvDuration("READ_TIMEOUT", 30*time.Minute),
		WriteTimeout:       getEnvDuration("WRITE_TIMEOUT", 30*time.Minute),
		StaticDir:          getEnv("STATIC_DIR", ""),
		LogFile:            getEnv("LOG_FILE", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// LoadFile loads the environment configuration and overlays the YAML file at path.
// Fields absent from the file keep their environment or default values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMinio, DriverS3, DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.Storage.Driver != DriverMemory && c.Storage.BucketName == "" {
		return fmt.Errorf("bucket name is required for driver %s", c.Storage.Driver)
	}

	if c.Port == "" {
		c.Port = "8080"
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.UploadURLExpiry <= 0 {
		return fmt.Errorf("upload url expiry must be positive, got %s", c.UploadURLExpiry)
	}
	if c.RateLimitPerMinute < 0 {
		c.RateLimitPerMinute = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get bool from environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return b
}

// Helper function to get duration from environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// Helper function to get int64 from environment variable
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intValue
}
