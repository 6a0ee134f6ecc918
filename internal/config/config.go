package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string

	PhotoBackend  string
	PhotoPath     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3PathStyle   bool

	LogLevel  string
	LogFormat string
	LogFile   string

	ReportBranding         string
	ReportFetchConcurrency int

	BootstrapTechEmail    string
	BootstrapTechPassword string
}

// Load reads the configuration from the environment. Variables from the
// file named by ENV_FILE (default .env) are applied first without
// overriding anything already set; a missing file is not an error.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	pathStyle, err := getBool("S3_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}
	concurrency, err := getInt("REPORT_FETCH_CONCURRENCY", 1)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:             getEnv("LISTEN_ADDR", ":8080"),
		DBPath:                 getEnv("DB_PATH", "/data/siteinspect.db"),
		PhotoBackend:           getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:              getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PublicBaseURL:          getEnv("PUBLIC_BASE_URL", ""),
		S3Bucket:               getEnv("S3_BUCKET", ""),
		S3Region:               getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:             getEnv("S3_ENDPOINT", ""),
		S3PathStyle:            pathStyle,
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		LogFile:                getEnv("LOG_FILE", ""),
		ReportBranding:         getEnv("REPORT_BRANDING", "Site Inspect"),
		ReportFetchConcurrency: concurrency,
		BootstrapTechEmail:     getEnv("BOOTSTRAP_TECH_EMAIL", ""),
		BootstrapTechPassword:  getEnv("BOOTSTRAP_TECH_PASSWORD", ""),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PhotoBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when PHOTO_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}
	if c.ReportFetchConcurrency < 1 {
		return fmt.Errorf("REPORT_FETCH_CONCURRENCY must be at least 1, got %d", c.ReportFetchConcurrency)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
