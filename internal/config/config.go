package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "24h"
	defaultLogLevel          = "info"
	defaultUploadRoot        = "./uploads"
	defaultStaticURLBase     = "/static"
	defaultAllowedExtensions = "png,jpg,jpeg,gif"
	defaultThumbnailSize     = "350"
	defaultImageQuality      = "75"
	defaultThumbnailPolicy   = ThumbnailStrict
	defaultMaxUploadBytes    = "10485760" // 10 MiB
)

// Thumbnail policies. Strict rolls back the whole upload when the thumbnail
// cannot be written; best_effort keeps the original and logs the failure.
const (
	ThumbnailStrict     = "strict"
	ThumbnailBestEffort = "best_effort"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    string
	CORSOrigins []string
	Upload      UploadConfig
}

type UploadConfig struct {
	Root              string
	StaticURLBase     string
	AllowedExtensions []string
	ThumbnailSize     int
	Quality           int
	ThumbnailPolicy   string
	MaxBytes          int64
}

// Load reads the process environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}

	up := UploadConfig{
		Root:              strings.TrimSpace(getEnv("UPLOAD_ROOT", defaultUploadRoot)),
		StaticURLBase:     strings.TrimRight(strings.TrimSpace(getEnv("STATIC_URL_BASE", defaultStaticURLBase)), "/"),
		AllowedExtensions: splitList(strings.ToLower(getEnv("ALLOWED_EXTENSIONS", defaultAllowedExtensions))),
		ThumbnailPolicy:   strings.ToLower(strings.TrimSpace(getEnv("THUMBNAIL_POLICY", defaultThumbnailPolicy))),
	}
	if up.ThumbnailSize, err = parseIntEnv("THUMBNAIL_SIZE", defaultThumbnailSize); err != nil {
		return nil, err
	}
	if up.Quality, err = parseIntEnv("IMAGE_QUALITY", defaultImageQuality); err != nil {
		return nil, err
	}
	maxBytes, err := parseIntEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	up.MaxBytes = int64(maxBytes)
	cfg.Upload = up

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	if err := cfg.Upload.Validate(); err != nil {
		return err
	}
	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

// Validate checks the upload settings on their own so tests and tools can
// build an UploadConfig without going through the environment.
func (u UploadConfig) Validate() error {
	if u.Root == "" {
		return fmt.Errorf("UPLOAD_ROOT must not be empty")
	}
	if len(u.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must list at least one extension")
	}
	if u.ThumbnailSize <= 0 {
		return fmt.Errorf("THUMBNAIL_SIZE must be > 0")
	}
	if u.Quality < 1 || u.Quality > 100 {
		return fmt.Errorf("IMAGE_QUALITY must be between 1 and 100")
	}
	if u.ThumbnailPolicy != ThumbnailStrict && u.ThumbnailPolicy != ThumbnailBestEffort {
		return fmt.Errorf("THUMBNAIL_POLICY must be one of: strict, best_effort")
	}
	if u.MaxBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	return nil
}

// DefaultUpload returns the upload settings used when nothing is configured.
func DefaultUpload() UploadConfig {
	return UploadConfig{
		Root:              defaultUploadRoot,
		StaticURLBase:     defaultStaticURLBase,
		AllowedExtensions: splitList(defaultAllowedExtensions),
		ThumbnailSize:     350,
		Quality:           75,
		ThumbnailPolicy:   defaultThumbnailPolicy,
		MaxBytes:          10 << 20,
	}
}

func (c *Config) IsProd() bool { return isProdLike(c.AppEnv) }

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
