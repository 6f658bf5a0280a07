// Package config reads RagDrop's runtime settings from the environment,
// after loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blob store backends.
const (
	BlobMinIO  = "minio"
	BlobGCS    = "gcs"
	BlobMemory = "memory"
)

// Metadata store backends.
const (
	MetadataPostgres = "postgres"
	MetadataMemory   = "memory"
)

// Summary model providers.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// Config represents runtime configuration for the API server, the worker and the CLI.
type Config struct {
	Address        string
	LogMode        string
	LogLevel       string
	CORSOrigins    []string
	UploadScope    string
	RequestTimeout time.Duration
	SignedURLTTL   time.Duration

	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	StoreDisplayName  string
	FileSearchStore   string
	PollInterval      time.Duration
	ImportTimeout     time.Duration
	GeminiMaxRetries  int
	GeminiHTTPTimeout time.Duration
	SummaryProvider   string
	SummaryModel      string
	OpenAIBaseURL     string
	OpenAIAPIKey      string

	BlobBackend  string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	Bucket       string
	S3UseSSL     bool
	S3Region     string
	S3PublicURL  string
	GCSBucket    string
	GCSProjectID string
	GCSPublicURL string

	MetadataBackend string
	DatabaseURL     string

	CleanupQueue      bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	WorkerConcurrency int
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = "8000"
	defaultRequestTimeout   = 15 * time.Minute
	defaultSignedTTL        = 15 * time.Minute
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com"
	defaultGeminiModel      = "gemini-2.5-pro"
	defaultStoreDisplayName = "servless-rag-store"
	defaultPollInterval     = 2 * time.Second
	defaultImportTimeout    = 10 * time.Minute
	defaultGeminiRetries    = 3
	defaultGeminiTimeout    = 5 * time.Minute
	defaultWorkerCount      = 4
)

// Load reads configuration from environment variables falling back to defaults.
func Load() (*Config, error) {
	if files := existing(".env", "../.env"); len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{
		Address:        net.JoinHostPort(readEnv("HOST", defaultHost), readEnv("PORT", defaultPort)),
		LogMode:        readEnv("LOG_MODE", "dev"),
		LogLevel:       strings.ToLower(readEnv("LOG_LEVEL", "info")),
		CORSOrigins:    parseList("CORS_ORIGINS", "*"),
		UploadScope:    readEnv("UPLOAD_SCOPE", "anonymous"),
		RequestTimeout: parseDuration("REQUEST_TIMEOUT", defaultRequestTimeout),
		SignedURLTTL:   parseDuration("SIGNED_URL_TTL", defaultSignedTTL),

		GeminiAPIKey:      readEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:     strings.TrimRight(readEnv("GEMINI_BASE_URL", defaultGeminiBaseURL), "/"),
		GeminiModel:       readEnv("GEMINI_MODEL", defaultGeminiModel),
		StoreDisplayName:  readEnv("GEMINI_STORE_DISPLAY_NAME", defaultStoreDisplayName),
		FileSearchStore:   readEnv("GEMINI_FILE_SEARCH_STORE", ""),
		PollInterval:      parseDuration("GEMINI_POLL_INTERVAL", defaultPollInterval),
		ImportTimeout:     parseDuration("GEMINI_IMPORT_TIMEOUT", defaultImportTimeout),
		GeminiMaxRetries:  parseInt("GEMINI_MAX_RETRIES", defaultGeminiRetries),
		GeminiHTTPTimeout: parseDuration("GEMINI_HTTP_TIMEOUT", defaultGeminiTimeout),
		SummaryProvider:   strings.ToLower(readEnv("SUMMARY_PROVIDER", ProviderGoogleAI)),
		OpenAIBaseURL:     readEnv("OPENAI_BASE_URL", ""),
		OpenAIAPIKey:      readEnv("OPENAI_API_KEY", ""),

		BlobBackend:  strings.ToLower(readEnv("BLOB_BACKEND", BlobMinIO)),
		S3Endpoint:   readEnv("MINIO_ENDPOINT", "localhost:9000"),
		S3AccessKey:  readEnv("MINIO_ACCESS_KEY", "minioadmin"),
		S3SecretKey:  readEnv("MINIO_SECRET_KEY", "minioadmin123"),
		Bucket:       readEnv("MINIO_BUCKET", "servless-rag"),
		S3UseSSL:     parseBool("MINIO_USE_SSL", false),
		S3Region:     readEnv("MINIO_REGION", "us-east-1"),
		S3PublicURL:  strings.TrimRight(readEnv("MINIO_PUBLIC_URL", ""), "/"),
		GCSBucket:    readEnv("GCS_BUCKET", ""),
		GCSProjectID: readEnv("GCS_PROJECT_ID", ""),
		GCSPublicURL: strings.TrimRight(readEnv("GCS_PUBLIC_URL", ""), "/"),

		MetadataBackend: strings.ToLower(readEnv("METADATA_BACKEND", MetadataPostgres)),
		DatabaseURL:     readEnv("DATABASE_URL", ""),

		CleanupQueue:      parseBool("CLEANUP_QUEUE", false),
		RedisAddr:         readEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     readEnv("REDIS_PASSWORD", ""),
		RedisDB:           parseInt("REDIS_DB", 0),
		WorkerConcurrency: parseInt("WORKER_CONCURRENCY", defaultWorkerCount),
	}
	cfg.SummaryModel = readEnv("SUMMARY_MODEL", cfg.GeminiModel)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ImportTimeout <= 0 {
		cfg.ImportTimeout = defaultImportTimeout
	}
	if cfg.GeminiMaxRetries < 0 {
		cfg.GeminiMaxRetries = defaultGeminiRetries
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = defaultWorkerCount
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = defaultSignedTTL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no component can start with.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	switch c.BlobBackend {
	case BlobMinIO:
		if c.S3Endpoint == "" || c.Bucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend"))
		}
	case BlobGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs backend"))
		}
	case BlobMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}
	switch c.MetadataBackend {
	case MetadataPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case MetadataMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown METADATA_BACKEND %q", c.MetadataBackend))
	}
	switch c.SummaryProvider {
	case ProviderGoogleAI, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown SUMMARY_PROVIDER %q", c.SummaryProvider))
	}
	return errors.Join(errs...)
}

// BucketName returns the bucket used by the configured blob backend.
func (c *Config) BucketName() string {
	if c.BlobBackend == BlobGCS {
		return c.GCSBucket
	}
	return c.Bucket
}

func existing(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func parseList(key, def string) []string {
	val := strings.Trim(readEnv(key, def), "[]")
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(strings.TrimSpace(p), `"'`); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return def
}
