package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds file and environment driven configuration values.
// Credentials have no defaults in code and must come from config.json, .env or the environment.
type AppConfig struct {
	AppPort            string
	GinMode            string
	GinPath            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	PublicBaseURL      string
	MaxUploadMB        int
	// Database
	DBDriver    string // mysql | postgres | sqlite
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// Redis for classifier cache and verification locks
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Storage
	StorageProvider string // local | s3 | minio
	UploadDir       string
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool
	// Remote classifier
	HFAPIKey               string
	HFBaseURL              string
	HFMaxAttempts          int
	HFTimeoutSec           int
	DocumentModels         []string
	ImageModels            []string
	ClassifierCacheMinutes int
	// Verification pipeline
	VerifyAsync        bool
	WorkerCount        int
	QueueSize          int
	QueueBackend       string // memory | nsq
	NSQDAddr           string
	NSQLookupdAddr     string
	NSQTopic           string
	NSQChannel         string
	LockTTLSeconds     int
	DownloadTimeoutSec int
	// PendingSweepMinutes re-queues uploads stuck in pending; 0 disables it.
	PendingSweepMinutes int
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Precedence: .env (never overrides real env) -> config/config.json -> defaults -> environment overrides
	_ = godotenv.Load()

	if err := loadFileConfig(filepath.Join("config", "config.json"), &cfg); err != nil {
		log.Printf("config: ignoring config/config.json: %v", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadFileConfig reads the grouped JSON config into out if present.
// A missing file is not an error.
func loadFileConfig(path string, out *AppConfig) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	list := func(key string, dst *[]string) {
		if v.IsSet(key) {
			if items := v.GetStringSlice(key); len(items) > 0 {
				*dst = items
			}
		}
	}

	str("app.port", &out.AppPort)
	str("app.gin_mode", &out.GinMode)
	str("app.gin_path", &out.GinPath)
	list("app.allowed_origins", &out.AllowedOrigins)
	num("app.rate_limit_per_minute", &out.RateLimitPerMinute)
	str("app.public_base_url", &out.PublicBaseURL)
	num("app.max_upload_mb", &out.MaxUploadMB)

	str("database.driver", &out.DBDriver)
	str("database.uri", &out.DatabaseURI)
	str("database.host", &out.DBHost)
	str("database.port", &out.DBPort)
	str("database.user", &out.DBUser)
	str("database.password", &out.DBPassword)
	str("database.name", &out.DBName)

	flag("redis.enabled", &out.RedisEnabled)
	str("redis.host", &out.RedisHost)
	num("redis.port", &out.RedisPort)
	num("redis.db", &out.RedisDB)
	str("redis.password", &out.RedisPassword)

	str("log.level", &out.LogLevel)
	str("log.path", &out.LogPath)
	num("log.max_size_mb", &out.LogMaxSizeMB)
	num("log.max_backups", &out.LogMaxBackups)
	num("log.max_age_days", &out.LogMaxAgeDays)
	flag("log.compress", &out.LogCompress)

	str("storage.provider", &out.StorageProvider)
	str("storage.upload_dir", &out.UploadDir)
	str("storage.s3_endpoint", &out.S3Endpoint)
	str("storage.s3_region", &out.S3Region)
	str("storage.s3_bucket", &out.S3Bucket)
	str("storage.s3_access_key", &out.S3AccessKey)
	str("storage.s3_secret_key", &out.S3SecretKey)
	flag("storage.s3_use_ssl", &out.S3UseSSL)

	str("classifier.api_key", &out.HFAPIKey)
	str("classifier.base_url", &out.HFBaseURL)
	num("classifier.max_attempts", &out.HFMaxAttempts)
	num("classifier.timeout_sec", &out.HFTimeoutSec)
	list("classifier.document_models", &out.DocumentModels)
	list("classifier.image_models", &out.ImageModels)
	num("classifier.cache_minutes", &out.ClassifierCacheMinutes)

	flag("verification.async", &out.VerifyAsync)
	num("verification.workers", &out.WorkerCount)
	num("verification.queue_size", &out.QueueSize)
	str("verification.queue_backend", &out.QueueBackend)
	str("verification.nsqd_addr", &out.NSQDAddr)
	str("verification.nsqlookupd_addr", &out.NSQLookupdAddr)
	str("verification.nsq_topic", &out.NSQTopic)
	str("verification.nsq_channel", &out.NSQChannel)
	num("verification.lock_ttl_sec", &out.LockTTLSeconds)
	num("verification.download_timeout_sec", &out.DownloadTimeoutSec)
	num("verification.pending_sweep_minutes", &out.PendingSweepMinutes)
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "3000"
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:" + c.AppPort
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 25
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "veridoc"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.StorageProvider == "" {
		c.StorageProvider = "local"
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join("static", "uploads")
	}
	if c.S3Region == "" {
		c.S3Region = "us-east-1"
	}
	if c.HFBaseURL == "" {
		c.HFBaseURL = "https://api-inference.huggingface.co/models/"
	}
	if c.HFMaxAttempts == 0 {
		c.HFMaxAttempts = 2
	}
	if c.HFTimeoutSec == 0 {
		c.HFTimeoutSec = 90
	}
	if len(c.DocumentModels) == 0 {
		c.DocumentModels = []string{
			"google/vit-base-patch16-224",
			"microsoft/resnet-50",
			"facebook/deit-base-distilled-patch16-224",
		}
	}
	if len(c.ImageModels) == 0 {
		c.ImageModels = []string{
			"google/vit-base-patch16-224",
			"microsoft/resnet-50",
		}
	}
	if c.ClassifierCacheMinutes == 0 {
		c.ClassifierCacheMinutes = 60
	}
	if c.WorkerCount == 0 {
		c.WorkerCount = 2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 100
	}
	if c.QueueBackend == "" {
		c.QueueBackend = "memory"
	}
	if c.NSQTopic == "" {
		c.NSQTopic = "verify_topic"
	}
	if c.NSQChannel == "" {
		c.NSQChannel = "verify_worker"
	}
	if c.LockTTLSeconds == 0 {
		c.LockTTLSeconds = 600
	}
	if c.DownloadTimeoutSec == 0 {
		c.DownloadTimeoutSec = 30
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		c.RateLimitPerMinute = mustParseInt(v)
	}
	if v := getEnv("PUBLIC_BASE_URL", ""); v != "" {
		c.PublicBaseURL = v
	}
	if v := getEnv("MAX_UPLOAD_MB", ""); v != "" {
		c.MaxUploadMB = mustParseInt(v)
	}
	if v := getEnv("DB_DRIVER", ""); v != "" {
		c.DBDriver = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("REDIS_ENABLED", ""); v != "" {
		c.RedisEnabled = v == "true"
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	// Logging env overrides
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	// Storage env overrides
	if v := getEnv("STORAGE_PROVIDER", ""); v != "" {
		c.StorageProvider = v
	}
	if v := getEnv("UPLOAD_DIR", ""); v != "" {
		c.UploadDir = v
	}
	if v := getEnv("S3_ENDPOINT", ""); v != "" {
		c.S3Endpoint = v
	}
	if v := getEnv("S3_REGION", ""); v != "" {
		c.S3Region = v
	}
	if v := getEnv("S3_BUCKET", ""); v != "" {
		c.S3Bucket = v
	}
	if v := getEnv("S3_ACCESS_KEY", ""); v != "" {
		c.S3AccessKey = v
	}
	if v := getEnv("S3_SECRET_KEY", ""); v != "" {
		c.S3SecretKey = v
	}
	if v := getEnv("S3_USE_SSL", ""); v != "" {
		c.S3UseSSL = v == "true"
	}
	// Classifier env overrides
	if v := getEnv("HF_API_KEY", ""); v != "" {
		c.HFAPIKey = v
	}
	if v := getEnv("HF_BASE_URL", ""); v != "" {
		c.HFBaseURL = v
	}
	if v := getEnv("HF_MAX_ATTEMPTS", ""); v != "" {
		c.HFMaxAttempts = mustParseInt(v)
	}
	if v := getEnv("HF_TIMEOUT_SEC", ""); v != "" {
		c.HFTimeoutSec = mustParseInt(v)
	}
	if v := getEnv("HF_DOCUMENT_MODELS", ""); v != "" {
		c.DocumentModels = readListEnv("HF_DOCUMENT_MODELS", c.DocumentModels)
	}
	if v := getEnv("HF_IMAGE_MODELS", ""); v != "" {
		c.ImageModels = readListEnv("HF_IMAGE_MODELS", c.ImageModels)
	}
	if v := getEnv("CLASSIFIER_CACHE_MINUTES", ""); v != "" {
		c.ClassifierCacheMinutes = mustParseInt(v)
	}
	// Verification env overrides
	if v := getEnv("VERIFY_ASYNC", ""); v != "" {
		c.VerifyAsync = v == "true"
	}
	if v := getEnv("VERIFY_WORKERS", ""); v != "" {
		c.WorkerCount = mustParseInt(v)
	}
	if v := getEnv("VERIFY_QUEUE_SIZE", ""); v != "" {
		c.QueueSize = mustParseInt(v)
	}
	if v := getEnv("VERIFY_QUEUE_BACKEND", ""); v != "" {
		c.QueueBackend = v
	}
	if v := getEnv("NSQD_ADDR", ""); v != "" {
		c.NSQDAddr = v
	}
	if v := getEnv("NSQLOOKUPD_ADDR", ""); v != "" {
		c.NSQLookupdAddr = v
	}
	if v := getEnv("NSQ_TOPIC", ""); v != "" {
		c.NSQTopic = v
	}
	if v := getEnv("NSQ_CHANNEL", ""); v != "" {
		c.NSQChannel = v
	}
	if v := getEnv("VERIFY_LOCK_TTL_SEC", ""); v != "" {
		c.LockTTLSeconds = mustParseInt(v)
	}
	if v := getEnv("DOWNLOAD_TIMEOUT_SEC", ""); v != "" {
		c.DownloadTimeoutSec = mustParseInt(v)
	}
	if v := getEnv("PENDING_SWEEP_MINUTES", ""); v != "" {
		c.PendingSweepMinutes = mustParseInt(v)
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
