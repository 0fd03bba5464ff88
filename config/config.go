package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// Database configuration
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string

	RedisAddr     string
	RedisPort     string
	RedisPassword string

	CORSOrigins []string

	// Log configuration
	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool

	// LLM configuration
	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string
	MistralTimeout time.Duration

	// Image generation chain
	ImageProviders       []string
	ImageProviderTimeout time.Duration
	DefaultImage         string

	MistralImageModel string

	OpenAIImageAPIKey  string
	OpenAIImageBaseURL string
	OpenAIImageModel   string
	OpenAIImageSize    string

	JiekouAPIKey           string
	JiekouImageURL         string
	JiekouQueryURLTemplate string
	JiekouPollInterval     time.Duration

	StableDiffusionURL string

	// Asset storage
	StorageDriver   string
	StaticDir       string
	StaticURLPrefix string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucketName      string

	// Rate limiting on generation endpoints
	RateLimit       int
	RateLimitWindow time.Duration
	RateLimitBlock  time.Duration
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" && c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// RedisEnabled reports whether a Redis server was configured. Without one the
// cache and rate limiter fall back to in-process implementations.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "local", "minio", "oss":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.ImageProviderTimeout <= 0 {
		return errors.New("IMAGE_PROVIDER_TIMEOUT must be positive")
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// LoadConfig reads the process environment, after loading envFile (".env" when
// empty) if it exists.
func LoadConfig(envFile ...string) (*Config, error) {
	file := ".env"
	if len(envFile) > 0 && envFile[0] != "" {
		file = envFile[0]
	}
	err := godotenv.Load(file)
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	staticPrefix := "/" + strings.Trim(getEnv("STATIC_URL_PREFIX", "/images"), "/")
	dbDriver := strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	defaultDatabaseURL := ""
	if dbDriver == "sqlite" {
		defaultDatabaseURL = "cocktails.db"
	}

	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),

		DBDriver:    dbDriver,
		DatabaseURL: getEnv("DATABASE_URL", defaultDatabaseURL),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      getEnv("DB_PORT", "5432"),

		RedisAddr:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFilename:   getEnv("LOG_FILENAME", "logs/app.log"),
		LogMaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvAsInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvAsBool("LOG_COMPRESS", true),

		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   getEnv("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		MistralTimeout: getEnvAsDuration("MISTRAL_TIMEOUT", 30*time.Second),

		ImageProviders:       getEnvAsList("IMAGE_PROVIDERS", []string{"mistral", "openai", "jiekou", "stablediffusion"}),
		ImageProviderTimeout: getEnvAsDuration("IMAGE_PROVIDER_TIMEOUT", 30*time.Second),
		DefaultImage:         getEnv("DEFAULT_IMAGE", staticPrefix+"/default.webp"),

		MistralImageModel: getEnv("MISTRAL_IMAGE_MODEL", "mistral-medium-latest"),

		OpenAIImageAPIKey:  os.Getenv("OPENAI_IMAGE_API_KEY"),
		OpenAIImageBaseURL: getEnv("OPENAI_IMAGE_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel:   getEnv("OPENAI_IMAGE_MODEL", "dall-e-3"),
		OpenAIImageSize:    getEnv("OPENAI_IMAGE_SIZE", "1024x1024"),

		JiekouAPIKey:           os.Getenv("JIEKOU_API"),
		JiekouImageURL:         os.Getenv("JIEKOU_IMAGE_URL"),
		JiekouQueryURLTemplate: getEnv("JIEKOU_QUERY_URL_TEMPLATE", "https://api.jiekou.ai/v3/async/task-result?task_id=%s"),
		JiekouPollInterval:     getEnvAsDuration("JIEKOU_POLL_INTERVAL", 5*time.Second),

		StableDiffusionURL: os.Getenv("STABLE_DIFFUSION_URL"),

		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		StaticURLPrefix: staticPrefix,

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "cocktail-images"),
		MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		OSSEndpoint:        os.Getenv("OSS_ENDPOINT"),
		OSSAccessKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
		OSSAccessKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
		OSSBucketName:      os.Getenv("OSS_BUCKET_NAME"),

		RateLimit:       getEnvAsInt("RATE_LIMIT", 10),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBlock:  getEnvAsDuration("RATE_LIMIT_BLOCK", 5*time.Minute),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
		if seconds, err := strconv.Atoi(valueStr); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
