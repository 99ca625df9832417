package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	TelegramToken string
	Storage       string
	DB            DBConfig
	Redis         RedisConfig
	AI            AIConfig
	HTTP          HTTPConfig
	Logger        LoggerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled bool
	Host    string
	Port    string
}

type AIConfig struct {
	Provider              string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	GeminiAPIKey          string
	Model                 string
	Temperature           float32
	MaxTokens             int
	Timeout               time.Duration
	ExtractionConcurrency int
}

type HTTPConfig struct {
	Enabled           bool
	Port              string
	APIPrefix         string
	CORSAllowOrigins  []string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvCSV(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	var result []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-1.5-flash"
	}
	return "gpt-4"
}

// LoadDB reads only the database settings, for tools that never call the AI provider
func LoadDB() DBConfig {
	return DBConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		DBName:   getEnvOrDefault("DB_NAME", "health_dialogue"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
}

func Load() (*Config, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Storage:       strings.ToLower(getEnvOrDefault("STORAGE", StoragePostgres)),
		DB:            LoadDB(),
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Host:    getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:    getEnvOrDefault("REDIS_PORT", "6379"),
		},
		AI: AIConfig{
			Provider:              provider,
			OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
			GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
			Model:                 getEnvOrDefault("AI_MODEL", defaultModel(provider)),
			Temperature:           getEnvFloat32("AI_TEMPERATURE", 0.7),
			MaxTokens:             getEnvInt("AI_MAX_TOKENS", 500),
			Timeout:               getEnvDuration("AI_TIMEOUT", 30*time.Second),
			ExtractionConcurrency: getEnvInt("AI_EXTRACTION_CONCURRENCY", 4),
		},
		HTTP: HTTPConfig{
			Enabled:           getEnvBool("HTTP_ENABLED", true),
			Port:              getEnvOrDefault("HTTP_PORT", "8080"),
			APIPrefix:         getEnvOrDefault("API_PREFIX", "/api/v1"),
			CORSAllowOrigins:  getEnvCSV("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			ReadHeaderTimeout: getEnvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
			ShutdownTimeout:   getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	var problems []string

	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required when AI_PROVIDER=gemini")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown AI_PROVIDER %q", c.AI.Provider))
	}

	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		problems = append(problems, fmt.Sprintf("unknown STORAGE %q", c.Storage))
	}
	if c.AI.Timeout <= 0 {
		problems = append(problems, "AI_TIMEOUT must be positive")
	}
	if c.AI.ExtractionConcurrency <= 0 {
		problems = append(problems, "AI_EXTRACTION_CONCURRENCY must be positive")
	}
	if !c.HTTP.Enabled && c.TelegramToken == "" {
		problems = append(problems, "either HTTP_ENABLED or TELEGRAM_BOT_TOKEN must be set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// DSN returns the Postgres connection string
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
