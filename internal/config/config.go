package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	RecordService RecordServiceConfig
	AI            AIConfig
	Session       SessionConfig
	Bulk          BulkConfig
	Upload        UploadConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LogLevel           string
	LogConsole         bool
	CorsAllowedOrigins string
	NatsURL            string // empty disables JetStream publishing
	RedisURL           string // empty disables websocket fan-out
	MetricsEnabled     bool
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string // empty disables the activity audit table
}

type RecordServiceConfig struct {
	BaseURL     string
	Timeout     time.Duration
	TokenScheme string
}

type AIConfig struct {
	DefaultModel      string
	FallbackModel     string
	ToolCallingModels []string
	ExtraModels       []string
	Timeout           time.Duration
	MaxToolIterations int
	Temperature       float64
	HistoryWindow     int

	OpenRouterKey   string
	OpenRouterURL   string
	AzureKey        string
	AzureEndpoint   string
	AzureAPIVersion string
	AnthropicKey    string
	AnthropicURL    string
	HuggingFaceKey  string
	HuggingFaceURL  string
	OllamaURL       string
}

type SessionConfig struct {
	IdleTTL       time.Duration
	ReapInterval  time.Duration
	HistoryCap    int
	PatternCap    int
	FailedRowCap  int
	UploadCap     int
	BulkThreshold int
}

type BulkConfig struct {
	RatePerSecond float64
	Burst         int
	PreviewSize   int
}

type UploadConfig struct {
	MaxBytes int
	MaxRows  int
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8001"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			LogConsole:         getEnvAsBool("LOG_CONSOLE", true),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			MetricsEnabled:     getEnvAsBool("METRICS_ENABLED", true),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		RecordService: RecordServiceConfig{
			BaseURL:     getEnv("RECORD_SERVICE_URL", "http://localhost:8000/api"),
			Timeout:     getEnvAsDuration("RECORD_SERVICE_TIMEOUT", 10*time.Second),
			TokenScheme: getEnv("RECORD_SERVICE_TOKEN_SCHEME", "Token"),
		},
		AI: AIConfig{
			DefaultModel:      getEnv("AI_DEFAULT_MODEL", "openai/gpt-4o-mini"),
			FallbackModel:     getEnv("AI_FALLBACK_MODEL", "qwen/qwen3-235b-a22b-07-25:free"),
			ToolCallingModels: getEnvAsList("AI_TOOL_CALLING_MODELS", nil),
			ExtraModels:       getEnvAsList("AI_EXTRA_MODELS", nil),
			Timeout:           getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
			MaxToolIterations: getEnvAsInt("AI_MAX_TOOL_ITERATIONS", 5),
			Temperature:       getEnvAsFloat("AI_TEMPERATURE", 0.2),
			HistoryWindow:     getEnvAsInt("AI_HISTORY_WINDOW", 10),

			OpenRouterKey:   getEnv("OPENROUTER_API_KEY", ""),
			OpenRouterURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			AzureKey:        getEnv("AZURE_OPENAI_API_KEY", ""),
			AzureEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01"),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicURL:    getEnv("ANTHROPIC_BASE_URL", ""),
			HuggingFaceKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceURL:  getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			OllamaURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Session: SessionConfig{
			IdleTTL:       getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
			ReapInterval:  getEnvAsDuration("SESSION_REAP_INTERVAL", 5*time.Minute),
			HistoryCap:    getEnvAsInt("SESSION_HISTORY_CAP", 50),
			PatternCap:    getEnvAsInt("SESSION_PATTERN_CAP", 100),
			FailedRowCap:  getEnvAsInt("SESSION_FAILED_ROW_CAP", 500),
			UploadCap:     getEnvAsInt("SESSION_UPLOAD_CAP", 10),
			BulkThreshold: getEnvAsInt("BULK_CONFIRM_THRESHOLD", 10),
		},
		Bulk: BulkConfig{
			RatePerSecond: getEnvAsFloat("BULK_RATE_PER_SECOND", 20),
			Burst:         getEnvAsInt("BULK_BURST", 5),
			PreviewSize:   getEnvAsInt("BULK_PREVIEW_SIZE", 5),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt("UPLOAD_MAX_BYTES", 10*1024*1024),
			MaxRows:  getEnvAsInt("UPLOAD_MAX_ROWS", 1000),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
