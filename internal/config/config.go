package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Breaker  BreakerConfig
	Client   ClientConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string // optional, fans the websocket event feed out across instances
	TelemetryTopic     string
	JwtSecret          string // empty disables bearer auth on the API
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	HuggingFace string
}

type AIConfig struct {
	LLMProvider        string // "ollama" | "huggingface"
	LLMModel           string
	LLMFallbackModel   string // used when the streaming call cannot be opened
	OllamaBaseURL      string
	HuggingFaceBaseURL string
	Temperature        float64
}

type BreakerConfig struct {
	MaxFailures int
	Timeout     time.Duration
	Interval    time.Duration
}

// ClientConfig is read by the reflect CLI.
type ClientConfig struct {
	APIBase     string
	APIToken    string
	LogFilePath string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			TelemetryTopic:     getEnv("TELEMETRY_TOPIC", "api_calls"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			LLMFallbackModel:   getEnv("LLM_FALLBACK_MODEL", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", ""),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		},
		Breaker: BreakerConfig{
			MaxFailures: getEnvAsInt("LLM_BREAKER_MAX_FAILURES", 5),
			Timeout:     getEnvAsDuration("LLM_BREAKER_TIMEOUT", 30*time.Second),
			Interval:    getEnvAsDuration("LLM_BREAKER_INTERVAL", time.Minute),
		},
		Client: ClientConfig{
			APIBase:     getEnv("REFLECT_API_BASE", "http://localhost:3000"),
			APIToken:    getEnv("REFLECT_API_TOKEN", ""),
			LogFilePath: getEnv("REFLECT_LOG_FILE_PATH", "logs/reflect.log"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
