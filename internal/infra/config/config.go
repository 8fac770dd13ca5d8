package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	LLMBaseURL        string
	LLMAPIKey         string
	ChatModel         string
	EmbeddingModel    string
	LLMTimeoutSeconds int
	LLMMaxAttempts    int
	LLMRequestsPerSec float64

	DefaultTopK       int
	CandidateLimit    int
	JudgeEnabled      bool
	MaxIterations     int
	MinRetrievalQual  float64
	MinGenerationQual float64

	LogLevel    string
	OTelEnabled bool
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "docqa-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "docqa_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "docqa_password"),
		DBName:     getEnv("DB_NAME", "docqa_db"),

		LLMBaseURL:        getEnvWithAlt("LLM_BASE_URL", "OPENAI_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:         getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		ChatModel:         getEnv("CHAT_MODEL", "qwen2.5:14b"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "bge-m3"),
		LLMTimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 120),
		LLMMaxAttempts:    getEnvInt("LLM_MAX_ATTEMPTS", 3),
		LLMRequestsPerSec: getEnvFloat("LLM_REQUESTS_PER_SEC", 5),

		DefaultTopK:       getEnvInt("RETRIEVAL_DEFAULT_TOP_K", 5),
		CandidateLimit:    getEnvInt("RETRIEVAL_CANDIDATE_LIMIT", 2000),
		JudgeEnabled:      getEnvBool("JUDGE_ENABLED", false),
		MaxIterations:     getEnvInt("SELF_RAG_MAX_ITERATIONS", 3),
		MinRetrievalQual:  getEnvFloat("SELF_RAG_MIN_RETRIEVAL_QUALITY", 0.5),
		MinGenerationQual: getEnvFloat("SELF_RAG_MIN_GENERATION_QUALITY", 0.6),

		LogLevel:    getEnv("LOG_LEVEL", "info"),
		OTelEnabled: getEnvBool("OTEL_ENABLED", false),
	}
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
