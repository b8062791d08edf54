package infrastructure

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything read from the environment. main loads .env
// first (godotenv), then builds one of these.
type Config struct {
	Addr        string
	LogMode     string
	DBDriver    string // "sqlite" or "mysql"
	DBDSN       string // mysql DSN, required when DBDriver is mysql
	SQLitePath  string
	OpenAIKey   string
	OpenAIModel string
	// OpenAIBaseURL overrides the API endpoint; tests point it at a fake.
	OpenAIBaseURL string
	EvalTimeout   time.Duration
	EvalRetries   int
	WorkerCount   int
	RabbitURL     string // when set, batches travel through RabbitMQ
}

func LoadConfig() Config {
	return Config{
		Addr:          getEnv("ADDR", ":8080"),
		LogMode:       getEnv("LOG_MODE", "development"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBDSN:         os.Getenv("DB_DSN"),
		SQLitePath:    getEnv("SQLITE_PATH", "talentvibe.db"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		EvalTimeout:   getEnvDuration("EVAL_TIMEOUT", 60*time.Second),
		EvalRetries:   getEnvInt("EVAL_RETRIES", 0),
		WorkerCount:   getEnvInt("WORKER_COUNT", 10),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
