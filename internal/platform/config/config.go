package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	QueueMemory = "memory"
	QueueRedis  = "redis"

	ExecutorSimulator = "simulator"
	ExecutorJudge0    = "judge0"
)

type Config struct {
	AppEnv      string
	APIPort     string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	JWTKey []byte
	JWTExp time.Duration

	// Default time budget of a fresh assessment session.
	SessionBudgetSeconds int

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	DBConnStr   string

	QueueDriver            string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	GradingQueueName       string
	QueueCapacity          int
	GradingWorkers         int
	ProgressLockPrefix     string
	ProgressLockTTLSeconds int
	ProgressLockWaitMillis int

	Executor     string
	ExecMinDelay time.Duration
	ExecMaxDelay time.Duration
	Judge0URL    string
	Judge0APIKey string
	Judge0Host   string

	// Empty means the embedded catalog.
	QuestionsFile string
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		APIPort:     getEnv("API_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		JWTKey: []byte(getEnv("JWT_SECRET", "")),
		JWTExp: time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,

		SessionBudgetSeconds: getEnvAsInt("SESSION_BUDGET_SECONDS", 7200),

		StoreDriver: getEnv("STORE_DRIVER", StoreMemory),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "user"),
		DBPassword:  getEnv("DB_PASSWORD", "password"),
		DBName:      getEnv("DB_NAME", "assessment_db"),
		DBSslMode:   getEnv("DB_SSLMODE", "disable"),

		QueueDriver:            getEnv("QUEUE_DRIVER", QueueMemory),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		GradingQueueName:       getEnv("GRADING_QUEUE_NAME", "grading_jobs_queue"),
		QueueCapacity:          getEnvAsInt("QUEUE_CAPACITY", 1024),
		GradingWorkers:         getEnvAsInt("GRADING_WORKERS", 2),
		ProgressLockPrefix:     getEnv("PROGRESS_LOCK_PREFIX", "progress_lock:"),
		ProgressLockTTLSeconds: getEnvAsInt("PROGRESS_LOCK_TTL_SECONDS", 30),
		ProgressLockWaitMillis: getEnvAsInt("PROGRESS_LOCK_WAIT_MS", 10000),

		Executor:     getEnv("EXECUTOR", ExecutorSimulator),
		ExecMinDelay: time.Duration(getEnvAsInt("EXEC_MIN_DELAY_MS", 500)) * time.Millisecond,
		ExecMaxDelay: time.Duration(getEnvAsInt("EXEC_MAX_DELAY_MS", 1500)) * time.Millisecond,
		Judge0URL:    getEnv("JUDGE0_URL", "https://judge0-ce.p.rapidapi.com"),
		Judge0APIKey: getEnv("JUDGE0_API_KEY", ""),
		Judge0Host:   getEnv("JUDGE0_HOST", "judge0-ce.p.rapidapi.com"),

		QuestionsFile: getEnv("QUESTIONS_FILE", ""),
	}

	if len(cfg.JWTKey) == 0 && cfg.IsDevelopment() {
		cfg.JWTKey = []byte("development-secret")
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTKey) == 0 {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExp <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_HOURS must be positive"))
	}
	if c.SessionBudgetSeconds <= 0 {
		errs = append(errs, errors.New("SESSION_BUDGET_SECONDS must be positive"))
	}
	switch c.StoreDriver {
	case StoreMemory, StorePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	switch c.QueueDriver {
	case QueueMemory, QueueRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown QUEUE_DRIVER %q", c.QueueDriver))
	}
	switch c.Executor {
	case ExecutorSimulator, ExecutorJudge0:
	default:
		errs = append(errs, fmt.Errorf("unknown EXECUTOR %q", c.Executor))
	}
	if c.ExecMinDelay < 0 || c.ExecMinDelay > c.ExecMaxDelay {
		errs = append(errs, errors.New("EXEC_MIN_DELAY_MS must be between 0 and EXEC_MAX_DELAY_MS"))
	}
	if c.GradingWorkers < 1 {
		errs = append(errs, errors.New("GRADING_WORKERS must be at least 1"))
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, errors.New("QUEUE_CAPACITY must be at least 1"))
	}
	if c.ProgressLockTTLSeconds < 1 {
		errs = append(errs, errors.New("PROGRESS_LOCK_TTL_SECONDS must be at least 1"))
	}
	if c.ProgressLockWaitMillis < 1 {
		errs = append(errs, errors.New("PROGRESS_LOCK_WAIT_MS must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
