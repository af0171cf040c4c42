package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	ProblemsSource string // "dir" or "postgres"
	ProblemsDir    string

	LeaderboardBackend string // "file", "postgres" or "redis"
	LeaderboardFile    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	SandboxCommand       string
	SandboxSourceSuffix  string
	SandboxEntrypoint    string
	SandboxTimeout       time.Duration
	SandboxOutputLimitKb int

	GradeParallelism int
	CompareMode      string
	MetricsEnabled   bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		ProblemsSource: getEnv("PROBLEMS_SOURCE", "dir"),
		ProblemsDir:    getEnv("PROBLEMS_DIR", "test_cases"),

		LeaderboardBackend: getEnv("LEADERBOARD_BACKEND", "file"),
		LeaderboardFile:    getEnv("LEADERBOARD_FILE", "leaderboard.json"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "challenge_grader"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "grader"),

		SandboxCommand:       getEnv("SANDBOX_COMMAND", "python3 -u"),
		SandboxSourceSuffix:  getEnv("SANDBOX_SOURCE_SUFFIX", ".py"),
		SandboxEntrypoint:    getEnv("SANDBOX_ENTRYPOINT", "solve"),
		SandboxTimeout:       time.Duration(getEnvAsInt("SANDBOX_TIMEOUT_SECONDS", 5)) * time.Second,
		SandboxOutputLimitKb: getEnvAsInt("SANDBOX_OUTPUT_LIMIT_KB", 16*1024),

		GradeParallelism: getEnvAsInt("GRADE_PARALLELISM", 1),
		CompareMode:      getEnv("COMPARE_MODE", "trailing-newline"),
		MetricsEnabled:   getEnvAsBool("METRICS_ENABLED", true),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
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

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
