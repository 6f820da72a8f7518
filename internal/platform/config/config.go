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
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	AdminUsername string
	AdminPassword string

	LogLevel       string
	LogDevelopment bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CodeforcesBaseURL           string
	CodeforcesAPIKey            string
	CodeforcesAPISecret         string
	CodeforcesMaxAttempts       int
	CodeforcesBaseDelay         time.Duration
	CodeforcesTimeout           time.Duration
	CodeforcesRequestsPerSecond float64
	SubmissionsCount            int

	CacheTTL       time.Duration
	LocalCacheTTL  time.Duration
	CacheKeyPrefix string

	RefreshQueueName      string
	RefreshLockPrefix     string
	RefreshLockTTLSeconds int
	WorkerEnabled         bool

	PollEnabled        bool
	PollInterval       time.Duration
	PollConcurrency    int
	TrackedHandles     []string
	TrackedHandlesFile string

	RateLimitRPS   float64
	RateLimitBurst int

	// Standalone worker only; the API server exposes /metrics on APIPort.
	MetricsPort string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		JWTKey:         []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		AdminUsername:  getEnv("ADMIN_USERNAME", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvAsBool("LOG_DEVELOPMENT", false),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "cfstats"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		CodeforcesBaseURL:           getEnv("CODEFORCES_BASE_URL", "https://codeforces.com/api"),
		CodeforcesAPIKey:            getEnv("CODEFORCES_API_KEY", ""),
		CodeforcesAPISecret:         getEnv("CODEFORCES_API_SECRET", ""),
		CodeforcesMaxAttempts:       getEnvAsInt("CODEFORCES_MAX_ATTEMPTS", 3),
		CodeforcesBaseDelay:         getEnvAsDuration("CODEFORCES_BASE_DELAY", time.Second),
		CodeforcesTimeout:           getEnvAsDuration("CODEFORCES_TIMEOUT", 15*time.Second),
		CodeforcesRequestsPerSecond: getEnvAsFloat("CODEFORCES_REQUESTS_PER_SECOND", 0.5),
		SubmissionsCount:            getEnvAsInt("CODEFORCES_SUBMISSIONS_COUNT", 100),

		CacheTTL:       getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		LocalCacheTTL:  getEnvAsDuration("LOCAL_CACHE_TTL", 30*time.Second),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", "cfstats:snapshot:"),

		RefreshQueueName:      getEnv("REFRESH_QUEUE_NAME", "cfstats:refresh_jobs"),
		RefreshLockPrefix:     getEnv("REFRESH_LOCK_PREFIX", "cfstats:refresh_lock:"),
		RefreshLockTTLSeconds: getEnvAsInt("REFRESH_LOCK_TTL_SECONDS", 120),
		WorkerEnabled:         getEnvAsBool("WORKER_ENABLED", true),

		PollEnabled:        getEnvAsBool("POLL_ENABLED", true),
		PollInterval:       getEnvAsDuration("POLL_INTERVAL", 30*time.Minute),
		PollConcurrency:    getEnvAsInt("POLL_CONCURRENCY", 2),
		TrackedHandles:     getEnvAsList("TRACKED_HANDLES", nil),
		TrackedHandlesFile: getEnv("TRACKED_HANDLES_FILE", ""),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 30),

		MetricsPort: getEnv("METRICS_PORT", "9091"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// upstream calls made by one refresh: user.info twice, user.rating, user.status
const refreshCalls = 4

// RefreshLockTTL is the lifetime of a per-handle refresh lock. It never drops
// below WorstCaseRefresh, so a lock cannot expire under a paced refresh.
func (c *Config) RefreshLockTTL() time.Duration {
	ttl := time.Duration(c.RefreshLockTTLSeconds) * time.Second
	return max(ttl, c.WorstCaseRefresh())
}

// WorstCaseRefresh bounds one refresh when every call exhausts its attempts
// and waits behind the other concurrent pipelines on the outbound limiter.
func (c *Config) WorstCaseRefresh() time.Duration {
	attempts := max(c.CodeforcesMaxAttempts, 1)
	perCall := c.CodeforcesTimeout
	if c.CodeforcesRequestsPerSecond > 0 {
		pace := time.Duration(float64(time.Second) / c.CodeforcesRequestsPerSecond)
		// this pipeline's own call plus one from every other poller slot,
		// plus one interactive request
		perCall += pace * time.Duration(max(c.PollConcurrency, 1)+1)
	}
	// linear backoff: BaseDelay * (1 + 2 + ... + attempts-1)
	backoff := c.CodeforcesBaseDelay * time.Duration(attempts*(attempts-1)/2)
	return refreshCalls * (time.Duration(attempts)*perCall + backoff)
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

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
