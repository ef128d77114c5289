package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration, read from the environment
type Config struct {
	HTTPPort  string
	RedisAddr string
	JWTSecret string

	// Survey/QA backend collaborator
	BackendBaseURL string
	BackendTimeout time.Duration

	// User-profile collaborator
	ProfileBaseURL string
	ProfileTimeout time.Duration

	// Mode machine timings
	IdleCountdown  time.Duration // QA inactivity before the switch popup
	PopupCountdown time.Duration // popup lifetime before the automatic switch
}

// Load reads configuration from the environment with defaults
func Load() *Config {
	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		BackendBaseURL: getEnv("SURVEY_BACKEND_URL", "http://localhost:9000"),
		BackendTimeout: getMillis("SURVEY_BACKEND_TIMEOUT_MS", 10000),
		ProfileBaseURL: getEnv("PROFILE_SERVICE_URL", "http://localhost:9100"),
		ProfileTimeout: getMillis("PROFILE_SERVICE_TIMEOUT_MS", 5000),
		IdleCountdown:  getSeconds("QA_IDLE_COUNTDOWN_S", 10),
		PopupCountdown: getSeconds("QA_POPUP_COUNTDOWN_S", 5),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getMillis(key string, defaultMS int) time.Duration {
	return time.Duration(getInt(key, defaultMS)) * time.Millisecond
}

func getSeconds(key string, defaultS int) time.Duration {
	return time.Duration(getInt(key, defaultS)) * time.Second
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}
