package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Goodreads GoodreadsConfig
	Analysis  AnalysisConfig
	Cache     CacheConfig
	Logging   LoggingConfig
}

type GoodreadsConfig struct {
	BaseURL         string
	UserAgent       string
	MinDelay        time.Duration
	MaxDelay        time.Duration
	MaxRetries      int
	Timeout         time.Duration
	MinReviewLength int
	MaxReviews      int
}

type AnalysisConfig struct {
	MinReviews          int
	ConfidenceThreshold float64
	MinWordFrequency    int
	MaxMoodCategories   int
	SentimentWeight     float64
	KeywordWeight       float64
	// VibeSelection picks the vibe-line strategy: "random" varies output
	// across runs, "deterministic" always takes the first candidate.
	VibeSelection string
}

type CacheConfig struct {
	Backend  string // file, redis, postgres, memory
	FilePath string
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type LoggingConfig struct {
	Level string
	File  string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Goodreads: GoodreadsConfig{
			BaseURL:         getEnv("GOODREADS_BASE_URL", "https://www.goodreads.com"),
			UserAgent:       getEnv("GOODREADS_USER_AGENT", defaultUserAgent),
			MinDelay:        getEnvDuration("GOODREADS_MIN_DELAY", 2*time.Second),
			MaxDelay:        getEnvDuration("GOODREADS_MAX_DELAY", 5*time.Second),
			MaxRetries:      getEnvInt("GOODREADS_MAX_RETRIES", 3),
			Timeout:         getEnvDuration("GOODREADS_TIMEOUT", 30*time.Second),
			MinReviewLength: getEnvInt("MIN_REVIEW_LENGTH", 50),
			MaxReviews:      getEnvInt("MAX_REVIEWS", 15),
		},
		Analysis: AnalysisConfig{
			MinReviews:          getEnvInt("MIN_REVIEWS_FOR_ANALYSIS", 3),
			ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 0.1),
			MinWordFrequency:    getEnvInt("MIN_WORD_FREQUENCY", 2),
			MaxMoodCategories:   getEnvInt("MAX_MOOD_CATEGORIES", 5),
			SentimentWeight:     getEnvFloat("SENTIMENT_WEIGHT", 0.7),
			KeywordWeight:       getEnvFloat("KEYWORD_WEIGHT", 0.3),
			VibeSelection:       getEnv("VIBE_SELECTION", "random"),
		},
		Cache: CacheConfig{
			Backend:  getEnv("CACHE_BACKEND", "file"),
			FilePath: getEnv("CACHE_FILE", "data/mood_cache.json"),
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnvInt("REDIS_PORT", 6379),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvInt("REDIS_DB", 0),
			},
			Postgres: PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", "localhost"),
				Port:     getEnvInt("POSTGRES_PORT", 5432),
				User:     getEnv("POSTGRES_USER", "bookmood"),
				Password: getEnv("POSTGRES_PASSWORD", ""),
				Database: getEnv("POSTGRES_DB", "bookmood"),
			},
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Goodreads.BaseURL == "" {
		return fmt.Errorf("GOODREADS_BASE_URL is required")
	}
	if c.Goodreads.MinDelay > c.Goodreads.MaxDelay {
		return fmt.Errorf("GOODREADS_MIN_DELAY must not exceed GOODREADS_MAX_DELAY")
	}
	if c.Goodreads.MaxRetries < 0 {
		return fmt.Errorf("GOODREADS_MAX_RETRIES must not be negative")
	}
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1]")
	}
	switch c.Analysis.VibeSelection {
	case "random", "deterministic":
	default:
		return fmt.Errorf("VIBE_SELECTION must be 'random' or 'deterministic'")
	}
	switch c.Cache.Backend {
	case "file", "redis", "postgres", "memory":
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of file, redis, postgres, memory")
	}
	if c.Cache.Backend == "file" && c.Cache.FilePath == "" {
		return fmt.Errorf("CACHE_FILE is required for the file backend")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts either a Go duration string ("2s", "500ms") or a
// bare number of seconds, matching the older configuration format.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
