// Package config loads runtime settings from the environment and the
// built-in source list from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feedhound/marketnews/internal/aggregate"
)

type Config struct {
	// Push settings
	PushEndpoint string

	// Gemini settings
	GeminiAPIKey         string
	MaxSentimentRequests int // per day, 0 = unlimited

	// Aggregation settings
	SourcesConfigPath   string
	MaxArticles         int
	SimilarityThreshold float64
	FeedMaxItems        int

	// Storage settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Schedule settings
	CronSpec string

	// App settings
	Debug          bool
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SourcesConfigPath:    "configs/sources.yaml",
		MaxArticles:          50,
		SimilarityThreshold:  0.7,
		FeedMaxItems:         15,
		MaxSentimentRequests: 100,
		CronSpec:             "0 */2 * * *",
		RequestTimeout:       30 * time.Second,
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.PushEndpoint = os.Getenv("PUSH_ENDPOINT")

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntOrDefault("REDIS_DB", 0)

	if spec := os.Getenv("CRON_SPEC"); spec != "" {
		cfg.CronSpec = spec
	}

	if v := os.Getenv("MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxArticles = val
		}
	}

	if v := os.Getenv("FEED_MAX_ITEMS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.FeedMaxItems = val
		}
	}

	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 && val < 1 {
			cfg.SimilarityThreshold = val
		}
	}

	if v := os.Getenv("MAX_SENTIMENT_REQUESTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.MaxSentimentRequests = val
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be between 0 and 1")
	}
	if c.MaxArticles <= 0 {
		return fmt.Errorf("MAX_ARTICLES must be positive")
	}
	return nil
}

// SourcesConfig is the YAML layout of the built-in source list:
//
//	sources:
//	  - url: https://...
//	    name: ...
//	    category: commodities
//	    keywords: [oil, opec]
type SourcesConfig struct {
	Sources []aggregate.Source `yaml:"sources"`
}

// LoadSources reads the built-in source list. Sources default to active.
func LoadSources(path string) ([]aggregate.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	for i := range cfg.Sources {
		cfg.Sources[i].Active = true
	}
	return cfg.Sources, nil
}
