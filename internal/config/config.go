package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type FetcherConfig struct {
	UserAgent string `yaml:"userAgent"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// ScraperConfig tunes the scrape loop. RequestIntervalMs is the minimum
// time between page fetches; PageloadDelayMs is slept after each fetch
// before extraction starts.
type ScraperConfig struct {
	RequestIntervalMs int `yaml:"requestIntervalMs"`
	PageloadDelayMs   int `yaml:"pageloadDelayMs"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	DefaultPerMinute int `yaml:"defaultPerMinute"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Fetcher.TimeoutMs == 0 {
		cfg.Fetcher.TimeoutMs = 30000
	}
	if cfg.Scraper.RequestIntervalMs == 0 {
		cfg.Scraper.RequestIntervalMs = 2000
	}
}
