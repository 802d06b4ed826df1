package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string   `yaml:"port"`
		AllowedOrigins  []string `yaml:"allowedOrigins"`
		ShutdownTimeout string   `yaml:"shutdownTimeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Content struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"content"`
	Session struct {
		Tick          string `yaml:"tick"`
		TTL           string `yaml:"ttl"`
		SubmitTimeout string `yaml:"submitTimeout"`
	} `yaml:"session"`
	Readers struct {
		StartingCredits int    `yaml:"startingCredits"`
		MaxDownloads    int    `yaml:"maxDownloads"`
		LinkTTL         string `yaml:"linkTTL"`
		DownloadBaseURL string `yaml:"downloadBaseURL"`
	} `yaml:"readers"`
	RabbitMQ struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"rabbitmq"`
	Challenge struct {
		CacheTTL string `yaml:"cacheTTL"`
	} `yaml:"challenge"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Load reads YAML config from path. A missing file yields the zero config so
// the service can run on flags and environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
