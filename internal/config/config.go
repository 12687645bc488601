package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Sources struct {
		Scout struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
		} `yaml:"scout"`
		SpeedyApply struct {
			Enabled bool   `yaml:"enabled"`
			URL     string `yaml:"url"`
			JobType string `yaml:"job_type"`
		} `yaml:"speedyapply"`
	} `yaml:"sources"`

	Fetch struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		CacheSeconds   int     `yaml:"cache_seconds"`
		RatePerSec     float64 `yaml:"rate_per_sec"`
		RateBurst      int     `yaml:"rate_burst"`
	} `yaml:"fetch"`

	Alerts struct {
		Enabled            bool `yaml:"enabled"`
		IntervalSeconds    int  `yaml:"interval_seconds"`
		SendTimeoutSeconds int  `yaml:"send_timeout_seconds"`
		Parallelism        int  `yaml:"parallelism"`
	} `yaml:"alerts"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
