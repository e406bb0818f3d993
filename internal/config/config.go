package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	// Postgres holds the relationship graph.
	Postgres struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"postgres"`

	// MySQL holds assessment history and the failure audit log. Optional.
	MySQL struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"mysql"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	OpenSanctions struct {
		BaseURL string `yaml:"baseURL"`
		APIKey  string `yaml:"apiKey"`
	} `yaml:"openSanctions"`

	Risk RiskConfig `yaml:"risk"`

	Modes struct {
		Default string      `yaml:"default"`
		Normal  ModeProfile `yaml:"normal"`
		Fast    ModeProfile `yaml:"fast"`
	} `yaml:"modes"`
}

// RiskConfig is the scoring knob set. Zero values fall back to defaults so a
// partial config file still scores sensibly.
type RiskConfig struct {
	Weights struct {
		Sanctions float64 `yaml:"sanctions"`
		WebIntel  float64 `yaml:"webIntel"`
		Graph     float64 `yaml:"graph"`
	} `yaml:"weights"`

	EscalatedWeights struct {
		Sanctions float64 `yaml:"sanctions"`
		WebIntel  float64 `yaml:"webIntel"`
		Graph     float64 `yaml:"graph"`
	} `yaml:"escalatedWeights"`

	// EscalateAt is the sanctions sub-score that switches to escalated weights.
	EscalateAt float64 `yaml:"escalateAt"`

	Thresholds struct {
		High   int `yaml:"high"`
		Medium int `yaml:"medium"`
	} `yaml:"thresholds"`

	Floors struct {
		CriticalConfidence float64 `yaml:"criticalConfidence"`
		CriticalScore      int     `yaml:"criticalScore"`
		SevereConfidence   float64 `yaml:"severeConfidence"`
		SevereScore        int     `yaml:"severeScore"`
	} `yaml:"floors"`
}

// ModeProfile controls gathering behaviour per mode.
type ModeProfile struct {
	GatherTimeout time.Duration `yaml:"gatherTimeout"`
	SourceRetries int           `yaml:"sourceRetries"`
	RetryBackoff  time.Duration `yaml:"retryBackoff"`
	CacheTTL      time.Duration `yaml:"cacheTTL"`
}

// Defaults returns a config with every tunable at its default value.
func Defaults() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	r := &c.Risk
	if r.Weights.Sanctions == 0 && r.Weights.WebIntel == 0 && r.Weights.Graph == 0 {
		r.Weights.Sanctions = 0.5
		r.Weights.WebIntel = 0.3
		r.Weights.Graph = 0.2
	}
	if r.EscalatedWeights.Sanctions == 0 && r.EscalatedWeights.WebIntel == 0 && r.EscalatedWeights.Graph == 0 {
		r.EscalatedWeights.Sanctions = 0.7
		r.EscalatedWeights.WebIntel = 0.2
		r.EscalatedWeights.Graph = 0.1
	}
	if r.EscalateAt == 0 {
		r.EscalateAt = 80
	}
	if r.Thresholds.High == 0 {
		r.Thresholds.High = 70
	}
	if r.Thresholds.Medium == 0 {
		r.Thresholds.Medium = 40
	}
	if r.Floors.CriticalConfidence == 0 {
		r.Floors.CriticalConfidence = 0.90
	}
	if r.Floors.CriticalScore == 0 {
		r.Floors.CriticalScore = 80
	}
	if r.Floors.SevereConfidence == 0 {
		r.Floors.SevereConfidence = 0.85
	}
	if r.Floors.SevereScore == 0 {
		r.Floors.SevereScore = 70
	}

	if c.Modes.Default == "" {
		c.Modes.Default = "normal"
	}
	if c.Modes.Normal.GatherTimeout == 0 {
		c.Modes.Normal.GatherTimeout = 30 * time.Second
	}
	if c.Modes.Normal.SourceRetries == 0 {
		c.Modes.Normal.SourceRetries = 2
	}
	if c.Modes.Normal.RetryBackoff == 0 {
		c.Modes.Normal.RetryBackoff = 500 * time.Millisecond
	}
	if c.Modes.Normal.CacheTTL == 0 {
		c.Modes.Normal.CacheTTL = time.Hour
	}
	if c.Modes.Fast.GatherTimeout == 0 {
		c.Modes.Fast.GatherTimeout = 8 * time.Second
	}
	if c.Modes.Fast.SourceRetries == 0 {
		c.Modes.Fast.SourceRetries = 1
	}
	if c.Modes.Fast.RetryBackoff == 0 {
		c.Modes.Fast.RetryBackoff = 200 * time.Millisecond
	}
	if c.Modes.Fast.CacheTTL == 0 {
		c.Modes.Fast.CacheTTL = 10 * time.Minute
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.OpenSanctions.BaseURL == "" {
		c.OpenSanctions.BaseURL = "https://api.opensanctions.org"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.MySQL.User,
		c.MySQL.Password,
		c.MySQL.Host,
		c.MySQL.Port,
		c.MySQL.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Name,
		c.Postgres.SSLMode,
	)
}
