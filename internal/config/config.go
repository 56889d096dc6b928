package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"factionbot/internal/common"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "factionbot.config"

// WithContext stores the config in the context
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext returns the config stored in the context, nil if there is none
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(configContextKey).(*Config)
	return cfg
}

const envPrefix = "factionbot"

type Config struct {
	Token           string        `yaml:"token"`
	GuildID         string        `yaml:"guildId"         envconfig:"GUILD_ID"`
	DatabasePath    string        `yaml:"databasePath"    split_words:"true"`
	LogLevel        string        `yaml:"logLevel"        split_words:"true"`
	MetricsAddr     string        `yaml:"metricsAddr"     split_words:"true"`
	DmTimeout       time.Duration `yaml:"dmTimeout"       split_words:"true"`
	DmConcurrency   int           `yaml:"dmConcurrency"   split_words:"true"`
	ResetInterval   time.Duration `yaml:"resetInterval"   split_words:"true"`
	MainCycle       time.Duration `yaml:"mainCycle"       split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
	// Pacing windows of the direct messages, only from the config file
	DmRestrictions []common.Restriction `yaml:"dmRestrictions" ignored:"true"`
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    "database.db",
		LogLevel:        "info",
		DmTimeout:       10 * time.Second,
		DmConcurrency:   1,
		MainCycle:       time.Minute,
		ShutdownTimeout: 30 * time.Second,
		DmRestrictions:  []common.Restriction{{Requests: 5, Duration: 5 * time.Second}},
	}
}

// LoadConfig builds the config from the defaults, then the optional
// config file, then the environment. A .env file in the working
// directory is loaded into the environment first
func LoadConfig(configFile string) (*Config, error) {

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	cfg := defaultConfig()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Plain TOKEN is accepted for compatibility with existing .env files
	if cfg.Token == "" {
		cfg.Token = os.Getenv("TOKEN")
	}

	if cfg.DmConcurrency < 1 {
		return nil, fmt.Errorf("invalid dmConcurrency %d: must be at least 1", cfg.DmConcurrency)
	}
	if cfg.MainCycle <= 0 {
		return nil, fmt.Errorf("invalid mainCycle %s: must be positive", cfg.MainCycle)
	}
	return cfg, nil
}

// Validate checks what is needed to connect to the platform
func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("no token configured")
	}
	if c.GuildID == "" {
		return errors.New("no guildId configured")
	}
	return nil
}
