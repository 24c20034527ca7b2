// Package config loads HTTP server settings from innerlog.env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/julianstephens/innerlog/internal/constants"
)

type Config struct {
	Port              string `mapstructure:"PORT"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	GeminiAPIKey      string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel       string `mapstructure:"GEMINI_MODEL"`
	FeedbackRateLimit int    `mapstructure:"FEEDBACK_RATE_LIMIT"`
}

var envKeys = []string{
	"PORT",
	"ALLOWED_ORIGINS",
	"JWT_SECRET",
	"REDIS_ADDR",
	"GEMINI_API_KEY",
	"GEMINI_MODEL",
	"FEEDBACK_RATE_LIMIT",
}

// LoadConfig reads <path>/innerlog.env if present; environment variables
// take precedence over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(constants.AppName)
	v.SetConfigType("env")

	v.SetDefault("PORT", constants.DefaultPort)
	v.SetDefault("GEMINI_MODEL", constants.DefaultGeminiModel)
	v.SetDefault("FEEDBACK_RATE_LIMIT", constants.DefaultFeedbackRateLimit)

	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode server config: %w", err)
	}
	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the settings required to serve
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	if c.FeedbackRateLimit < 0 {
		return fmt.Errorf("FEEDBACK_RATE_LIMIT must be non-negative, got %d", c.FeedbackRateLimit)
	}
	return nil
}
