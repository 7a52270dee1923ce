// Package config loads tasky configuration from a yaml file and
// TASKY_-prefixed environment variables, env winning on conflict.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
	Auth   AuthConfig   `mapstructure:"auth"`
	AI     AIConfig     `mapstructure:"ai"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr" validate:"required"`
	DatabasePath string `mapstructure:"database_path" validate:"required"`
	LogLevel     string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

type ClientConfig struct {
	ServerURL       string        `mapstructure:"server_url" validate:"required,url"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens; the server refuses to start
	// without one.
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"min=1m"`
}

type AIConfig struct {
	// GeminiAPIKey enables model-backed task extraction; when empty the
	// server falls back to the line-based heuristic.
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8484",
			DatabasePath: "tasky.db",
			LogLevel:     "info",
		},
		Client: ClientConfig{
			ServerURL:       "http://localhost:8484",
			RefreshInterval: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		AI: AIConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// Load reads tasky.yaml from the working directory or ~/.tasky, then
// applies TASKY_* environment overrides (TASKY_SERVER_ADDR and so on).
// A missing config file is fine; defaults plus env must still validate.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("tasky")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.tasky")

	setDefaults(v)

	v.SetEnvPrefix("TASKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.database_path", def.Server.DatabasePath)
	v.SetDefault("server.log_level", def.Server.LogLevel)
	v.SetDefault("client.server_url", def.Client.ServerURL)
	v.SetDefault("client.refresh_interval", def.Client.RefreshInterval)
	v.SetDefault("auth.token_ttl", def.Auth.TokenTTL)
	v.SetDefault("ai.model", def.AI.Model)
	// Registered so AutomaticEnv picks the keys up even with no file.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("ai.gemini_api_key", "")
}
