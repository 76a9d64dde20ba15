package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Addr string
}

type DatabaseConfig struct {
	DSN string
}

type StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}

type AuthConfig struct {
	AdminEmail    string
	SessionSecret string
	GoogleKey     string
	GoogleSecret  string
	CallbackURL   string
}

func Load() (*Config, error) {
	viper.SetDefault("SERVER_ADDR", ":3000")
	viper.SetDefault("BUCKET_NAME", "gallery")
	viper.SetDefault("AUTH_CALLBACK_URL", "http://localhost:3000/auth/google/callback")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr: viper.GetString("SERVER_ADDR"),
		},
		Database: DatabaseConfig{
			DSN: viper.GetString("DSN"),
		},
		Storage: StorageConfig{
			AccountID:       viper.GetString("ACCOUNT_ID"),
			AccessKeyID:     viper.GetString("ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("ACCESS_KEY_SECRET"),
			Bucket:          viper.GetString("BUCKET_NAME"),
			PublicBaseURL:   viper.GetString("PUBLIC_URL"),
		},
		Auth: AuthConfig{
			AdminEmail:    viper.GetString("ADMIN_EMAIL"),
			SessionSecret: viper.GetString("SESSION_SECRET"),
			GoogleKey:     viper.GetString("GOOGLE_KEY"),
			GoogleSecret:  viper.GetString("GOOGLE_SECRET"),
			CallbackURL:   viper.GetString("AUTH_CALLBACK_URL"),
		},
	}

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("DSN is required")
	}
	if cfg.Auth.AdminEmail == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL is required")
	}

	return cfg, nil
}
