package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Invoicer"`
		Port      int    `envconfig:"PORT" default:"8080"`
		Env       string `envconfig:"APP_ENV" default:"production"`
		PublicURL string `envconfig:"APP_PUBLIC_URL" default:"http://localhost:3000"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"invoicer"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	JWT struct {
		Secret     string        `envconfig:"JWT_SECRET"`
		Issuer     string        `envconfig:"JWT_ISSUER" default:"invoicer-api"`
		Audience   string        `envconfig:"JWT_AUDIENCE" default:"invoicer-client"`
		AccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
		RefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`
		ResetTTL   time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"24h"`
	}

	Google struct {
		ClientID string `envconfig:"GOOGLE_CLIENT_ID"`
	}

	AWS struct {
		Region   string `envconfig:"AWS_REGION" default:"us-east-1"`
		Bucket   string `envconfig:"AWS_BUCKET"`
		MailFrom string `envconfig:"AWS_SES_FROM"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.App.Env) {
	case "development", "dev", "local":
		return true
	}

	return false
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
