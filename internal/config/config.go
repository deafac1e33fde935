package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	Addr      string
	PublicURL *url.URL
	DBDSN     string
	LogLevel  string

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPTLSMode    string
	EmailFromName  string
	EmailFromEmail string

	FCMProjectID   string
	FCMCredentials string

	ShutdownTimeout time.Duration
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV"),
		Addr:           getenv("APP_ADDR"),
		DBDSN:          getenv("APP_DB_DSN"),
		LogLevel:       getenv("APP_LOG_LEVEL"),
		SMTPHost:       getenv("APP_SMTP_HOST"),
		SMTPUsername:   getenv("APP_SMTP_USERNAME"),
		SMTPPassword:   getenv("APP_SMTP_PASSWORD"),
		SMTPTLSMode:    getenv("APP_SMTP_TLS_MODE"),
		EmailFromName:  getenv("APP_EMAIL_FROM_NAME"),
		EmailFromEmail: getenv("APP_EMAIL_FROM_EMAIL"),
		FCMProjectID:   getenv("APP_FCM_PROJECT_ID"),
		FCMCredentials: getenv("APP_FCM_CREDENTIALS"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Penalty Shootout"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	portRaw := getenv("APP_SMTP_PORT")
	if portRaw == "" {
		cfg.SMTPPort = 587
	} else {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, errors.New("APP_SMTP_PORT: must be a valid port")
		}
		cfg.SMTPPort = port
	}

	shutdownRaw := getenv("APP_SHUTDOWN_TIMEOUT")
	if shutdownRaw == "" {
		cfg.ShutdownTimeout = 10 * time.Second
	} else {
		d, err := time.ParseDuration(shutdownRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_SHUTDOWN_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return Config{}, errors.New("APP_SHUTDOWN_TIMEOUT: must be > 0")
		}
		cfg.ShutdownTimeout = d
	}

	if cfg.SMTPHost != "" && strings.TrimSpace(cfg.EmailFromEmail) == "" {
		return Config{}, errors.New("APP_EMAIL_FROM_EMAIL: required when APP_SMTP_HOST is set")
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) EmailEnabled() bool { return c.SMTPHost != "" }

func (c Config) PushEnabled() bool { return c.FCMCredentials != "" }
