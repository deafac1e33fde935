package config

import (
	"testing"
	"time"
)

func getenvFrom(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(getenvFrom(map[string]string{}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("Env = %q, want dev", cfg.Env)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("ShutdownTimeout = %s", cfg.ShutdownTimeout)
	}
	if cfg.IsProd() || cfg.EmailEnabled() || cfg.PushEnabled() {
		t.Fatal("nothing should be enabled by default")
	}
}

func TestLoadRejectsUnknownEnv(t *testing.T) {
	_, err := LoadFromEnv(getenvFrom(map[string]string{"APP_ENV": "staging"}))
	if err == nil {
		t.Fatal("expected error for unknown APP_ENV")
	}
}

func TestLoadProdRequiresDBAndPublicURL(t *testing.T) {
	_, err := LoadFromEnv(getenvFrom(map[string]string{"APP_ENV": "prod"}))
	if err == nil {
		t.Fatal("expected error without APP_DB_DSN in prod")
	}

	_, err = LoadFromEnv(getenvFrom(map[string]string{
		"APP_ENV":    "prod",
		"APP_DB_DSN": "postgres://localhost/shootout",
	}))
	if err == nil {
		t.Fatal("expected error without APP_PUBLIC_URL in prod")
	}

	cfg, err := LoadFromEnv(getenvFrom(map[string]string{
		"APP_ENV":        "prod",
		"APP_DB_DSN":     "postgres://localhost/shootout",
		"APP_PUBLIC_URL": "https://shootout.example.com",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if !cfg.IsProd() {
		t.Fatal("IsProd must be true")
	}
	if cfg.PublicURL == nil || cfg.PublicURL.Host != "shootout.example.com" {
		t.Fatalf("PublicURL = %v", cfg.PublicURL)
	}
}

func TestLoadRejectsRelativePublicURL(t *testing.T) {
	_, err := LoadFromEnv(getenvFrom(map[string]string{"APP_PUBLIC_URL": "/match"}))
	if err == nil {
		t.Fatal("expected error for relative APP_PUBLIC_URL")
	}
}

func TestLoadRejectsBadSMTPPort(t *testing.T) {
	_, err := LoadFromEnv(getenvFrom(map[string]string{"APP_SMTP_PORT": "smtp"}))
	if err == nil {
		t.Fatal("expected error for non-numeric APP_SMTP_PORT")
	}
	_, err = LoadFromEnv(getenvFrom(map[string]string{"APP_SMTP_PORT": "70000"}))
	if err == nil {
		t.Fatal("expected error for out-of-range APP_SMTP_PORT")
	}
}

func TestLoadSMTPRequiresFromEmail(t *testing.T) {
	_, err := LoadFromEnv(getenvFrom(map[string]string{"APP_SMTP_HOST": "smtp.example.com"}))
	if err == nil {
		t.Fatal("expected error when APP_SMTP_HOST is set without a from address")
	}

	cfg, err := LoadFromEnv(getenvFrom(map[string]string{
		"APP_SMTP_HOST":        "smtp.example.com",
		"APP_EMAIL_FROM_EMAIL": "noreply@example.com",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if !cfg.EmailEnabled() {
		t.Fatal("EmailEnabled must be true")
	}
}

func TestLoadShutdownTimeout(t *testing.T) {
	cfg, err := LoadFromEnv(getenvFrom(map[string]string{"APP_SHUTDOWN_TIMEOUT": "30s"}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("ShutdownTimeout = %s, want 30s", cfg.ShutdownTimeout)
	}

	if _, err := LoadFromEnv(getenvFrom(map[string]string{"APP_SHUTDOWN_TIMEOUT": "-1s"})); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}
