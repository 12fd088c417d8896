package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "centace")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "centace")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPort != "3306" {
		t.Fatalf("unexpected defaults: port=%s dbPort=%s", cfg.Port, cfg.DBPort)
	}
	if cfg.SMTP.Enabled() {
		t.Fatalf("smtp should be disabled without SMTP_HOST")
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseTLS {
		t.Fatalf("unexpected smtp defaults: %+v", cfg.SMTP)
	}
	if cfg.LiveConnectTimeout != 10*time.Second {
		t.Fatalf("live connect timeout=%v", cfg.LiveConnectTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("ADMIN_UIDS", "a1,a2")
	t.Setenv("LIVE_CONNECT_TIMEOUT", "3s")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.SMTP.Enabled() || cfg.SMTP.Port != 2525 {
		t.Fatalf("smtp=%+v", cfg.SMTP)
	}
	if len(cfg.AdminUIDs) != 2 || cfg.AdminUIDs[1] != "a2" {
		t.Fatalf("admin uids=%v", cfg.AdminUIDs)
	}
	if cfg.LiveConnectTimeout != 3*time.Second {
		t.Fatalf("live connect timeout=%v", cfg.LiveConnectTimeout)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	// t.Setenv restores the original value after the test.
	os.Unsetenv("DB_NAME")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing required vars")
	}
}
