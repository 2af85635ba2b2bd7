package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE", "DB_HOST", "INDEX_CACHE_TTL", "MEDIA_ROOT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != ":8000" {
		t.Errorf("Port = %q, want :8000", cfg.Port)
	}
	if cfg.Database != "yatube.db" {
		t.Errorf("Database = %q", cfg.Database)
	}
	if cfg.IndexCacheTTL != time.Second {
		t.Errorf("IndexCacheTTL = %v, want 1s", cfg.IndexCacheTTL)
	}
	if cfg.MediaRoot != "media" {
		t.Errorf("MediaRoot = %q", cfg.MediaRoot)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INDEX_CACHE_TTL", "20s")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "yatube")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != ":9090" {
		t.Errorf("Port = %q, want :9090", cfg.Port)
	}
	if cfg.IndexCacheTTL != 20*time.Second {
		t.Errorf("IndexCacheTTL = %v", cfg.IndexCacheTTL)
	}
	want := "host=db.internal port=5432 user= password= dbname=yatube sslmode=require"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("PostgresDSN = %q, want %q", got, want)
	}
}

func TestLoadBadTTL(t *testing.T) {
	t.Setenv("INDEX_CACHE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unparsable INDEX_CACHE_TTL")
	}
}
