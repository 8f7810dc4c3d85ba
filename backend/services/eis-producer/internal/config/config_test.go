package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PRODUCER_INGEST_URL", "http://ingest:8085")
	t.Setenv("PRODUCER_DIR", "/exports")
	t.Setenv("PRODUCER_TIMEOUT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ingest.URL != "http://ingest:8085" || cfg.Source.Dir != "/exports" || cfg.Timeout() != 3*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBlankURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PRODUCER_INGEST_URL", " ")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
