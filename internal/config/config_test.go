package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.CheckinRadiusMeters != 1100 {
		t.Errorf("radius = %f, want 1100", cfg.CheckinRadiusMeters)
	}
	if cfg.VoucherTTL != 168*time.Hour {
		t.Errorf("voucher ttl = %v, want 168h", cfg.VoucherTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PERKHIVE_PORT", "9999")
	t.Setenv("PERKHIVE_CHECKIN_RADIUS_M", "250")
	t.Setenv("PERKHIVE_VOUCHER_TTL", "24h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("port = %q, want 9999", cfg.Port)
	}
	if cfg.CheckinRadiusMeters != 250 {
		t.Errorf("radius = %f, want 250", cfg.CheckinRadiusMeters)
	}
	if cfg.VoucherTTL != 24*time.Hour {
		t.Errorf("voucher ttl = %v, want 24h", cfg.VoucherTTL)
	}
}

func TestLoadInvalidRadius(t *testing.T) {
	t.Setenv("PERKHIVE_CHECKIN_RADIUS_M", "about a mile")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid radius")
	}
}
