package homechain

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("homechain", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8090 {
		t.Fatalf("expected default port 8090, got %d", cfg.Port)
	}
	if cfg.ListenAddr() != ":8090" {
		t.Fatalf("listen addr = %q, want :8090", cfg.ListenAddr())
	}
	if cfg.DBPath != "data/homechain.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.RateLimitRPS != 30 || cfg.RateLimitBurst != 60 {
		t.Fatalf("rate limit = %v/%d, want 30/60", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.AMQP.Exchange != "homechain.events" {
		t.Fatalf("exchange = %q, want homechain.events", cfg.AMQP.Exchange)
	}
	if cfg.Outbox.Interval != 5*time.Second {
		t.Fatalf("outbox interval = %v, want 5s", cfg.Outbox.Interval)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("HOMECHAIN_OUTBOX_INTERVAL", "250ms")
	t.Setenv("HOMECHAIN_AMQP_EXCHANGE", "registry")
	fs := flag.NewFlagSet("homechain", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9001", "-addr", "127.0.0.1:9999", "-amqp-url", "amqp://localhost/"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", cfg.Port)
	}
	if cfg.ListenAddr() != "127.0.0.1:9999" {
		t.Fatalf("expected addr override, got %q", cfg.ListenAddr())
	}
	if cfg.AMQP.URL != "amqp://localhost/" || cfg.AMQP.Exchange != "registry" {
		t.Fatalf("amqp = %+v", cfg.AMQP)
	}
	if cfg.Outbox.Interval != 250*time.Millisecond {
		t.Fatalf("outbox interval = %v", cfg.Outbox.Interval)
	}
}
