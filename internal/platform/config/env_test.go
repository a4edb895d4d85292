package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port int `env:"HOMECHAIN_TEST_PORT" envDefault:"123"`
}

type prefixedTestConfig struct {
	Interval time.Duration `env:"INTERVAL" envDefault:"5s"`
	Exchange string        `env:"EXCHANGE" envDefault:"homechain.events"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("HOMECHAIN_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvWithPrefixReadsPrefixedNames(t *testing.T) {
	t.Setenv("HOMECHAIN_OUTBOX_INTERVAL", "250ms")

	var cfg prefixedTestConfig
	if err := ParseEnvWithPrefix(&cfg, "HOMECHAIN_OUTBOX_"); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Interval != 250*time.Millisecond {
		t.Fatalf("interval = %s, want %s", cfg.Interval, 250*time.Millisecond)
	}
	if cfg.Exchange != "homechain.events" {
		t.Fatalf("exchange = %q, want default", cfg.Exchange)
	}
}

func TestExitfWritesMessageAndExits(t *testing.T) {
	var code int
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	var buf bytes.Buffer
	exitf(&buf, "open store: %s", "boom")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if buf.String() != "open store: boom\n" {
		t.Fatalf("output = %q", buf.String())
	}
}
