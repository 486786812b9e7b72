package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"GEOCOIN_TEST_PORT" envDefault:"123"`
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
	t.Setenv("GEOCOIN_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadServerEnv(t *testing.T) {
	cfg, err := LoadServerEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EnableAdminHTTP != nil || !cfg.AdminHTTPEnabled() || cfg.IndexBackend != "sqlite" {
		t.Fatalf("defaults: %+v", cfg)
	}

	t.Setenv("GEOCOIN_ENABLE_ADMIN_HTTP", "true")
	t.Setenv("GEOCOIN_INDEX_BACKEND", "none")
	t.Setenv("GEOCOIN_ALLOWED_ORIGIN", "https://example.org")
	cfg, err = LoadServerEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.AdminHTTPEnabled() || cfg.IndexBackend != "none" || cfg.AllowedOrigin != "https://example.org" {
		t.Fatalf("overrides: %+v", cfg)
	}
}

func TestAdminHTTPEnabled_DeployEnv(t *testing.T) {
	off := false
	cases := []struct {
		env  ServerEnv
		want bool
	}{
		{ServerEnv{DeployEnv: "dev"}, true},
		{ServerEnv{DeployEnv: "Production"}, false},
		{ServerEnv{DeployEnv: "staging"}, false},
		{ServerEnv{DeployEnv: "dev", EnableAdminHTTP: &off}, false},
	}
	for _, tc := range cases {
		if got := tc.env.AdminHTTPEnabled(); got != tc.want {
			t.Fatalf("%+v: got %v want %v", tc.env, got, tc.want)
		}
	}
}
