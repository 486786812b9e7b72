package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ServerEnv holds the server switches that come from the environment.
type ServerEnv struct {
	// EnableAdminHTTP is nil when unset; see AdminHTTPEnabled.
	EnableAdminHTTP *bool  `env:"GEOCOIN_ENABLE_ADMIN_HTTP"`
	EnablePprofHTTP bool   `env:"GEOCOIN_ENABLE_PPROF_HTTP" envDefault:"false"`
	IndexBackend    string `env:"GEOCOIN_INDEX_BACKEND" envDefault:"sqlite"`
	AllowedOrigin   string `env:"GEOCOIN_ALLOWED_ORIGIN"`
	DeployEnv       string `env:"DEPLOY_ENV" envDefault:"dev"`
}

// AdminHTTPEnabled defaults to on outside staging and production.
func (e ServerEnv) AdminHTTPEnabled() bool {
	if e.EnableAdminHTTP != nil {
		return *e.EnableAdminHTTP
	}
	switch strings.ToLower(strings.TrimSpace(e.DeployEnv)) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func LoadServerEnv() (ServerEnv, error) {
	var cfg ServerEnv
	if err := ParseEnv(&cfg); err != nil {
		return ServerEnv{}, err
	}
	return cfg, nil
}
