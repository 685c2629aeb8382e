package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Backend BackendConfig `toml:"backend"`
	Gateway GatewayConfig `toml:"gateway"`
	Trace   TraceConfig   `toml:"trace"`
}

type BackendConfig struct {
	// BaseURL overrides the computed Cloudflare endpoint. When empty it is
	// derived from AccountID.
	BaseURL   string `toml:"base_url"`
	AccountID string `toml:"account_id"`
	Token     string `toml:"token"`
	Model     string `toml:"model"`
}

type GatewayConfig struct {
	Addr string `toml:"addr"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			Model: "@hf/nousresearch/hermes-2-pro-mistral-7b",
		},
		Gateway: GatewayConfig{
			Addr: ":8787",
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Backend.Token == "" {
		cfg.Backend.Token = os.Getenv("WORKERS_AI_TOKEN")
	}
	if cfg.Backend.AccountID == "" {
		cfg.Backend.AccountID = os.Getenv("WORKERS_AI_ACCOUNT_ID")
	}

	return cfg, nil
}

// ResolveBaseURL returns the backend endpoint, deriving the hosted API URL
// from the account id when no explicit override is configured.
func (c *Config) ResolveBaseURL() (string, error) {
	if c.Backend.BaseURL != "" {
		return c.Backend.BaseURL, nil
	}
	if c.Backend.AccountID == "" {
		return "", fmt.Errorf("backend base_url or account_id must be configured")
	}
	return fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/ai", c.Backend.AccountID), nil
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "relay", "config.toml")
}
