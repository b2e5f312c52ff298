package commands

import (
	"os"

	"kebasync/lib/configutil"
)

type ConsoleConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Proto    string `json:"proto"`
}

type Config struct {
	Console     ConsoleConfig `json:"console"`
	Database    string        `json:"database"`
	SnapshotDir string        `json:"snapshot_dir"`
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig reads config.json5 when present and lets environment
// variables override it. The fallbacks are the wallbox factory
// defaults.
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	cfg.Console.Username = envOr("KEBA_USER", cfg.Console.Username)
	cfg.Console.Password = envOr("KEBA_PASS", cfg.Console.Password)
	cfg.Console.Host = envOr("KEBA_HOST", cfg.Console.Host)
	cfg.Console.Proto = envOr("KEBA_PROTO", cfg.Console.Proto)
	cfg.Database = envOr("KEBA_DB", cfg.Database)
	cfg.SnapshotDir = envOr("KEBA_SNAPSHOT_DIR", cfg.SnapshotDir)

	if cfg.Console.Username == "" {
		cfg.Console.Username = "admin"
	}
	if cfg.Console.Password == "" {
		cfg.Console.Password = "admin"
	}
	if cfg.Console.Host == "" {
		cfg.Console.Host = "192.168.0.1"
	}
	if cfg.Console.Proto == "" {
		cfg.Console.Proto = "http"
	}
	if cfg.Database == "" {
		cfg.Database = "kebasync.db"
	}
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = "/tmp"
	}
	return cfg, nil
}
