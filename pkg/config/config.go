// Package config loads the process configuration the same fail-fast way
// the teacher's pkg/db bootstrap did (read env, fall back to a
// hardcoded default, panic only when a value is genuinely required and
// missing), plus an optional YAML file overlay for local development.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `yaml:"port"`
	RemoteURL string `yaml:"remoteUrl"`
	Env       string `yaml:"env"`
	DataDir   string `yaml:"dataDir"`
	LogLevel  string `yaml:"logLevel"`
	LogDir    string `yaml:"logDir"`
}

const (
	defaultPort      = "3011"
	defaultRemoteURL = "http://localhost:3010"
	defaultEnv       = "development"
	defaultDataDir   = "./data"
	defaultLogLevel  = "info"
)

// Load builds a Config from, in increasing precedence: hardcoded
// defaults, an optional covenant.yaml file in the working directory,
// then environment variables.
func Load() Config {
	cfg := Config{
		Port:      defaultPort,
		RemoteURL: defaultRemoteURL,
		Env:       defaultEnv,
		DataDir:   defaultDataDir,
		LogLevel:  defaultLogLevel,
	}

	if data, err := os.ReadFile("covenant.yaml"); err == nil {
		_ = yaml.Unmarshal(data, &cfg)
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.RemoteURL = envOr("REMOTE_URL", cfg.RemoteURL)
	cfg.Env = envOr("ENV", cfg.Env)
	cfg.DataDir = envOr("DATA_DIR", cfg.DataDir)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDir = envOr("LOG_DIR", cfg.LogDir)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// PortNumber parses cfg.Port as an integer, panicking on a malformed
// value the same way the teacher's bootstrap panics on an invalid
// DATABASE_URL — this is a startup-time configuration error, not a
// runtime condition to recover from.
func (c Config) PortNumber() int {
	n, err := strconv.Atoi(c.Port)
	if err != nil {
		panic("config: PORT must be numeric: " + c.Port)
	}
	return n
}

// Strict reports whether the process should apply stricter operational
// behavior (e.g. rate-limit thresholds set by the surrounding
// deployment, which this core does not itself implement).
func (c Config) Strict() bool { return c.Env == "production" }
