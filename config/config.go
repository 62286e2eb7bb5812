// Package config loads daemon settings from a YAML file, an optional .env
// file and LEDGERENTRY_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Log     Log     `yaml:"log"`
	Backend Backend `yaml:"backend"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"LEDGERENTRY_SHUTDOWN_TIMEOUT"`
}

type HTTP struct {
	// Listen is the JSON-RPC address; empty disables the HTTP server.
	Listen       string `yaml:"listen" env:"LEDGERENTRY_HTTP_LISTEN"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" env:"LEDGERENTRY_HTTP_MAX_BODY_BYTES"`
}

type GRPC struct {
	// Listen is the gRPC address; empty disables the gRPC server.
	Listen      string `yaml:"listen" env:"LEDGERENTRY_GRPC_LISTEN"`
	MaxMsgBytes int    `yaml:"max_msg_bytes" env:"LEDGERENTRY_GRPC_MAX_MSG_BYTES"`
	// ServeBlocks also registers the block service so replicas can read
	// sealed blocks. Only the localfs backend has blocks to serve.
	ServeBlocks bool   `yaml:"serve_blocks" env:"LEDGERENTRY_GRPC_SERVE_BLOCKS"`
}

type Log struct {
	Level  string `yaml:"level" env:"LEDGERENTRY_LOG_LEVEL"`
	Format string `yaml:"format" env:"LEDGERENTRY_LOG_FORMAT"`
}

type Backend struct {
	Name    string            `yaml:"name" env:"LEDGERENTRY_BACKEND"`
	Options map[string]string `yaml:"options"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		HTTP:            HTTP{Listen: "127.0.0.1:5005", MaxBodyBytes: 1 << 20},
		GRPC:            GRPC{Listen: "127.0.0.1:50051"},
		Log:             Log{Level: "info", Format: "text"},
		Backend:         Backend{Name: "localfs", Options: map[string]string{}},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration. path names an optional YAML file and
// envFile an optional dotenv file; an empty envFile tries ./.env and
// ignores its absence.
func Load(path, envFile string) (*Config, error) {
	if err := loadDotenv(envFile); err != nil {
		return nil, err
	}
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cfg.decodeYAML(b); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: .env: %w", err)
	}
	return nil
}

func (c *Config) decodeYAML(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if c.Backend.Options == nil {
		c.Backend.Options = map[string]string{}
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.HTTP.Listen == "" && c.GRPC.Listen == "" {
		return errors.New("config: at least one of http.listen and grpc.listen is required")
	}
	for name, addr := range map[string]string{"http.listen": c.HTTP.Listen, "grpc.listen": c.GRPC.Listen} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return errors.New("config: http.max_body_bytes must not be negative")
	}
	if c.GRPC.MaxMsgBytes < 0 {
		return errors.New("config: grpc.max_msg_bytes must not be negative")
	}
	if c.GRPC.ServeBlocks && c.GRPC.Listen == "" {
		return errors.New("config: grpc.serve_blocks needs grpc.listen")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format: unknown format %q", c.Log.Format)
	}
	if strings.TrimSpace(c.Backend.Name) == "" {
		return errors.New("config: backend.name is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("config: shutdown_timeout must be positive")
	}
	return nil
}
