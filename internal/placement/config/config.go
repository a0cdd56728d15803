// Package config loads the YAML configuration shared by the placement binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config file location.
const EnvConfigPath = "PLACEMENT_CONFIG"

// Config struct for YAML configuration
type Config struct {
	GRPCPort       int           `yaml:"GRPC_PORT"`
	HTTPPort       int           `yaml:"HTTP_PORT"`
	AuthPort       int           `yaml:"AUTH_PORT"`
	DBDriver       string        `yaml:"DB_DRIVER"`
	DBHost         string        `yaml:"DB_HOST"`
	DBPort         int           `yaml:"DB_PORT"`
	DBUser         string        `yaml:"DB_USER"`
	DBPassword     string        `yaml:"DB_PASSWORD"`
	DBName         string        `yaml:"DB_NAME"`
	DBSSLMode      string        `yaml:"DB_SSLMODE"`
	SQLitePath     string        `yaml:"SQLITE_PATH"`
	KafkaBrokers   []string      `yaml:"KAFKA_BROKERS"`
	Topic          string        `yaml:"TOPIC"`
	AuditGroupID   string        `yaml:"AUDIT_GROUP_ID"`
	JWTSecret      string        `yaml:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"TOKEN_TTL"`
	RequestTimeout time.Duration `yaml:"REQUEST_TIMEOUT"`
	RedisAddr      string        `yaml:"REDIS_ADDR"`
	RateLimit      int           `yaml:"RATE_LIMIT"`
	RateWindow     time.Duration `yaml:"RATE_WINDOW"`
	TrustProxy     bool          `yaml:"TRUST_PROXY"`
}

// DefaultPath is the config location used when PLACEMENT_CONFIG is unset.
func DefaultPath() string {
	return filepath.Join("internal", "placement", "config", "config.yaml")
}

// Load reads the config file named by PLACEMENT_CONFIG, or DefaultPath.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath()
	}
	return LoadFile(path)
}

// LoadFile reads path, applies environment overrides for secrets and fills defaults.
func LoadFile(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(file)
}

// Parse decodes raw YAML into a Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DBPassword = v
	}
}

func (c *Config) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.AuthPort == 0 {
		c.AuthPort = 8081
	}
	if c.DBDriver == "" {
		c.DBDriver = "postgres"
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "placement.db"
	}
	if c.Topic == "" {
		c.Topic = "placement-events"
	}
	if c.AuditGroupID == "" {
		c.AuditGroupID = "placement-audit"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = 120
	}
	if c.RateWindow == 0 {
		c.RateWindow = time.Minute
	}
}

// Validate reports settings the binaries cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative")
	}
	return nil
}
