// Package config loads hostauthd configuration from an optional YAML file,
// environment overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hnrobert/hostauth/internal/auth"
	"github.com/hnrobert/hostauth/internal/hostfs"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Host    HostConfig    `yaml:"host"`
	Users   UsersConfig   `yaml:"users"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	ListenAddr        string        `yaml:"listen"`
	ReadHeaderTimeout time.Duration `yaml:"-"`
	// Notice is markdown shown on the login screen.
	Notice string `yaml:"notice"`

	ReadHeaderTimeoutRaw string `yaml:"read_header_timeout"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	DevMode      bool          `yaml:"dev_mode"`
	Mechanisms   []string      `yaml:"mechanisms"`
	SuUser       string        `yaml:"su_user"`
	SpawnTimeout time.Duration `yaml:"-"`

	SpawnTimeoutRaw string `yaml:"spawn_timeout"`
}

type HostConfig struct {
	Root string `yaml:"root"`
}

// UsersConfig bounds the UID range listed by /auth/users.
type UsersConfig struct {
	MinUID int `yaml:"-"`
	MaxUID int `yaml:"-"`

	// nil means unset; an explicit 0 is kept.
	MinUIDRaw *int `yaml:"min_uid"`
	MaxUIDRaw *int `yaml:"max_uid"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

const (
	DefaultListenAddr   = ":14392"
	DefaultSpawnTimeout = 10 * time.Second
	DefaultMinUID       = 1000
	DefaultMaxUID       = 65533
	DefaultSuUser       = "nobody"
)

var ErrMissingSecret = errors.New("auth.jwt_secret (or HOSTAUTH_JWT_SECRET) is required")

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with environment values.
func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envVarRe.FindStringSubmatch(m)[1])
	})
}

// Load reads path (may be empty), applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnv(string(b))), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOSTAUTH_LISTEN"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("HOSTAUTH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("HOSTAUTH_HOST_ROOT"); v != "" {
		c.Host.Root = v
	}
	if v := os.Getenv("HOSTAUTH_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if v := os.Getenv("HOSTAUTH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HOSTAUTH_DEV_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HOSTAUTH_DEV_MODE: %w", err)
		}
		c.Auth.DevMode = b
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	var err error
	if c.Server.ReadHeaderTimeout, err = parseDuration(c.Server.ReadHeaderTimeoutRaw, 10*time.Second); err != nil {
		return fmt.Errorf("server.read_header_timeout: %w", err)
	}
	if c.Auth.SpawnTimeout, err = parseDuration(c.Auth.SpawnTimeoutRaw, DefaultSpawnTimeout); err != nil {
		return fmt.Errorf("auth.spawn_timeout: %w", err)
	}
	if len(c.Auth.Mechanisms) == 0 {
		c.Auth.Mechanisms = append([]string(nil), auth.DefaultMechanisms...)
	}
	if c.Auth.SuUser == "" {
		c.Auth.SuUser = DefaultSuUser
	}
	if c.Host.Root == "" {
		c.Host.Root = hostfs.DefaultRoot
	}
	c.Users.MinUID = intOr(c.Users.MinUIDRaw, DefaultMinUID)
	c.Users.MaxUID = intOr(c.Users.MaxUIDRaw, DefaultMaxUID)
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" && !auth.DevAuthCompiled() {
		return ErrMissingSecret
	}
	if c.Users.MinUID < 0 || c.Users.MaxUID < c.Users.MinUID {
		return fmt.Errorf("users: invalid uid range %d..%d", c.Users.MinUID, c.Users.MaxUID)
	}
	for _, m := range c.Auth.Mechanisms {
		switch m {
		case auth.MechanismShadow, auth.MechanismSu, auth.MechanismSudo:
		default:
			return fmt.Errorf("auth.mechanisms: unknown mechanism %q", m)
		}
	}
	return nil
}

// Secret returns the signing secret bytes. Base64url secrets (as printed by
// -gen-secret) are decoded; anything else is used verbatim. Development
// builds fall back to a fixed secret when none is configured.
func (c *Config) Secret() []byte {
	if c.Auth.JWTSecret == "" {
		return auth.DevelopmentSecret()
	}
	return decodeSecret(c.Auth.JWTSecret)
}
