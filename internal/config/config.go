// Package config provides YAML-based configuration loading for farmhand.
// Secrets never live in the YAML file; they come from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Remote backend kinds.
const (
	RemoteNone      = "none"
	RemoteFirestore = "firestore"
	RemoteMySQL     = "mysql"
	RemoteRedis     = "redis"
)

// Config is the top-level farmhand configuration, loaded from farmhand.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Local   LocalConfig   `yaml:"local"`
	Remote  RemoteConfig  `yaml:"remote"`
	Auth    AuthConfig    `yaml:"auth"`
	Advisor AdvisorConfig `yaml:"advisor"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LocalConfig holds on-device storage settings.
type LocalConfig struct {
	Path       string `yaml:"path"`
	DebounceMS int    `yaml:"debounce_ms"`
}

// RemoteConfig selects and configures the remote document store.
type RemoteConfig struct {
	Kind      string          `yaml:"kind"`
	Firestore FirestoreConfig `yaml:"firestore"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
}

// FirestoreConfig addresses a Firebase project.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// MySQLConfig holds connection settings for the SQL document remote.
type MySQLConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Database        string `yaml:"database"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	Password        string `yaml:"-"`
}

// RedisConfig holds connection settings for the Redis remote.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	Password string `yaml:"-"`
}

// AuthConfig is the single login the gate accepts.
type AuthConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"-"`
}

// AdvisorConfig configures the Gemini advisor. Without an API key the mock
// advisor is used.
type AdvisorConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"-"`
}

// NotifyConfig configures outbound notices and the daily digest.
type NotifyConfig struct {
	Slack      ChannelConfig `yaml:"slack"`
	Discord    ChannelConfig `yaml:"discord"`
	DigestCron string        `yaml:"digest_cron"`
}

// ChannelConfig names a chat channel and carries the bot token for it.
type ChannelConfig struct {
	Channel string `yaml:"channel"`
	Token   string `yaml:"-"`
}

// Enabled reports whether both a channel and a token are present.
func (c ChannelConfig) Enabled() bool {
	return c.Channel != "" && c.Token != ""
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv fills secrets from lookup, normally os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Advisor.APIKey, "GEMINI_API_KEY")
	set(&c.Notify.Slack.Token, "SLACK_BOT_TOKEN")
	set(&c.Notify.Discord.Token, "DISCORD_BOT_TOKEN")
	set(&c.Auth.Password, "FARM_PASSWORD")
	set(&c.Remote.MySQL.Password, "MYSQL_PASSWORD")
	set(&c.Remote.Redis.Password, "REDIS_PASSWORD")
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Local.Path == "" {
		c.Local.Path = "farmhand.db"
	}
	if c.Local.DebounceMS == 0 {
		c.Local.DebounceMS = 300
	}
	if c.Remote.Kind == "" {
		c.Remote.Kind = RemoteNone
	}
	if c.Remote.MySQL.Host == "" {
		c.Remote.MySQL.Host = "127.0.0.1"
	}
	if c.Remote.MySQL.Port == 0 {
		c.Remote.MySQL.Port = 3306
	}
	if c.Remote.MySQL.User == "" {
		c.Remote.MySQL.User = "root"
	}
	if c.Remote.MySQL.Database == "" {
		c.Remote.MySQL.Database = "farmhand"
	}
	if c.Remote.MySQL.PollIntervalSec == 0 {
		c.Remote.MySQL.PollIntervalSec = 2
	}
	if c.Remote.Redis.Addr == "" {
		c.Remote.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Remote.Redis.Prefix == "" {
		c.Remote.Redis.Prefix = "farmhand"
	}
	if c.Auth.Email == "" {
		c.Auth.Email = "farmer@example.com"
	}
	if c.Auth.Password == "" {
		c.Auth.Password = "12345678"
	}
	if c.Advisor.Model == "" {
		c.Advisor.Model = "gemini-2.5-flash"
	}
	if c.Notify.DigestCron == "" {
		c.Notify.DigestCron = "0 6 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Local.DebounceMS < 0 {
		errs = append(errs, "local.debounce_ms must not be negative")
	}
	switch c.Remote.Kind {
	case RemoteNone, RemoteMySQL, RemoteRedis:
	case RemoteFirestore:
		if c.Remote.Firestore.ProjectID == "" {
			errs = append(errs, "remote.firestore.project_id is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("remote.kind %q must be one of none, firestore, mysql, redis", c.Remote.Kind))
	}
	if c.Remote.MySQL.PollIntervalSec < 0 {
		errs = append(errs, "remote.mysql.poll_interval_sec must not be negative")
	}
	if len(strings.Fields(c.Notify.DigestCron)) != 5 {
		errs = append(errs, fmt.Sprintf("notify.digest_cron %q must have 5 fields", c.Notify.DigestCron))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
