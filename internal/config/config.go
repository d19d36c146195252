// Package config loads client configuration from a file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SEALEDSEND_BASE_URL or
// SEALEDSEND_MAIL_DEFAULT_SIGN.
const EnvPrefix = "SEALEDSEND"

// MailConfig holds the account mail settings used when no settings
// provider is wired.
type MailConfig struct {
	DefaultSign      bool   `mapstructure:"default_sign"`
	PGPScheme        string `mapstructure:"pgp_scheme"`
	AttachPublicKey  bool   `mapstructure:"attach_public_key"`
	AutoSaveContacts bool   `mapstructure:"auto_save_contacts"`
}

// StoreConfig locates the local contact store. An empty path disables it.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SessionConfig holds the API session credentials.
type SessionConfig struct {
	UID         string `mapstructure:"uid"`
	AccessToken string `mapstructure:"access_token"`
}

// Config is the top-level client configuration.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Workers int           `mapstructure:"workers"`
	Session SessionConfig `mapstructure:"session"`
	Mail    MailConfig    `mapstructure:"mail"`
	Store   StoreConfig   `mapstructure:"store"`
}

// DefaultPath returns ~/.config/sealedsend/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "sealedsend", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "https://mail.proton.me/api")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("retries", 3)
	v.SetDefault("workers", 4)
	v.SetDefault("session.uid", "")
	v.SetDefault("session.access_token", "")
	v.SetDefault("mail.default_sign", false)
	v.SetDefault("mail.pgp_scheme", "pgp-mime")
	v.SetDefault("mail.attach_public_key", false)
	v.SetDefault("mail.auto_save_contacts", true)
	v.SetDefault("store.path", "")
}

// Load reads the configuration at path. A missing file yields the defaults
// with environment overrides applied. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Mail.PGPScheme = strings.ToLower(strings.TrimSpace(cfg.Mail.PGPScheme))
	if cfg.Mail.PGPScheme != "pgp-mime" && cfg.Mail.PGPScheme != "pgp-inline" {
		return nil, fmt.Errorf("mail.pgp_scheme: unknown scheme %q", cfg.Mail.PGPScheme)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}

	return &cfg, nil
}
