// Package config loads and saves ~/.tempo/config.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultNetwork  = "testnet"
	defaultStrategy = "fastest"
	defaultLogLevel = "warn"

	configFile   = "config.json"
	accountsFile = "accounts.json"

	// EnvDir overrides the config directory.
	EnvDir = "TEMPO_CONFIG_DIR"
)

// ErrUnknownKey is returned by Set for keys that are not settable.
var ErrUnknownKey = errors.New("unknown config key")

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultDir returns $TEMPO_CONFIG_DIR or ~/.tempo.
func DefaultDir() (string, error) {
	if d := os.Getenv(EnvDir); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".tempo"), nil
}

// Load reads config from dir (or creates defaults). An empty dir means DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg, err := loadJSON[Config](filepath.Join(dir, configFile), defaults())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.configDir = dir
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]NetworkConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// AccountsPath is where the account list is stored.
func (c *Config) AccountsPath() string {
	return filepath.Join(c.configDir, accountsFile)
}

// ResetDelay is the nonce-key reset delay. Zero disables resets.
func (c *Config) ResetDelay() time.Duration {
	return c.NonceKeyResetDelay.Std()
}

// Keys lists the settable keys in order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Config, v string) error{
	"default_network": func(c *Config, v string) error { c.DefaultNetwork = v; return nil },
	"default_account": func(c *Config, v string) error { c.DefaultAccount = v; return nil },
	"fee_token":       func(c *Config, v string) error { c.FeeToken = v; return nil },
	"rpc_strategy":    func(c *Config, v string) error { c.RPCStrategy = v; return nil },
	"log_level":       func(c *Config, v string) error { c.LogLevel = v; return nil },
	"nonce_key_reset_delay": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.NonceKeyResetDelay = Duration(d)
		return nil
	},
}

// Set assigns key from its string form and validates the result. The
// config is left unchanged on error.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// --- helpers ---

func defaults() *Config {
	return &Config{
		DefaultNetwork:     defaultNetwork,
		RPCStrategy:        defaultStrategy,
		LogLevel:           defaultLogLevel,
		NonceKeyResetDelay: Duration(DefaultNonceKeyResetDelay),
		Networks:           make(map[string]NetworkConfig),
	}
}

// loadJSON decodes path over base. A missing file returns base unchanged.
func loadJSON[T any](path string, base *T) (*T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return base, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
