// Package config wraps viper in a small Config type so the rest of the
// tree never imports viper directly, with env-var bindings for DATA_DIR
// and the CRED_N_USER/CRED_N_PASS credential pairs (§6).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a thin, nil-safe wrapper around *viper.Viper.
type Config struct {
	v *viper.Viper
}

// New wraps an existing viper instance. A nil v is valid and every
// accessor returns its zero value.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load builds a Config from the file at path (if non-empty and present)
// layered under environment variables and the documented defaults
// (DATA_DIR, CRED_N_USER/CRED_N_PASS for N in 1..10).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("data_dir", defaultDataDir())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("data_dir", "DATA_DIR")
	for n := 1; n <= 10; n++ {
		_ = v.BindEnv(credKey(n, "user"), credEnv(n, "USER"))
		_ = v.BindEnv(credKey(n, "pass"), credEnv(n, "PASS"))
	}

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	return New(v), nil
}

func credKey(n int, suffix string) string {
	return "cred_" + strconv.Itoa(n) + "_" + suffix
}

func credEnv(n int, suffix string) string {
	return "CRED_" + strconv.Itoa(n) + "_" + suffix
}

func (c *Config) GetString(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string) int {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

func (c *Config) IsSet(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the configuration corresponding to key in the config.
// It never returns nil: a missing key yields an empty, nil-safe Config.
func (c *Config) Sub(key string) *Config {
	if c == nil || c.v == nil {
		return New(nil)
	}
	sub := c.v.Sub(key)
	return New(sub)
}

func (c *Config) Unmarshal(target interface{}) error {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}

// DataDir returns the base directory for databases, captures, and diffs.
func (c *Config) DataDir() string {
	if dir := c.GetString("data_dir"); dir != "" {
		return dir
	}
	return defaultDataDir()
}

// Credential returns the Nth injected credential pair (1-indexed per §6),
// and whether both halves were present.
func (c *Config) Credential(n int) (user, pass string, ok bool) {
	user = c.GetString(credKey(n, "user"))
	pass = c.GetString(credKey(n, "pass"))
	return user, pass, user != "" && pass != ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".velocitycmdb/data"
	}
	return home + "/.velocitycmdb/data"
}
