package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestConfigGetString(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString('name') = %q, want %q", got, "test")
	}
}

func TestConfigGetInt(t *testing.T) {
	v := viper.New()
	v.Set("port", 8080)
	cfg := New(v)

	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt('port') = %d, want %d", got, 8080)
	}
}

func TestConfigGetBool(t *testing.T) {
	v := viper.New()
	v.Set("enabled", true)
	cfg := New(v)

	if got := cfg.GetBool("enabled"); !got {
		t.Error("GetBool('enabled') = false, want true")
	}
}

func TestConfigGetDuration(t *testing.T) {
	v := viper.New()
	v.Set("timeout", "5s")
	cfg := New(v)

	want := 5 * time.Second
	if got := cfg.GetDuration("timeout"); got != want {
		t.Errorf("GetDuration('timeout') = %v, want %v", got, want)
	}
}

func TestConfigIsSet(t *testing.T) {
	v := viper.New()
	v.Set("exists", true)
	cfg := New(v)

	if !cfg.IsSet("exists") {
		t.Error("IsSet('exists') = false, want true")
	}
	if cfg.IsSet("missing") {
		t.Error("IsSet('missing') = true, want false")
	}
}

func TestConfigSub(t *testing.T) {
	v := viper.New()
	v.Set("plugins.recon.enabled", true)
	v.Set("plugins.recon.interval", 30)
	cfg := New(v)

	sub := cfg.Sub("plugins.recon")
	if sub == nil {
		t.Fatal("Sub('plugins.recon') = nil")
	}
	if got := sub.GetBool("enabled"); !got {
		t.Error("sub.GetBool('enabled') = false, want true")
	}
	if got := sub.GetInt("interval"); got != 30 {
		t.Errorf("sub.GetInt('interval') = %d, want %d", got, 30)
	}
}

func TestConfigSubMissing(t *testing.T) {
	v := viper.New()
	cfg := New(v)

	sub := cfg.Sub("nonexistent")
	if sub == nil {
		t.Fatal("Sub('nonexistent') should return empty Config, not nil")
	}
	if got := sub.GetString("anything"); got != "" {
		t.Errorf("empty config GetString() = %q, want empty", got)
	}
}

func TestConfigUnmarshal(t *testing.T) {
	v := viper.New()
	v.Set("host", "localhost")
	v.Set("port", 9090)
	cfg := New(v)

	var target struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}
	require.NoError(t, cfg.Unmarshal(&target))
	require.Equal(t, "localhost", target.Host)
	require.Equal(t, 9090, target.Port)
}

func TestNilViper(t *testing.T) {
	cfg := New(nil)
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil viper GetString() = %q, want empty", got)
	}
	if got := cfg.DataDir(); got == "" {
		t.Error("DataDir() on a nil-backed Config should still fall back to a default")
	}
}

func TestNilConfig(t *testing.T) {
	var cfg *Config
	if got := cfg.GetString("key"); got != "" {
		t.Errorf("nil *Config GetString() = %q, want empty", got)
	}
	if got := cfg.Sub("x"); got == nil {
		t.Error("nil *Config Sub() should still return a non-nil empty Config")
	}
}

func TestLoadBindsCredentialEnvVars(t *testing.T) {
	t.Setenv("CRED_1_USER", "netops")
	t.Setenv("CRED_1_PASS", "hunter2")
	t.Setenv("DATA_DIR", "/tmp/velocitycmdb-data")

	cfg, err := Load("")
	require.NoError(t, err)

	user, pass, ok := cfg.Credential(1)
	require.True(t, ok)
	require.Equal(t, "netops", user)
	require.Equal(t, "hunter2", pass)

	_, _, ok = cfg.Credential(2)
	require.False(t, ok, "Credential(2) should not be set")
	require.Equal(t, "/tmp/velocitycmdb-data", cfg.DataDir())
}

func TestLoadMissingConfigFileIsNotFatal(t *testing.T) {
	if _, err := Load("/no/such/file.yaml"); err != nil {
		t.Errorf("Load() with a missing config file error = %v, want nil", err)
	}
}
