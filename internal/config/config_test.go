package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  base_url: http://engine.local:9000
  timeout: 45s
datasets:
  - name: taxi
    id: datamart.taxi-2019
  - id: datamart.weather
preferences:
  default_dataset: datamart.weather
  export_dir: /tmp/exports
  log_level: DEBUG
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig), nil)
	require.NoError(t, err)

	assert.Equal(t, "http://engine.local:9000", cfg.Server.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Server.Timeout)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, Dataset{Name: "taxi", ID: "datamart.taxi-2019"}, cfg.Datasets[0])
	assert.Equal(t, "/tmp/exports", cfg.Preferences.ExportDir)
	assert.Equal(t, "DEBUG", cfg.Preferences.LogLevel)

	d := cfg.DefaultDataset()
	require.NotNil(t, d)
	assert.Equal(t, "datamart.weather", d.ID)
}

func TestLoad_DefaultsWhenDefaultFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Server.Timeout)
	assert.Equal(t, "INFO", cfg.Preferences.LogLevel)
	assert.Equal(t, ".", cfg.Preferences.ExportDir)
	assert.Empty(t, cfg.Datasets)
	assert.Nil(t, cfg.DefaultDataset())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATACONSOLE_SERVER_BASE_URL", "https://override.example")
	t.Setenv("DATACONSOLE_SERVER_TIMEOUT", "5s")

	cfg, err := Load(writeConfig(t, sampleConfig), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("DATACONSOLE_SERVER_BASE_URL", "https://env.example")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("base-url", "", "")
	flags.Duration("timeout", 0, "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--base-url", "http://flag.example", "--timeout", "2m"}))

	cfg, err := Load(writeConfig(t, sampleConfig), flags)
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example", cfg.Server.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Server.Timeout)
	assert.Equal(t, "DEBUG", cfg.Preferences.LogLevel, "unchanged flags do not override")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad scheme":   "server:\n  base_url: ftp://x\n",
		"zero timeout": "server:\n  timeout: 0s\n",
		"dataset id":   "datasets:\n  - name: nameless\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content), nil)
			assert.Error(t, err)
		})
	}
}

func TestSaveDataset_RoundTrip(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())

	require.NoError(t, SaveDataset(cfg, Dataset{ID: "datamart.new"}))
	// saving an existing dataset is a no-op
	require.NoError(t, SaveDataset(cfg, Dataset{ID: "datamart.taxi-2019"}))

	reloaded, err := Load(path, nil)
	require.NoError(t, err)
	require.Len(t, reloaded.Datasets, 3)
	assert.Equal(t, Dataset{Name: "datamart.new", ID: "datamart.new"}, reloaded.Datasets[2])
	assert.Equal(t, 45*time.Second, reloaded.Server.Timeout)
	assert.Equal(t, "datamart.weather", reloaded.Preferences.DefaultDataset)
}

func TestDataset_DisplayString(t *testing.T) {
	assert.Equal(t, "taxi (datamart.taxi)", Dataset{Name: "taxi", ID: "datamart.taxi"}.DisplayString())
	assert.Equal(t, "datamart.taxi", Dataset{Name: "datamart.taxi", ID: "datamart.taxi"}.DisplayString())
	assert.Equal(t, "datamart.taxi", Dataset{ID: "datamart.taxi"}.DisplayString())
}

func TestDefaultDataset_FallsBackToFirst(t *testing.T) {
	cfg := &Config{
		Datasets:    []Dataset{{Name: "a", ID: "1"}, {Name: "b", ID: "2"}},
		Preferences: Preferences{DefaultDataset: "unknown"},
	}
	assert.Equal(t, "1", cfg.DefaultDataset().ID)

	cfg.Preferences.DefaultDataset = "b"
	assert.Equal(t, "2", cfg.DefaultDataset().ID)
}
