package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: data/books.db
  strip_markup: true
shell:
  suggestion_limit: 5
logging:
  level: debug
metrics:
  textfile: /tmp/bookrec.prom
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "data/books.db", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.StripMarkup)
	assert.Equal(t, 5, cfg.Shell.SuggestionLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/bookrec.prom", cfg.Metrics.Textfile)
	// untouched keys keep their defaults
	assert.Equal(t, "Recommendations", cfg.Export.SheetName)
	assert.Equal(t, ".bookrec_history", cfg.Shell.HistoryFile)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty catalog path", "catalog:\n  path: \"\"\n"},
		{"bad log level", "logging:\n  level: chatty\n"},
		{"zero suggestions", "shell:\n  suggestion_limit: 0\n"},
		{"long sheet name", "export:\n  sheet_name: \"this sheet name is far too long for excel\"\n"},
		{"malformed yaml", "catalog: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), true)
			assert.Error(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvPath, "")
	path, explicit := Resolve("")
	assert.Equal(t, DefaultPath, path)
	assert.False(t, explicit)

	t.Setenv(EnvPath, "/etc/bookrec.yaml")
	path, explicit = Resolve("")
	assert.Equal(t, "/etc/bookrec.yaml", path)
	assert.True(t, explicit)

	path, explicit = Resolve("local.yaml")
	assert.Equal(t, "local.yaml", path)
	assert.True(t, explicit)
}
