package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eshc-lang/eshc/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".eshc.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"maxCodeblocksPerLine": 50,
		"removeEndReturns": true,
		"outputFormat": "template",
		"codeClientAddr": "ws://localhost:31375"
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 50, *cfg.MaxCodeblocksPerLine)
	require.True(t, cfg.RemoveEndReturns)
	require.Equal(t, config.FormatTemplate, cfg.OutputFormat)
}

func TestLoadDefaultsOutputFormat(t *testing.T) {
	path := writeConfig(t, `{}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.FormatBin, cfg.OutputFormat)
	require.Nil(t, cfg.MaxCodeblocksPerLine)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `{"bogus": true}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadOutputFormat(t *testing.T) {
	path := writeConfig(t, `{"outputFormat": "xml"}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadAcceptsSatisfiedMinCompilerVersion(t *testing.T) {
	path := writeConfig(t, `{"minCompilerVersion": "0.0.1"}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.1", cfg.MinCompilerVersion)
}

func TestLoadRejectsUnsatisfiedMinCompilerVersion(t *testing.T) {
	path := writeConfig(t, `{"minCompilerVersion": "v99.0.0"}`)
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedMinCompilerVersion(t *testing.T) {
	path := writeConfig(t, `{"minCompilerVersion": "not-a-version"}`)
	_, err := config.Load(path)
	require.Error(t, err)
}
