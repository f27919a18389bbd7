package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/mcheck/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, config.DefaultMaxStep, cfg.MaxStep)
	require.Equal(t, config.DefaultMaxFrame, cfg.MaxFrame)
	require.Equal(t, config.DefaultLogic, cfg.Logic)
	require.Equal(t, config.DefaultConfirmPollInterval, cfg.ConfirmPollInterval())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoad_OverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_step: 50\nlogic: QF_LIA\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(50), cfg.MaxStep)
	require.Equal(t, "QF_LIA", cfg.Logic)
	require.Equal(t, config.DefaultMaxFrame, cfg.MaxFrame)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestConfirmPollInterval_ZeroFallsBackToDefault(t *testing.T) {
	cfg := config.Config{ConfirmPollIntervalMS: 0}
	require.Equal(t, config.DefaultConfirmPollInterval, cfg.ConfirmPollInterval())
}
