package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultBackendCommand, cfg.BackendCommand)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Nil(t, cfg.SuperuserCommand)

	wantLog, err := expandPath(defaultLogFile)
	require.NoError(t, err)
	assert.Equal(t, wantLog, cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
backend_command = "  /opt/bin/cockpit-container-apps  "
superuser_command = " sudo  -n "
command_timeout = "45s"
search_debounce = " 150ms "
default_store = " marine "
log_file = "  ~/logs/apps.log  "
log_level = "DEBUG"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/bin/cockpit-container-apps", cfg.BackendCommand)
	assert.Equal(t, []string{"sudo", "-n"}, cfg.SuperuserCommand)
	assert.Equal(t, 45*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "marine", cfg.DefaultStore)
	assert.Equal(t, filepath.Join(home, "logs/apps.log"), cfg.LogFile)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
command_timeout = "45s"
default_store = "marine"
`)
	t.Setenv("CONTAINER_APPS_COMMAND_TIMEOUT", "5s")
	t.Setenv("CONTAINER_APPS_SUPERUSER_COMMAND", "pkexec")
	t.Setenv("CONTAINER_APPS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "marine", cfg.DefaultStore, "file value kept")
	assert.Equal(t, []string{"pkexec"}, cfg.SuperuserCommand)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_IgnoresUnprefixedEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `backend_command = "/opt/bin/cockpit-container-apps"`)
	t.Setenv("BACKEND_COMMAND", "/usr/bin/other-tool")
	t.Setenv("SUPERUSER_COMMAND", "doas")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("DEFAULT_STORE", "dev")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/bin/cockpit-container-apps", cfg.BackendCommand)
	assert.Nil(t, cfg.SuperuserCommand)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DefaultStore)
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
backend_command = "   "
command_timeout = ""
log_file = ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := map[string]string{
		"parse config":    `command_timeout = [`,
		"command_timeout": `command_timeout = "soon"`,
		"search_debounce": `search_debounce = "-1s"`,
		"log_level":       `log_level = "chatty"`,
	}
	for want, body := range tests {
		t.Run(want, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b"), got)
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	_, err := expandPath("   ")
	assert.Error(t, err)
}
