package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the defaults apply.
	for _, key := range []string{"SERVER_PORT", "DATABASE_PATH", "BACKUP_DIR", "SETTINGS_PATH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "store.db", cfg.DatabasePath)
	assert.Equal(t, "backup", cfg.BackupDir)
	assert.Equal(t, "settings.env", cfg.SettingsPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_PATH", "/var/lib/store/store.db")
	t.Setenv("BACKUP_DIR", "/var/lib/store/backup")
	t.Setenv("SETTINGS_PATH", "/etc/store/settings.env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "/var/lib/store/store.db", cfg.DatabasePath)
	assert.Equal(t, "/var/lib/store/backup", cfg.BackupDir)
	assert.Equal(t, "/etc/store/settings.env", cfg.SettingsPath)
}
