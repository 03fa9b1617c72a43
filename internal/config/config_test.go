package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresBotToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	_, err := Load("")
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "bot_token", cfgErr.Field)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "localhost", cfg.DBHost)
	require.Equal(t, 5432, cfg.DBPort)
	require.Equal(t, 50, cfg.MaxFileSizeMB)
	require.Equal(t, int64(50*1024*1024), cfg.MaxFileBytes())
	require.Equal(t, "ru", cfg.DefaultLanguage)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_PORT", "not-a-port")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("CLAUDE_MODEL", "claude-test")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 6543, cfg.DBPort)
	require.Equal(t, 10, cfg.MaxFileSizeMB)
	require.Equal(t, "claude-test", cfg.ClaudeModel)
}
