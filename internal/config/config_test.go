package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"CHAT_API_BASE_URL", "CHAT_WS_URL", "CHAT_REQUEST_TIMEOUT",
	"CHAT_DB_ENGINE", "CHAT_DB_PATH",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"CHAT_RECONNECT_INITIAL_MS", "CHAT_RECONNECT_MAX_MS", "CHAT_RECONNECT_MAX_ELAPSED_SEC",
	"CHAT_DIAG_ENABLED", "CHAT_DIAG_PORT",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearTestEnvVars() {
	for _, key := range configEnvVars {
		os.Unsetenv(key)
	}
}

func TestLoadConfig_DefaultBehavior(t *testing.T) {
	clearTestEnvVars()
	defer clearTestEnvVars()

	config := LoadConfig()

	require.NotNil(t, config)

	assert.Equal(t, "http://localhost:8080", config.Server.APIBaseURL)
	assert.Equal(t, "ws://localhost:8080/ws", config.Server.WebsocketURL)
	assert.Equal(t, 10, config.Server.RequestTimeout)

	assert.Equal(t, "sqlite", config.Database.Engine)
	assert.Equal(t, "chat.db", config.Database.Path)
	assert.Equal(t, 25, config.Database.MaxOpenConns)
	assert.Equal(t, 5, config.Database.MaxIdleConns)

	assert.Equal(t, 500, config.Reconnect.InitialIntervalMS)
	assert.Equal(t, 30000, config.Reconnect.MaxIntervalMS)
	assert.Equal(t, 0, config.Reconnect.MaxElapsedSec)

	assert.True(t, config.Diagnostics.Enabled)
	assert.Equal(t, "7070", config.Diagnostics.Port)

	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearTestEnvVars()
	defer clearTestEnvVars()

	os.Setenv("CHAT_API_BASE_URL", "https://api.acme.test")
	os.Setenv("CHAT_WS_URL", "wss://api.acme.test/ws")
	os.Setenv("CHAT_DB_ENGINE", "mysql")
	os.Setenv("DB_USER", "tenant42")
	os.Setenv("DB_PASSWORD", "s3cret")
	os.Setenv("DB_NAME", "tenant42_chat")
	os.Setenv("CHAT_RECONNECT_INITIAL_MS", "100")
	os.Setenv("CHAT_DIAG_ENABLED", "false")

	config := LoadConfig()

	assert.Equal(t, "https://api.acme.test", config.Server.APIBaseURL)
	assert.Equal(t, "wss://api.acme.test/ws", config.Server.WebsocketURL)
	assert.Equal(t, "mysql", config.Database.Engine)
	assert.Equal(t, 100, config.Reconnect.InitialIntervalMS)
	assert.False(t, config.Diagnostics.Enabled)
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	clearTestEnvVars()
	defer clearTestEnvVars()

	os.Setenv("CHAT_REQUEST_TIMEOUT", "not-a-number")
	os.Setenv("DB_MAX_OPEN_CONNS", "")
	os.Setenv("CHAT_DIAG_ENABLED", "maybe")

	config := LoadConfig()

	assert.Equal(t, 10, config.Server.RequestTimeout)
	assert.Equal(t, 25, config.Database.MaxOpenConns)
	assert.True(t, config.Diagnostics.Enabled)
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Username:     "chat",
			Password:     "chat123",
			Host:         "db.internal",
			Port:         "3307",
			DatabaseName: "chat_local",
		},
	}

	dsn := cfg.DSN()
	assert.Equal(t, "chat:chat123@tcp(db.internal:3307)/chat_local?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}

func TestConfig_DSN_DefaultsHostAndPort(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Username:     "chat",
			DatabaseName: "chat_local",
		},
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "@tcp(localhost:3306)/chat_local")
}
