package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canelink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults_SetsExpectedValues(t *testing.T) {
	t.Parallel()

	cfg := Defaults()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "reachable from the phone on the LAN")
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Empty(t, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "SmartCane", cfg.Device.Name)
	assert.Equal(t, TransportBLE, cfg.Device.Transport)
	assert.False(t, cfg.Hub.Strict)
	assert.Equal(t, 30, cfg.Database.RetentionDays)
	assert.True(t, cfg.MCP.Enabled)
	assert.Equal(t, time.Second, cfg.MCP.MinInterval)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "canelink:messages", cfg.Redis.Channel)
	assert.True(t, cfg.Listeners.MobileApp)
	assert.True(t, cfg.Listeners.History)
}

func TestLoadFromFile_ParsesYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  host: "192.168.1.20"
  port: 5050
  log_level: "debug"
  cors_origins:
    - "https://app.example.com"

device:
  name: "Cane-42"
  transport: "memory"

hub:
  strict: true

database:
  path: "/var/lib/canelink/history.db"
  retention_days: 7

mcp:
  enabled: false
  min_interval: 250ms

redis:
  enabled: true
  addr: "redis:6379"
  db: 2
  channel: "cane"

listeners:
  mobile_app: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.20", cfg.Server.Host)
	assert.Equal(t, 5050, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "Cane-42", cfg.Device.Name)
	assert.Equal(t, TransportMemory, cfg.Device.Transport)
	assert.True(t, cfg.Hub.Strict)
	assert.Equal(t, "/var/lib/canelink/history.db", cfg.Database.Path)
	assert.Equal(t, 7, cfg.Database.RetentionDays)
	assert.False(t, cfg.MCP.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.MCP.MinInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "cane", cfg.Redis.Channel)
	assert.False(t, cfg.Listeners.MobileApp)
	assert.True(t, cfg.Listeners.History, "unset keys keep their default")
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CANELINK_TEST_DEVICE", "Cane-From-Env")

	path := writeConfig(t, `
device:
  name: "${CANELINK_TEST_DEVICE}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Cane-From-Env", cfg.Device.Name)
}

func TestLoadFromFile_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("CANELINK_NGROK_AUTHTOKEN", "ngrok-token")
	t.Setenv("CANELINK_REDIS_PASSWORD", "redis-pw")

	path := writeConfig(t, `
tunnel:
  enabled: true
redis:
  password: "from-file"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ngrok-token", cfg.Tunnel.AuthToken)
	assert.Equal(t, "redis-pw", cfg.Redis.Password)
}

func TestLoadFromFile_EnvOverridesCORSOrigins(t *testing.T) {
	t.Setenv("CANELINK_CORS_ORIGINS", " http://localhost:5173 , ,capacitor://localhost")

	cfg, err := LoadFromFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:5173", "capacitor://localhost"}, cfg.Server.CORSOrigins)
}

func TestLoadFromFile_RejectsInvalidPort(t *testing.T) {
	t.Parallel()

	for _, port := range []string{"0", "99999"} {
		_, err := LoadFromFile(writeConfig(t, "server:\n  port: "+port+"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "port")
	}
}

func TestLoadFromFile_RejectsEmptyDeviceName(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "device:\n  name: \"  \"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device.name")
}

func TestLoadFromFile_RejectsUnknownTransport(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "device:\n  transport: \"wifi\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device.transport")
}

func TestLoadFromFile_RejectsNegativeRetention(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "database:\n  retention_days: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention_days")
}

func TestLoadFromFile_RejectsRedisWithoutChannel(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "redis:\n  enabled: true\n  channel: \"\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.channel")
}

func TestLoadFromFile_RejectsTunnelWithoutToken(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "tunnel:\n  enabled: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authtoken")
}

func TestLoadFromFile_NonexistentFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "SmartCane", cfg.Device.Name)
}

func TestLoadFromFile_InvalidYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(writeConfig(t, "{{invalid yaml:::"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing YAML")
}

func TestLoadFromFile_ExpandsDatabaseHome(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadFromFile(writeConfig(t, "database:\n  path: \"~/cane.db\"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cane.db"), cfg.Database.Path)
}

func TestExpandHome_LeavesAbsolutePathsUnchanged(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/absolute/path", ExpandHome("/absolute/path"))
}
