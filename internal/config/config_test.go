package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "8080"
  publicBaseUrl: "https://shop.example"
mysql:
  host: ""
gateway:
  serverKey: ""
  statusTimeout: 3s
whatsapp:
  autoStart: true
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, 3*time.Second, c.Gateway.StatusTimeout)
	assert.Equal(t, 10*time.Second, c.Gateway.CreateTimeout)
	assert.Equal(t, int64(2_000_000_000), c.Order.MaxGrossAmount)
	assert.Equal(t, 999, c.Order.MaxQty)
	assert.Equal(t, "ID", c.WhatsApp.DefaultRegion)
	assert.True(t, c.WhatsApp.AutoStart)
	assert.Equal(t, "order_events", c.RabbitMQ.Exchange)
	assert.Equal(t, "https://api.sandbox.midtrans.com", c.Gateway.CoreSandboxURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("GATEWAY_SERVERKEY", "SB-Mid-server-env")
	c, err := Load(writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "SB-Mid-server-env", c.Gateway.ServerKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
