package bot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastreseller/orderbot/internal/config"
	"github.com/fastreseller/orderbot/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Telegram.Token = "123:test"
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.Address = "bot@example.com"
	cfg.Mail.Receiver = "seller@example.com"
	cfg.Orders.LogFile = filepath.Join(t.TempDir(), "orders.log")
	cfg.Orders.SessionTTLMinutes = 30
	cfg.Health.Listen = ":0"
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestNewRegistersCommands(t *testing.T) {
	require.NoError(t, logger.InitLogger(nil))

	app, err := New(testConfig(t))
	require.NoError(t, err)

	for _, name := range []string{"/start", "/catalogo", "/contatti", "/help", "/info", "/ban", "/kick", "/mute"} {
		_, _, ok := app.reg.LookupCommand(name)
		assert.True(t, ok, "command %s not registered", name)
	}

	_, ok := app.reg.GetCallback(cbProduct)
	assert.True(t, ok, "product callback not registered")

	assert.Equal(t, 3, app.catalog.Len())
}

func TestAdminCommandsHiddenFromMenu(t *testing.T) {
	require.NoError(t, logger.InitLogger(nil))

	app, err := New(testConfig(t))
	require.NoError(t, err)

	for _, cmd := range app.reg.ListCommands(true) {
		assert.NotContains(t, []string{"/ban", "/kick", "/mute"}, cmd.Text)
	}
}

func TestRunOptionsWiresRoutes(t *testing.T) {
	require.NoError(t, logger.InitLogger(nil))

	app, err := New(testConfig(t))
	require.NoError(t, err)

	opts := app.RunOptions()
	require.NotNil(t, opts.Registry)
	// one route per command plus text and callback routing
	assert.Len(t, opts.Routes, len(app.reg.Commands())+2)
	assert.NotNil(t, opts.OnStart)
	assert.NotNil(t, opts.OnStop)
}
