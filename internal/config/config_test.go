package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.LedgerDriver)
	assert.Equal(t, "payment-queue", cfg.TemporalTaskQueue)
	assert.Equal(t, 15*time.Minute, cfg.ConfirmationWindow)
	assert.Equal(t, 5*time.Second, cfg.BridgeGracePeriod)
	assert.False(t, cfg.SettlementWins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGER_DRIVER", "memory")
	t.Setenv("CONFIRMATION_WINDOW", "2m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SETTLEMENT_WINS_OVER_CANCEL", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.LedgerDriver)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmationWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.True(t, cfg.SettlementWins)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TEMPORAL_TASK_QUEUE=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEMPORAL_TASK_QUEUE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.TemporalTaskQueue)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		LedgerDriver:       "postgres",
		GatewayProvider:    "paypal",
		Notifier:           "sns",
		ConfirmationWindow: time.Minute,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
	assert.Contains(t, err.Error(), "GATEWAY_PROVIDER")
	assert.Contains(t, err.Error(), "SNS_TOPIC_ARN")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
