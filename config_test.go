package acceptor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/google/ritm-acceptor/flags"
)

// parseConfig runs NewConfig through a real cli invocation so flag
// defaults and env parsing behave as they do in main.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := cli.NewApp()
	app.Name = "ritm-acceptor-test"
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error {
		cfg, cfgErr = NewConfig(ctx, log.New(), ctx.String(flags.Plan.Name))
		return nil
	}
	err := app.Run(append([]string{"ritm-acceptor-test"}, args...))
	require.NoError(t, err)
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "--plan", "isolation_test.yaml")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.PlanPath))
	assert.True(t, filepath.IsAbs(cfg.WorkDir))
	assert.True(t, filepath.IsAbs(cfg.LogDir))
	assert.Equal(t, "logs", filepath.Base(cfg.LogDir))
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, time.Second, cfg.GracePeriod)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, time.Duration(0), cfg.RunInterval)
}

func TestNewConfigRunInterval(t *testing.T) {
	cfg, err := parseConfig(t, "--plan", "isolation_test.yaml", "--run-interval", "30m")
	require.NoError(t, err)

	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Minute, cfg.RunInterval)
}

func TestNewConfigTimeoutOverride(t *testing.T) {
	cfg, err := parseConfig(t, "--plan", "isolation_test.yaml", "--timeout", "45s")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestNewConfigNegativeTimeout(t *testing.T) {
	_, err := parseConfig(t, "--plan", "isolation_test.yaml", "--timeout", "-1s")
	require.ErrorContains(t, err, "timeout must not be negative")
}

func TestNewConfigWorkDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := parseConfig(t, "--plan", "isolation_test.yaml", "--workdir", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.WorkDir)
}

func TestNewConfigMissingPlan(t *testing.T) {
	app := cli.NewApp()
	app.Name = "ritm-acceptor-test"
	app.Flags = flags.Flags
	app.Action = func(ctx *cli.Context) error { return nil }
	err := app.Run([]string{"ritm-acceptor-test"})
	require.Error(t, err)
}
