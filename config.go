package acceptor

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/google/ritm-acceptor/flags"
)

// Config holds the application configuration
type Config struct {
	PlanPath    string        // Path to the run plan file
	WorkDir     string        // Project root the plan's relative paths resolve against
	LogDir      string        // Directory to store per-run emulator output logs
	Timeout     time.Duration // Override for the plan's monitoring timeout (0 = plan value)
	GracePeriod time.Duration // Wait between terminate and kill
	RunInterval time.Duration // Interval between runs
	RunOnce     bool          // Indicates if the service should exit after one run
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, planPath string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if planPath == "" {
		return nil, errors.New("run plan file is required")
	}

	absPlanPath, err := filepath.Abs(planPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for plan '%s': %w", planPath, err)
	}

	workDir := ctx.String(flags.WorkDir.Name)
	absWorkDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory '%s': %w", workDir, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	absLogDir, err := filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	timeout := ctx.Duration(flags.Timeout.Name)
	if timeout < 0 {
		return nil, errors.New("timeout must not be negative")
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		PlanPath:    absPlanPath,
		WorkDir:     absWorkDir,
		LogDir:      absLogDir,
		Timeout:     timeout,
		GracePeriod: ctx.Duration(flags.GracePeriod.Name),
		RunInterval: runInterval,
		RunOnce:     runOnce,
		Log:         log,
	}, nil
}
