// Package acceptor coordinates the emulator integration-test pipeline:
// build the payload through the external toolchain, monitor the emulator's
// output for verdict markers, and map the terminal verdict to a process
// exit status.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"

	"github.com/google/ritm-acceptor/exitcodes"
	"github.com/google/ritm-acceptor/logging"
	"github.com/google/ritm-acceptor/plan"
	"github.com/google/ritm-acceptor/runner"
	"github.com/google/ritm-acceptor/types"
)

// acceptor drives pipeline runs and owns the scoped lifetime of each run's
// subordinate process via the runner.
type acceptor struct {
	ctx     context.Context
	config  *Config
	version string
	plan    *plan.Plan
	runner  runner.PipelineRunner
	result  *types.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*acceptor, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating acceptor with config",
		"plan", config.PlanPath,
		"workDir", config.WorkDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	p, err := plan.Load(config.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load run plan: %w", err)
	}

	fileLogger, err := logging.NewFileLogger(config.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	pipelineRunner, err := runner.NewPipelineRunner(runner.Config{
		Plan:        p,
		WorkDir:     config.WorkDir,
		Log:         config.Log,
		Timeout:     config.Timeout,
		GracePeriod: config.GracePeriod,
		FileLogger:  fileLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline runner: %w", err)
	}
	config.Log.Info("acceptor.New: loaded plan and created pipeline runner", "steps", len(p.Steps))

	return &acceptor{
		ctx:              ctx,
		config:           config,
		version:          version,
		plan:             p,
		runner:           pipelineRunner,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the pipeline once, or periodically at the configured interval.
func (a *acceptor) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	a.ctx = ctx
	a.done = make(chan struct{})
	a.running.Store(true)

	if a.config.RunOnce {
		a.config.Log.Info("Starting ritm-acceptor in run-once mode")
	} else {
		a.config.Log.Info("Starting ritm-acceptor in continuous mode", "interval", a.config.RunInterval)
	}

	// Run the pipeline immediately on startup
	err := a.runPipeline(ctx)
	if err != nil {
		// For runtime errors (spawn failures, configuration issues), return exit code 2
		a.config.Log.Error("Runtime error running pipeline", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	// If in run-once mode, trigger shutdown and return
	if a.config.RunOnce {
		a.config.Log.Info("Run completed, exiting (run-once mode)")

		if a.result == nil || !a.result.Passed() {
			a.config.Log.Warn("Run-once pipeline completed without a passing verdict, returning exit code 1")
			msg := "no run result"
			if a.result != nil {
				msg = a.result.String()
			}
			return NewVerdictFailureError(msg)
		}

		// Only need to call this when we're in run-once mode and the run passed
		go func() {
			a.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	// Start a goroutine for periodic pipeline execution
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.config.Log.Debug("Starting periodic pipeline goroutine", "interval", a.config.RunInterval)

		for {
			select {
			case <-time.After(a.config.RunInterval):
				if !a.running.Load() {
					a.config.Log.Debug("Service stopped, exiting periodic pipeline goroutine")
					return
				}

				a.config.Log.Info("Running periodic pipeline")
				if err := a.runPipeline(ctx); err != nil {
					a.config.Log.Error("Error running periodic pipeline", "error", err)
				}

			case <-a.done:
				a.config.Log.Debug("Done signal received, stopping periodic pipeline goroutine")
				return

			case <-ctx.Done():
				a.config.Log.Debug("Context canceled, stopping periodic pipeline goroutine")
				a.running.Store(false)
				return
			}
		}
	}()
	a.config.Log.Debug("ritm-acceptor started successfully")
	return nil
}

// runPipeline runs the pipeline once and processes the result. Errors are
// returned only for runtime problems; build failures and failed verdicts
// are part of the result.
func (a *acceptor) runPipeline(ctx context.Context) error {
	a.config.Log.Info("Running pipeline...")
	result, err := a.runner.Run(ctx)
	a.result = result
	if result != nil {
		a.printResultsTable(result)
		fmt.Println(result.String())
	}
	if err != nil {
		a.config.Log.Error("Runtime error running pipeline", "error", err)
		return NewRuntimeError(err)
	}
	a.config.Log.Info("Pipeline run completed", "run_id", result.RunID, "verdict", result.Verdict, "failed_step", result.FailedStep)
	return nil
}

// Stop stops the acceptor service.
func (a *acceptor) Stop(ctx context.Context) error {
	a.config.Log.Info("Stopping ritm-acceptor")

	if !a.running.Load() {
		a.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new runs
	a.running.Store(false)

	a.config.Log.Debug("Sending done signal to goroutines")
	close(a.done)

	a.config.Log.Info("ritm-acceptor stopped successfully")
	return nil
}

// Stopped returns true if the acceptor service is stopped.
func (a *acceptor) Stopped() bool {
	return !a.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (a *acceptor) WaitForShutdown(ctx context.Context) error {
	a.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		a.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// printResultsTable prints the pipeline results to the console.
func (a *acceptor) printResultsTable(result *types.RunResult) {
	a.config.Log.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Integration Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Phase", "Name", "Duration", "Exit", "Status", "Detail",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Name", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, step := range result.Steps {
		status := "✓ pass"
		detail := ""
		if step.Err != nil {
			status = "✗ fail"
			detail = step.Err.Error()
		}
		t.AppendRow(table.Row{
			"Build",
			step.Name,
			formatDuration(step.Duration),
			step.ExitCode,
			status,
			detail,
		})
	}

	if !result.BuildFailed() {
		exit := "-"
		if result.SubordinateExit != nil {
			exit = fmt.Sprintf("%d", *result.SubordinateExit)
		}
		t.AppendRow(table.Row{
			"Monitor",
			a.plan.Monitor.Name,
			formatDuration(result.MonitorDuration),
			exit,
			getVerdictString(result.Verdict),
			result.MatchedLine,
		})
	}

	if result.Passed() {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(result.Duration),
		"",
		getVerdictString(result.Verdict),
		"",
	})

	t.Render()
}

// getVerdictString returns a short string representing the run verdict
func getVerdictString(verdict types.Verdict) string {
	switch verdict {
	case types.VerdictPassed:
		return "✓ pass"
	case types.VerdictTimedOut:
		return "✗ timeout"
	case types.VerdictExitedWithoutMarker:
		return "✗ exited"
	case types.VerdictPending:
		return "- not run"
	default:
		return "✗ fail"
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
