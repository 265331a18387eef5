package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	acceptor "github.com/google/ritm-acceptor"
	"github.com/google/ritm-acceptor/exitcodes"
	"github.com/google/ritm-acceptor/flags"
	"github.com/google/ritm-acceptor/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "ritm-acceptor"
	app.Usage = "RITM Emulator Integration Test Orchestrator"
	app.Description = "ritm-acceptor builds a test payload, boots it under an emulator and scans the output stream for a verdict"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if acceptor.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if acceptor.IsVerdictFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.VerdictFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.VerdictFailure))
			}
		}
	}

	// Start telemetry
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	svc := service.New()
	svc.Start(ctx)
	defer svc.Shutdown()

	// Start CLI
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger := setupLogging(ctx)

	cfg, err := acceptor.NewConfig(ctx, logger, ctx.String(flags.Plan.Name))
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	logger.Debug("Config", "plan", cfg.PlanPath, "workdir", cfg.WorkDir, "timeout", cfg.Timeout)

	stopped := make(chan error, 1)
	svc, err := acceptor.New(ctx.Context, cfg, Version, func(err error) {
		stopped <- err
	})
	if err != nil {
		return acceptor.NewRuntimeError(fmt.Errorf("failed to create acceptor: %w", err))
	}

	if err := svc.Start(ctx.Context); err != nil {
		return err
	}

	select {
	case err := <-stopped:
		// Run-once completion
		_ = svc.Stop(context.Background())
		return err
	case <-ctx.Context.Done():
		logger.Info("Interrupted, shutting down")
		return svc.Stop(context.Background())
	}
}

func setupLogging(ctx *cli.Context) log.Logger {
	lvl, err := log.LvlFromString(ctx.String(flags.LogLevel.Name))
	if err != nil {
		lvl = log.LevelInfo
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false))
	log.SetDefault(logger)
	return logger
}
