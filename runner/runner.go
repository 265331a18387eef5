// Package runner implements the orchestration pipeline: sequential build
// steps, then supervision of one long-running emulator process whose output
// is scanned for verdict markers under a wall-clock deadline.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/google/ritm-acceptor/logging"
	"github.com/google/ritm-acceptor/metrics"
	"github.com/google/ritm-acceptor/plan"
	"github.com/google/ritm-acceptor/types"
)

// PipelineRunner runs the build phase, then monitors the emulator until a
// terminal verdict.
type PipelineRunner interface {
	Run(ctx context.Context) (*types.RunResult, error)
}

// Config holds configuration for creating a pipeline runner.
type Config struct {
	Plan         *plan.Plan
	WorkDir      string
	Log          log.Logger
	Timeout      time.Duration // overrides the plan's timeout when nonzero
	GracePeriod  time.Duration
	PollInterval time.Duration
	FileLogger   *logging.FileLogger // optional per-run output log
}

// pipeline implements PipelineRunner
type pipeline struct {
	plan       *plan.Plan
	workDir    string
	log        log.Logger
	timeout    time.Duration
	grace      time.Duration
	poll       time.Duration
	fileLogger *logging.FileLogger
	tracer     trace.Tracer
}

// NewPipelineRunner creates a new pipeline runner instance
func NewPipelineRunner(cfg Config) (PipelineRunner, error) {
	if cfg.Plan == nil {
		return nil, fmt.Errorf("plan is required")
	}
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = cfg.Plan.Timeout
	}
	grace := cfg.GracePeriod
	if grace == 0 {
		grace = DefaultGracePeriod
	}
	poll := cfg.PollInterval
	if poll == 0 {
		poll = DefaultPollInterval
	}

	return &pipeline{
		plan:       cfg.Plan,
		workDir:    cfg.WorkDir,
		log:        cfg.Log,
		timeout:    timeout,
		grace:      grace,
		poll:       poll,
		fileLogger: cfg.FileLogger,
		tracer:     otel.Tracer("pipeline runner"),
	}, nil
}

// Run executes one full pipeline: Building, then Monitoring, then Terminal.
// Build failures are recorded in the result; only runtime problems (a
// subordinate that cannot be spawned, cancellation) are returned as errors.
// The subordinate is guaranteed not to be running when Run returns.
func (p *pipeline) Run(ctx context.Context) (*types.RunResult, error) {
	runID := uuid.New().String()
	logger := p.log.New("run_id", runID)
	result := &types.RunResult{
		RunID:   runID,
		Verdict: types.VerdictPending,
	}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
	}()

	// Building. Waits here are bounded by the toolchain itself, not by the
	// monitoring deadline.
	ctx, buildSpan := p.tracer.Start(ctx, "build phase")
	for _, c := range p.plan.BuildCommands(p.workDir) {
		stepRes, err := RunCommand(ctx, logger, c)
		result.Steps = append(result.Steps, stepRes)
		metrics.RecordBuildStep(runID, c.Name, err == nil)
		if err != nil {
			result.FailedStep = c.Name
			buildSpan.End()
			logger.Error("Build phase failed, aborting pipeline", "step", c.Name)
			return result, nil
		}
	}
	buildSpan.End()

	// Monitoring.
	ctx, monitorSpan := p.tracer.Start(ctx, "monitor phase")
	defer monitorSpan.End()

	var sink *logging.RunLog
	if p.fileLogger != nil {
		var err error
		sink, err = p.fileLogger.NewRunLog(runID)
		if err != nil {
			logger.Warn("Failed to create run log, output will not be stored", "err", err)
		} else {
			result.LogPath = sink.Path()
			defer func() {
				_ = sink.Close()
			}()
		}
	}

	monitorStart := time.Now()
	sub, err := Spawn(logger, p.plan.MonitorCommand(p.workDir))
	if err != nil {
		metrics.RecordErrorDetails("spawn failed", err)
		return result, fmt.Errorf("failed to spawn subordinate: %w", err)
	}

	mon := &monitor{
		log:     logger,
		scanner: newVerdictScanner(p.plan.Markers),
		timeout: p.timeout,
		poll:    p.poll,
		grace:   p.grace,
		echo:    os.Stdout,
	}
	if sink != nil {
		mon.sink = sink
	}

	mres, err := mon.run(ctx, sub)
	result.MonitorDuration = time.Since(monitorStart)
	if err != nil {
		return result, fmt.Errorf("monitoring interrupted: %w", err)
	}

	result.Verdict = mres.Verdict
	result.MatchedLine = mres.MatchedLine
	result.SubordinateExit = mres.SubordinateExit
	metrics.RecordRun(runID, result.Verdict, time.Since(start), result.MonitorDuration)

	logger.Info("Monitoring complete", "verdict", result.Verdict, "duration", result.MonitorDuration)
	return result, nil
}

// Make sure the pipeline type implements the interface
var _ PipelineRunner = &pipeline{}
