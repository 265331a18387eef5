package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/google/ritm-acceptor/types"
)

// BuildError reports a build step that exited nonzero (or could not run).
// Build failures are deterministic, so the pipeline aborts on the first one
// with no retries and without ever spawning the subordinate.
type BuildError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build step %q failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("build step %q failed with exit code %d", e.Step, e.ExitCode)
}

// Unwrap implements the errors.Unwrap interface
func (e *BuildError) Unwrap() error {
	return e.Err
}

// IsBuildError checks if the error is or wraps a BuildError
func IsBuildError(err error) bool {
	var buildErr *BuildError
	return err != nil && errors.As(err, &buildErr)
}

// RunCommand executes one external command to completion with the tool's own
// output inherited, echoing the invocation and its outcome. A nonzero exit
// status yields a *BuildError.
func RunCommand(ctx context.Context, logger log.Logger, c types.Command) (types.StepResult, error) {
	logger.Info("Running build step", "step", c.Name, "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = mergedEnv(c.Env)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	start := time.Now()
	runErr := cmd.Run()
	res := types.StepResult{
		Name:     c.Name,
		Command:  c.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		exitErr := &exec.ExitError{}
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = &BuildError{Step: c.Name, ExitCode: res.ExitCode}
		} else {
			res.ExitCode = -1
			res.Err = &BuildError{Step: c.Name, ExitCode: -1, Err: runErr}
		}
		logger.Error("Build step failed", "step", c.Name, "exit_code", res.ExitCode, "duration", res.Duration)
		return res, res.Err
	}

	logger.Info("Build step succeeded", "step", c.Name, "duration", res.Duration)
	return res, nil
}

// mergedEnv layers the command's overrides on top of the inherited
// environment. Later duplicates win per the os/exec contract.
func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil // inherit unchanged
	}
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}
