package types

import (
	"fmt"
	"strings"
	"time"
)

// Verdict is the terminal classification of a monitored emulator run.
type Verdict string

const (
	VerdictPending             Verdict = "pending"
	VerdictPassed              Verdict = "pass"
	VerdictFailed              Verdict = "fail"
	VerdictTimedOut            Verdict = "timeout"
	VerdictExitedWithoutMarker Verdict = "exited-without-verdict"
)

// Terminal reports whether the verdict is final. A verdict transitions at
// most once, from VerdictPending to one of the terminal values.
func (v Verdict) Terminal() bool {
	return v != VerdictPending && v != ""
}

// Passed reports whether the verdict is the single successful outcome.
func (v Verdict) Passed() bool {
	return v == VerdictPassed
}

// MarkerSet holds the two literal substrings that signal the outcome of a
// run on the subordinate's output stream.
type MarkerSet struct {
	Success string `yaml:"success"`
	Failure string `yaml:"failure"`
}

// Validate checks the markers are usable. The two markers may overlap
// textually; a line matching both resolves to success, so only emptiness
// and equality are rejected.
func (m MarkerSet) Validate() error {
	if m.Success == "" {
		return fmt.Errorf("success marker is required")
	}
	if m.Failure == "" {
		return fmt.Errorf("failure marker is required")
	}
	if m.Success == m.Failure {
		return fmt.Errorf("success and failure markers must differ")
	}
	return nil
}

// Command describes one external invocation. It is immutable once
// constructed; the pipeline creates one per step.
type Command struct {
	Name    string            // step label used in logs and results
	Program string            // program to invoke
	Args    []string          // ordered argument list
	Dir     string            // working directory
	Env     map[string]string // environment overrides on top of the inherited environment
}

// String renders the invocation the way a shell would see it.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// StepResult records the outcome of one build step.
type StepResult struct {
	Name     string
	Command  string
	ExitCode int
	Duration time.Duration
	Err      error
}

// RunResult captures the complete outcome of one pipeline run.
type RunResult struct {
	RunID      string
	Steps      []StepResult
	FailedStep string // name of the build step that aborted the pipeline, if any

	Verdict         Verdict
	MatchedLine     string // the output line that decided the verdict, if any
	SubordinateExit *int   // exit code when the subordinate exited on its own
	LogPath         string // per-run copy of the subordinate's output stream

	Duration        time.Duration
	MonitorDuration time.Duration
}

// Passed reports whether the run reached the successful terminal state.
func (r *RunResult) Passed() bool {
	return r.FailedStep == "" && r.Verdict.Passed()
}

// BuildFailed reports whether a build step aborted the pipeline before the
// subordinate was ever spawned.
func (r *RunResult) BuildFailed() bool {
	return r.FailedStep != ""
}

func (r *RunResult) String() string {
	if r.BuildFailed() {
		return fmt.Sprintf("run %s: build failed at step %q after %.1fs", r.RunID, r.FailedStep, r.Duration.Seconds())
	}
	s := fmt.Sprintf("run %s: verdict=%s duration=%.1fs monitoring=%.1fs", r.RunID, r.Verdict, r.Duration.Seconds(), r.MonitorDuration.Seconds())
	if r.SubordinateExit != nil {
		s += fmt.Sprintf(" subordinate_exit=%d", *r.SubordinateExit)
	}
	return s
}
