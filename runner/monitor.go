package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/google/ritm-acceptor/types"
)

// monitor consumes the subordinate's output until a terminal verdict, the
// subordinate's own exit, or the wall-clock deadline.
type monitor struct {
	log     log.Logger
	scanner *verdictScanner
	timeout time.Duration
	poll    time.Duration
	grace   time.Duration
	echo    io.Writer // diagnostic echo of every line, typically stdout
	sink    io.Writer // per-run output log, may be nil
}

// monitorResult is the outcome of one monitoring phase.
type monitorResult struct {
	Verdict         types.Verdict
	MatchedLine     string
	SubordinateExit *int
}

// expired reports whether the wall-clock budget is spent. The deadline is a
// single absolute instant; output activity does not extend it.
func expired(deadline, now time.Time) bool {
	return now.After(deadline)
}

// run scans output lines in emission order until a verdict is reached. The
// subordinate is guaranteed stopped when run returns, on every path,
// including errors.
func (m *monitor) run(ctx context.Context, sub *Subordinate) (res monitorResult, err error) {
	defer sub.EnsureStopped(m.grace)

	deadline := time.Now().Add(m.timeout)
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		// Re-evaluated on every iteration, including ones without output.
		if expired(deadline, time.Now()) {
			m.log.Warn("Monitoring deadline expired", "timeout", m.timeout)
			return monitorResult{Verdict: types.VerdictTimedOut}, nil
		}

		select {
		case line, ok := <-sub.Lines():
			if !ok {
				return m.exitedResult(sub), nil
			}
			if v := m.observe(line); v.Terminal() {
				return monitorResult{Verdict: v, MatchedLine: line}, nil
			}
		case <-sub.Done():
			// Output emitted before the exit may still carry a marker;
			// drain what is buffered before declaring an early exit.
			return m.drain(sub), nil
		case <-ticker.C:
		case <-ctx.Done():
			return monitorResult{}, ctx.Err()
		}
	}
}

// observe echoes one line for diagnostics and classifies it.
func (m *monitor) observe(line string) types.Verdict {
	if m.echo != nil {
		fmt.Fprintf(m.echo, "emulator: %s\n", line)
	}
	if m.sink != nil {
		fmt.Fprintln(m.sink, line)
	}
	return m.scanner.Classify(line)
}

// drain classifies output already buffered at exit time, bounded by a short
// grace so a closed-but-unflushed stream cannot stall the verdict.
func (m *monitor) drain(sub *Subordinate) monitorResult {
	timer := time.NewTimer(drainGrace)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-sub.Lines():
			if !ok {
				return m.exitedResult(sub)
			}
			if v := m.observe(line); v.Terminal() {
				return monitorResult{Verdict: v, MatchedLine: line}
			}
		case <-timer.C:
			return m.exitedResult(sub)
		}
	}
}

// exitedResult records an exit with no marker observed. The exit code is
// kept so a clean exit remains distinguishable from a crash in diagnostics.
func (m *monitor) exitedResult(sub *Subordinate) monitorResult {
	select {
	case <-sub.Done():
	case <-time.After(m.grace):
	}
	res := monitorResult{Verdict: types.VerdictExitedWithoutMarker}
	if code, exited := sub.ExitCode(); exited {
		res.SubordinateExit = &code
		m.log.Warn("Subordinate exited before reaching a verdict", "exit_code", code)
	} else {
		m.log.Warn("Subordinate output ended but process is still running")
	}
	return res
}
