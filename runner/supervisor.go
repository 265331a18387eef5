package runner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/google/ritm-acceptor/types"
)

// ProcState tracks the subordinate process lifecycle.
type ProcState string

const (
	ProcRunning    ProcState = "running"
	ProcExited     ProcState = "exited"
	ProcTerminated ProcState = "terminated"
	ProcKilled     ProcState = "killed"
)

// Subordinate is an exclusively owned handle to the launched emulator
// process. Its stdout and stderr are merged into one stream and delivered
// line by line on Lines() as soon as each newline-terminated line is
// emitted. No other component may signal or read from the process directly.
type Subordinate struct {
	log     log.Logger
	cmd     *exec.Cmd
	pid     int
	lines   chan string
	done    chan struct{}
	stop    chan struct{}
	readEnd *os.File

	stopOnce sync.Once

	mu       sync.Mutex
	state    ProcState
	exitCode int
}

// Spawn launches the command in its own process group with stdout and
// stderr merged into a single pipe. Two goroutines service the handle: a
// pump delivering lines and a waiter reaping the exit status.
func Spawn(logger log.Logger, c types.Command) (*Subordinate, error) {
	cmd := exec.Command(c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = mergedEnv(c.Env)
	cmd.SysProcAttr = procGroupAttr()

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	logger.Info("Starting subordinate process", "cmd", c.String(), "dir", c.Dir)
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, fmt.Errorf("failed to start %q: %w", c.String(), err)
	}
	// The child holds its own copy of the write end; drop ours so EOF
	// arrives once the child's side closes.
	_ = w.Close()

	s := &Subordinate{
		log:     logger,
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		lines:   make(chan string, lineChannelDepth),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
		readEnd: r,
		state:   ProcRunning,
	}
	go s.pump()
	go s.wait()

	logger.Info("Subordinate started", "pid", s.pid)
	return s, nil
}

// pump reads the merged output stream and delivers each line. The channel
// is closed once the stream ends or the handle is released.
func (s *Subordinate) pump() {
	defer close(s.lines)
	sc := bufio.NewScanner(s.readEnd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		select {
		case s.lines <- sc.Text():
		case <-s.stop:
			return
		}
	}
}

// wait reaps the process and records its exit status.
func (s *Subordinate) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	if s.state == ProcRunning {
		s.state = ProcExited
	}
	if err != nil {
		exitErr := &exec.ExitError{}
		if errors.As(err, &exitErr) {
			s.exitCode = exitErr.ExitCode()
		} else {
			s.exitCode = -1
		}
	}
	s.mu.Unlock()

	close(s.done)
	s.log.Debug("Subordinate exited", "pid", s.pid, "exit_code", s.exitCode)
}

// Lines returns the merged output stream, one line per receive. The channel
// closes when the stream ends.
func (s *Subordinate) Lines() <-chan string { return s.lines }

// Done is closed once the process has exited and been reaped.
func (s *Subordinate) Done() <-chan struct{} { return s.done }

// Running reports whether the process has not yet exited.
func (s *Subordinate) Running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// PID returns the subordinate's process identifier.
func (s *Subordinate) PID() int { return s.pid }

// State returns the current lifecycle state.
func (s *Subordinate) State() ProcState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ExitCode returns the exit status. Valid only once Done is closed.
func (s *Subordinate) ExitCode() (int, bool) {
	if s.Running() {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode, true
}

// Terminate sends the graceful termination signal to the process group.
func (s *Subordinate) Terminate() error {
	s.setStoppedState(ProcTerminated)
	return s.signalGroup(syscall.SIGTERM)
}

// Kill forcefully kills the process group.
func (s *Subordinate) Kill() error {
	s.setStoppedState(ProcKilled)
	return s.signalGroup(syscall.SIGKILL)
}

func (s *Subordinate) setStoppedState(state ProcState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Kill escalation supersedes a terminate already in flight.
	if s.state == ProcRunning || (state == ProcKilled && s.state == ProcTerminated) {
		s.state = state
	}
}

// EnsureStopped guarantees the subordinate is not running when it returns:
// graceful terminate, bounded wait, then forceful kill. It is safe to call
// multiple times and must run on every exit path of the monitoring phase.
func (s *Subordinate) EnsureStopped(grace time.Duration) {
	defer s.release()

	if !s.Running() {
		return
	}

	s.log.Info("Stopping subordinate process", "pid", s.pid)
	if err := s.Terminate(); err != nil {
		s.log.Warn("Failed to terminate subordinate", "pid", s.pid, "err", err)
	}

	select {
	case <-s.done:
		return
	case <-time.After(grace):
	}

	s.log.Warn("Subordinate still running after grace period, killing process group", "pid", s.pid, "grace", grace)
	if err := s.Kill(); err != nil {
		s.log.Warn("Failed to kill subordinate", "pid", s.pid, "err", err)
	}
	// SIGKILL is not maskable; the waiter reaps the process shortly.
	<-s.done
}

// release tears down the handle's goroutines and the read end of the pipe.
func (s *Subordinate) release() {
	s.stopOnce.Do(func() {
		close(s.stop)
		_ = s.readEnd.Close()
	})
}
