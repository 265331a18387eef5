package runner

import "time"

const (
	// DefaultGracePeriod is the bounded wait between the graceful terminate
	// signal and the forceful kill.
	DefaultGracePeriod = 1 * time.Second

	// DefaultPollInterval bounds how long the monitor loop may go without
	// re-evaluating the deadline when no output line is available.
	DefaultPollInterval = 100 * time.Millisecond

	// drainGrace bounds how long already-emitted output is drained after the
	// subordinate exits before the run is classified.
	drainGrace = 250 * time.Millisecond

	// lineChannelDepth buffers lines between the pump goroutine and the
	// monitor loop.
	lineChannelDepth = 256

	// maxLineBytes caps a single scanned output line.
	maxLineBytes = 1024 * 1024
)
