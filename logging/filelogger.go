// Package logging stores per-run copies of the subordinate's output stream.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

const outputFileName = "emulator.log"

// FileLogger creates one directory per run under a base directory and
// writes the run's emulator output there.
type FileLogger struct {
	baseDir string
}

// NewFileLogger creates a file logger rooted at baseDir.
func NewFileLogger(baseDir string) (*FileLogger, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileLogger{baseDir: baseDir}, nil
}

// BaseDir returns the root directory runs are stored under.
func (l *FileLogger) BaseDir() string { return l.baseDir }

// NewRunLog creates the output file for one run.
func (l *FileLogger) NewRunLog(runID string) (*RunLog, error) {
	dir := filepath.Join(l.baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	path := filepath.Join(dir, outputFileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	return &RunLog{f: f, path: path}, nil
}

// RunLog is the output file of a single run. It implements io.WriteCloser.
type RunLog struct {
	f    *os.File
	path string
}

func (r *RunLog) Write(p []byte) (int, error) { return r.f.Write(p) }

// Path returns the location of the run's output file.
func (r *RunLog) Path() string { return r.path }

func (r *RunLog) Close() error { return r.f.Close() }
