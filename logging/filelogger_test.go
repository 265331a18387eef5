package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLoggerRequiresBaseDir(t *testing.T) {
	_, err := NewFileLogger("")
	require.Error(t, err)
}

func TestNewFileLoggerCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "logs")
	l, err := NewFileLogger(base)
	require.NoError(t, err)
	assert.Equal(t, base, l.BaseDir())

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRunLogWriteAndPath(t *testing.T) {
	l, err := NewFileLogger(t.TempDir())
	require.NoError(t, err)

	runLog, err := l.NewRunLog("run-abc")
	require.NoError(t, err)

	fmt.Fprintln(runLog, "booting payload")
	fmt.Fprintln(runLog, "Caught expected Data Abort! Isolation test passed.")
	require.NoError(t, runLog.Close())

	assert.Equal(t, filepath.Join(l.BaseDir(), "run-abc", "emulator.log"), runLog.Path())
	data, err := os.ReadFile(runLog.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "booting payload\n")
	assert.Contains(t, string(data), "Isolation test passed.\n")
}

func TestNewRunLogSeparateRuns(t *testing.T) {
	l, err := NewFileLogger(t.TempDir())
	require.NoError(t, err)

	first, err := l.NewRunLog("run-1")
	require.NoError(t, err)
	second, err := l.NewRunLog("run-2")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path(), second.Path())
	require.NoError(t, first.Close())
	require.NoError(t, second.Close())
}
