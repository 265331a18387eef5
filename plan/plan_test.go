package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullPlan(t *testing.T) {
	data := []byte(`
steps:
  - name: build-payload
    command: cargo
    args: ["build", "--release", "--locked", "-p", "isolation_test"]
    dir: tests/isolation_test
  - command: make
    args: ["build.qemu", "PAYLOAD=payload.bin"]
    env:
      CARGO_TERM_COLOR: never
monitor:
  command: make
  args: ["qemu", "PAYLOAD=payload.bin"]
markers:
  success: "Isolation test passed."
  failure: "FAILED"
timeout: 45s
`)
	p, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, p.Steps, 2)
	assert.Equal(t, "build-payload", p.Steps[0].Name)
	assert.Equal(t, "make", p.Steps[1].Name) // defaulted from the command
	assert.Equal(t, "never", p.Steps[1].Env["CARGO_TERM_COLOR"])
	assert.Equal(t, "make", p.Monitor.Command)
	assert.Equal(t, DefaultMonitorName, p.Monitor.Name)
	assert.Equal(t, "Isolation test passed.", p.Markers.Success)
	assert.Equal(t, 45*time.Second, p.Timeout)
}

func TestParseDefaults(t *testing.T) {
	p, err := Parse([]byte("monitor:\n  command: make\n"))
	require.NoError(t, err)

	assert.Empty(t, p.Steps)
	assert.Equal(t, DefaultTimeout, p.Timeout)
	assert.Equal(t, DefaultSuccessMarker, p.Markers.Success)
	assert.Equal(t, DefaultFailureMarker, p.Markers.Failure)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing monitor command",
			yaml:    "steps:\n  - command: make\n",
			wantErr: "monitor command is required",
		},
		{
			name:    "step without command",
			yaml:    "steps:\n  - name: broken\nmonitor:\n  command: make\n",
			wantErr: "command is required",
		},
		{
			name:    "identical markers",
			yaml:    "monitor:\n  command: make\nmarkers:\n  success: X\n  failure: X\n",
			wantErr: "must differ",
		},
		{
			name:    "not yaml",
			yaml:    "{{nope",
			wantErr: "failed to parse plan",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  command: make\n  args: [qemu]\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "make", p.Monitor.Command)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "failed to read plan file")
}

func TestCommandResolution(t *testing.T) {
	p, err := Parse([]byte(`
steps:
  - name: relative
    command: cargo
    dir: tests/isolation_test
  - name: absolute
    command: cargo
    dir: /opt/build
  - name: unset
    command: cargo
monitor:
  command: make
`))
	require.NoError(t, err)

	cmds := p.BuildCommands("/work")
	require.Len(t, cmds, 3)
	assert.Equal(t, filepath.Join("/work", "tests/isolation_test"), cmds[0].Dir)
	assert.Equal(t, "/opt/build", cmds[1].Dir)
	assert.Equal(t, "/work", cmds[2].Dir)

	mon := p.MonitorCommand("/work")
	assert.Equal(t, "make", mon.Program)
	assert.Equal(t, "/work", mon.Dir)
	assert.Equal(t, DefaultMonitorName, mon.Name)
}
