// Package plan loads and validates the YAML run plan: the ordered build
// steps, the monitored emulator command, the marker set and the monitoring
// timeout.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/google/ritm-acceptor/types"
)

// Defaults applied to a plan that leaves the corresponding fields unset.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultSuccessMarker = "Caught expected Data Abort! Isolation test passed."
	DefaultFailureMarker = "FAILED"
	DefaultMonitorName   = "emulator"
)

// Step is one build invocation, executed to completion before the next.
type Step struct {
	Name    string            `yaml:"name,omitempty"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Monitor is the long-running command whose output stream is scanned.
type Monitor struct {
	Name    string            `yaml:"name,omitempty"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Plan is a full run definition.
type Plan struct {
	Steps   []Step          `yaml:"steps,omitempty"`
	Monitor Monitor         `yaml:"monitor"`
	Markers types.MarkerSet `yaml:"markers,omitempty"`
	Timeout time.Duration   `yaml:"timeout,omitempty"`
}

// Load reads a plan file, applies defaults and validates it.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes plan YAML, applies defaults and validates it.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	p.applyDefaults()
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &p, nil
}

func (p *Plan) applyDefaults() {
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Markers.Success == "" {
		p.Markers.Success = DefaultSuccessMarker
	}
	if p.Markers.Failure == "" {
		p.Markers.Failure = DefaultFailureMarker
	}
	if p.Monitor.Name == "" {
		p.Monitor.Name = DefaultMonitorName
	}
	for i := range p.Steps {
		if p.Steps[i].Name == "" {
			p.Steps[i].Name = filepath.Base(p.Steps[i].Command)
		}
	}
}

func (p *Plan) validate() error {
	for i, s := range p.Steps {
		if s.Command == "" {
			return fmt.Errorf("step %d (%s): command is required", i, s.Name)
		}
	}
	if p.Monitor.Command == "" {
		return fmt.Errorf("monitor command is required")
	}
	if err := p.Markers.Validate(); err != nil {
		return err
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// BuildCommands returns the build steps as immutable commands with their
// working directories resolved against workDir.
func (p *Plan) BuildCommands(workDir string) []types.Command {
	cmds := make([]types.Command, 0, len(p.Steps))
	for _, s := range p.Steps {
		cmds = append(cmds, types.Command{
			Name:    s.Name,
			Program: s.Command,
			Args:    s.Args,
			Dir:     resolveDir(workDir, s.Dir),
			Env:     s.Env,
		})
	}
	return cmds
}

// MonitorCommand returns the monitored command with its working directory
// resolved against workDir.
func (p *Plan) MonitorCommand(workDir string) types.Command {
	return types.Command{
		Name:    p.Monitor.Name,
		Program: p.Monitor.Command,
		Args:    p.Monitor.Args,
		Dir:     resolveDir(workDir, p.Monitor.Dir),
		Env:     p.Monitor.Env,
	}
}

func resolveDir(workDir, dir string) string {
	if dir == "" {
		return workDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(workDir, dir)
}
