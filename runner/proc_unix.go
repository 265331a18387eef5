//go:build unix

package runner

import "syscall"

// procGroupAttr places the subordinate in its own process group so that
// termination signals reach its children as well (the monitored command is
// typically `make qemu`, with the emulator as a grandchild).
func procGroupAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signalGroup signals the subordinate's whole process group.
func (s *Subordinate) signalGroup(sig syscall.Signal) error {
	return syscall.Kill(-s.pid, sig)
}
