// Package security implements the TOCTOU-safe filesystem adjudicator, the
// shell command risk classifier, resource-limit application, and sandbox
// activation shared by every tool execution.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sys/unix"
)

const defaultMaxSymlinkDepth = 10

// Context is the aggregate security adjudicator shared immutably by all
// tools running under one top-level agent. It is safe for concurrent use
// after construction; nothing on it mutates post-New.
type Context struct {
	rootPath string
	root     *os.File // pinned directory handle standing in for a root FD

	denyPatterns  []string
	allowPatterns []string

	maxSymlinkDepth int

	Bash    *BashPolicy
	Limits  ResourceLimits
	Network NetworkSandbox
	Sandbox SandboxConfig

	mu sync.Mutex // guards nothing mutable today; reserved for future counters
}

// Option configures a Context at construction time.
type Option func(*Context)

// WithDenyPatterns sets path glob patterns that fail an Open even when the
// resolved path is inside root.
func WithDenyPatterns(patterns ...string) Option {
	return func(c *Context) { c.denyPatterns = append(c.denyPatterns, patterns...) }
}

// WithAllowPatterns sets path glob patterns that are always permitted
// (consulted before deny in callers that want explicit carve-outs).
func WithAllowPatterns(patterns ...string) Option {
	return func(c *Context) { c.allowPatterns = append(c.allowPatterns, patterns...) }
}

// WithMaxSymlinkDepth overrides the default symlink traversal depth (10).
func WithMaxSymlinkDepth(n int) Option {
	return func(c *Context) { c.maxSymlinkDepth = n }
}

// WithBashPolicy overrides the default shell command risk policy.
func WithBashPolicy(p *BashPolicy) Option {
	return func(c *Context) { c.Bash = p }
}

// WithResourceLimits overrides the default forked-child resource limits.
func WithResourceLimits(l ResourceLimits) Option {
	return func(c *Context) { c.Limits = l }
}

// WithSandboxConfig configures the OS-level sandbox.
func WithSandboxConfig(s SandboxConfig) Option {
	return func(c *Context) { c.Sandbox = s }
}

// New pins rootPath as the security root and constructs a Context ready
// for Open/CheckBash/CheckURL. rootPath must be an existing directory.
func New(rootPath string, opts ...Option) (*Context, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("security: resolve root: %w", err)
	}

	f, err := os.OpenFile(absRoot, os.O_RDONLY|unixODirectory(), 0)
	if err != nil {
		return nil, fmt.Errorf("security: open root: %w", err)
	}

	c := &Context{
		rootPath:        absRoot,
		root:            f,
		maxSymlinkDepth: defaultMaxSymlinkDepth,
		Bash:            DefaultBashPolicy(),
		Limits:          DefaultResourceLimits(),
		Sandbox:         SandboxConfig{Enabled: false},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the pinned root handle.
func (c *Context) Close() error {
	if c.root == nil {
		return nil
	}
	return c.root.Close()
}

// RootPath returns the pinned project root (for display/logging only; all
// actual file access must go through Open).
func (c *Context) RootPath() string { return c.rootPath }

// Open resolves path (absolute, or relative to root) through a TOCTOU-safe,
// component-by-component walk: each intermediate component is opened
// relative to the last resolved directory FD with O_NOFOLLOW, so a symlink
// swapped in between check and use cannot redirect the walk. A symlink
// encountered at any component is explicitly read and followed, counted
// against maxSymlinkDepth. The fully resolved path is checked against deny
// patterns before the terminal open. All reads/writes must happen through
// the returned handle; the caller must never re-open by the original
// string path.
func (c *Context) Open(path string, flag int, perm os.FileMode) (*os.File, error) {
	rel, err := c.relativize(path)
	if err != nil {
		return nil, err
	}

	dirFd := int(c.root.Fd())
	closeDirFd := func() {} // root fd is owned by c, never closed here

	components := splitComponents(rel)
	if len(components) == 0 {
		// Opening the root itself.
		return c.root, nil
	}

	depth := 0
	resolvedSoFar := ""

	for i, comp := range components {
		isLast := i == len(components)-1
		var openFlags int
		if isLast {
			openFlags = flag | unix.O_NOFOLLOW
		} else {
			openFlags = unix.O_DIRECTORY | unix.O_NOFOLLOW | os.O_RDONLY
		}

		fd, openErr := unix.Openat(dirFd, comp, openFlags, uint32(perm))
		if openErr == unix.ELOOP || openErr == unix.EMLINK {
			// comp is a symlink; resolve and follow it.
			target, linkErr := c.readlinkat(dirFd, comp)
			if linkErr != nil {
				closeDirFd()
				return nil, fmt.Errorf("security: readlink %s: %w", comp, linkErr)
			}
			depth++
			if depth > c.maxSymlinkDepth {
				closeDirFd()
				return nil, newError(KindSymlinkDepthExceeded, resolvedSoFar+"/"+comp,
					fmt.Sprintf("exceeded max depth %d", c.maxSymlinkDepth))
			}

			next, resolveErr := c.resolveSymlinkTarget(resolvedSoFar, target)
			if resolveErr != nil {
				closeDirFd()
				return nil, resolveErr
			}
			// Restart the walk for this component from the resolved target,
			// reusing the remaining path components after it.
			remaining := append(splitComponents(next), components[i+1:]...)
			return c.openFromRoot(remaining, flag, perm, depth)
		}
		if openErr != nil {
			closeDirFd()
			return nil, fmt.Errorf("security: open %s: %w", comp, openErr)
		}

		if !isLast {
			if dirFd != int(c.root.Fd()) {
				unix.Close(dirFd)
			}
			dirFd = fd
			if resolvedSoFar == "" {
				resolvedSoFar = comp
			} else {
				resolvedSoFar = resolvedSoFar + "/" + comp
			}
			continue
		}

		// Final component successfully opened without following a symlink.
		finalPath := filepath.Join(c.rootPath, rel)
		if err := c.checkDenyPatterns(finalPath); err != nil {
			unix.Close(fd)
			return nil, err
		}
		return os.NewFile(uintptr(fd), finalPath), nil
	}

	return nil, fmt.Errorf("security: unreachable open state for %s", path)
}

// openFromRoot re-walks a component list starting over from the pinned
// root, used after a symlink redirection. depth carries the already-spent
// symlink budget across the restart.
func (c *Context) openFromRoot(components []string, flag int, perm os.FileMode, depth int) (*os.File, error) {
	dirFd := int(c.root.Fd())
	resolvedSoFar := ""

	for i, comp := range components {
		isLast := i == len(components)-1
		var openFlags int
		if isLast {
			openFlags = flag | unix.O_NOFOLLOW
		} else {
			openFlags = unix.O_DIRECTORY | unix.O_NOFOLLOW | os.O_RDONLY
		}

		fd, openErr := unix.Openat(dirFd, comp, openFlags, uint32(perm))
		if openErr == unix.ELOOP || openErr == unix.EMLINK {
			target, linkErr := c.readlinkat(dirFd, comp)
			if linkErr != nil {
				return nil, fmt.Errorf("security: readlink %s: %w", comp, linkErr)
			}
			depth++
			if depth > c.maxSymlinkDepth {
				return nil, newError(KindSymlinkDepthExceeded, resolvedSoFar+"/"+comp,
					fmt.Sprintf("exceeded max depth %d", c.maxSymlinkDepth))
			}
			next, resolveErr := c.resolveSymlinkTarget(resolvedSoFar, target)
			if resolveErr != nil {
				return nil, resolveErr
			}
			remaining := append(splitComponents(next), components[i+1:]...)
			return c.openFromRoot(remaining, flag, perm, depth)
		}
		if openErr != nil {
			return nil, fmt.Errorf("security: open %s: %w", comp, openErr)
		}

		if !isLast {
			if dirFd != int(c.root.Fd()) {
				unix.Close(dirFd)
			}
			dirFd = fd
			if resolvedSoFar == "" {
				resolvedSoFar = comp
			} else {
				resolvedSoFar = resolvedSoFar + "/" + comp
			}
			continue
		}

		finalPath := filepath.Join(c.rootPath, strings.Join(components, "/"))
		if err := c.checkDenyPatterns(finalPath); err != nil {
			unix.Close(fd)
			return nil, err
		}
		return os.NewFile(uintptr(fd), finalPath), nil
	}

	return nil, fmt.Errorf("security: empty component list")
}

func (c *Context) readlinkat(dirFd int, comp string) (string, error) {
	buf := make([]byte, 4096)
	n, err := unix.Readlinkat(dirFd, comp, buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// resolveSymlinkTarget turns a symlink target (absolute or relative to
// resolvedSoFar) into a root-relative path, failing closed if it escapes.
func (c *Context) resolveSymlinkTarget(resolvedSoFar, target string) (string, error) {
	var abs string
	if filepath.IsAbs(target) {
		abs = filepath.Clean(target)
	} else {
		abs = filepath.Clean(filepath.Join(c.rootPath, resolvedSoFar, target))
	}
	rel, err := filepath.Rel(c.rootPath, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", newError(KindPathOutsideRoot, abs, "symlink target escapes root")
	}
	return rel, nil
}

// relativize converts an absolute or root-relative path into a clean,
// root-relative path, failing if it resolves outside root.
func (c *Context) relativize(path string) (string, error) {
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Clean(filepath.Join(c.rootPath, path))
	}
	rel, err := filepath.Rel(c.rootPath, abs)
	if err != nil {
		return "", newError(KindPathOutsideRoot, path, err.Error())
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", newError(KindPathOutsideRoot, path, "resolves outside root")
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// CheckPath validates that path resolves inside root and doesn't match a
// deny pattern, returning the resolved absolute path. Unlike Open it does
// not pin a file descriptor, so it is not TOCTOU-safe on its own — it exists
// for read-only, string-path-based third-party APIs (glob expansion, grep)
// where wrapping every match in an Open is impractical. Callers that
// actually read file contents should still route through Open.
func (c *Context) CheckPath(path string) (string, error) {
	rel, err := c.relativize(path)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(c.rootPath, rel)
	if err := c.checkDenyPatterns(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (c *Context) checkDenyPatterns(finalPath string) error {
	for _, allow := range c.allowPatterns {
		if ok, _ := doublestar.Match(allow, finalPath); ok {
			return nil
		}
	}
	for _, deny := range c.denyPatterns {
		if ok, _ := doublestar.Match(deny, finalPath); ok {
			return newError(KindDeniedPattern, finalPath, "matches deny pattern "+deny)
		}
	}
	return nil
}

func splitComponents(rel string) []string {
	if rel == "" {
		return nil
	}
	parts := strings.Split(rel, string(filepath.Separator))
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// unixODirectory exists so the root handle is opened as a directory on
// platforms where os.O_DIRECTORY isn't exported identically; kept as a
// tiny indirection point rather than importing unix into New's signature.
func unixODirectory() int { return unix.O_DIRECTORY }
