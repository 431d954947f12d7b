package security

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	root := t.TempDir()
	c, err := New(root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_SimpleFileInsideRoot(t *testing.T) {
	c := newTestContext(t)
	root := c.RootPath()

	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0o644))

	f, err := c.Open("hello.txt", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer f.Close()

	data := make([]byte, 2)
	n, err := f.Read(data)
	require.NoError(t, err)
	require.Equal(t, "hi", string(data[:n]))
}

func TestOpen_NestedDirectory(t *testing.T) {
	c := newTestContext(t)
	root := c.RootPath()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "c.txt"), []byte("nested"), 0o644))

	f, err := c.Open(filepath.Join(root, "a", "b", "c.txt"), os.O_RDONLY, 0)
	require.NoError(t, err)
	f.Close()
}

func TestOpen_PathOutsideRoot(t *testing.T) {
	c := newTestContext(t)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))

	_, err := c.Open(filepath.Join(outside, "secret.txt"), os.O_RDONLY, 0)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindPathOutsideRoot, secErr.Kind)
}

func TestOpen_RelativeDotDotEscape(t *testing.T) {
	c := newTestContext(t)

	_, err := c.Open("../../../etc/passwd", os.O_RDONLY, 0)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindPathOutsideRoot, secErr.Kind)
}

func TestOpen_DeniedPattern(t *testing.T) {
	c := newTestContext(t, WithDenyPatterns("**/*.secret"))
	root := c.RootPath()

	require.NoError(t, os.WriteFile(filepath.Join(root, "creds.secret"), []byte("x"), 0o644))

	_, err := c.Open("creds.secret", os.O_RDONLY, 0)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindDeniedPattern, secErr.Kind)
}

func TestOpen_AllowPatternOverridesDeny(t *testing.T) {
	c := newTestContext(t, WithDenyPatterns("**/*.secret"), WithAllowPatterns("**/allowed.secret"))
	root := c.RootPath()

	require.NoError(t, os.WriteFile(filepath.Join(root, "allowed.secret"), []byte("x"), 0o644))

	f, err := c.Open("allowed.secret", os.O_RDONLY, 0)
	require.NoError(t, err)
	f.Close()
}

func TestOpen_SymlinkChainWithinMaxDepth(t *testing.T) {
	const depth = 3
	c := newTestContext(t, WithMaxSymlinkDepth(depth))
	root := c.RootPath()

	require.NoError(t, os.WriteFile(filepath.Join(root, "target.txt"), []byte("final"), 0o644))

	// link0 -> target.txt, link1 -> link0, ..., linkN-1 -> linkN-2
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link0")))
	for i := 1; i < depth; i++ {
		require.NoError(t, os.Symlink(
			"link"+strconv.Itoa(i-1), filepath.Join(root, "link"+strconv.Itoa(i))))
	}

	f, err := c.Open("link"+strconv.Itoa(depth-1), os.O_RDONLY, 0)
	require.NoError(t, err)
	f.Close()
}

func TestOpen_SymlinkChainExceedsMaxDepth(t *testing.T) {
	const depth = 3
	c := newTestContext(t, WithMaxSymlinkDepth(depth))
	root := c.RootPath()

	require.NoError(t, os.WriteFile(filepath.Join(root, "target.txt"), []byte("final"), 0o644))

	// One link further than the depth boundary above.
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link0")))
	for i := 1; i <= depth; i++ {
		require.NoError(t, os.Symlink(
			"link"+strconv.Itoa(i-1), filepath.Join(root, "link"+strconv.Itoa(i))))
	}

	_, err := c.Open("link"+strconv.Itoa(depth), os.O_RDONLY, 0)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindSymlinkDepthExceeded, secErr.Kind)
}

func TestOpen_SymlinkEscapingRoot(t *testing.T) {
	c := newTestContext(t)
	root := c.RootPath()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))

	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "escape")))

	_, err := c.Open("escape", os.O_RDONLY, 0)
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindPathOutsideRoot, secErr.Kind)
}

func TestCheckPath_ResolvesAndDenies(t *testing.T) {
	c := newTestContext(t, WithDenyPatterns("**/*.secret"))
	root := c.RootPath()

	resolved, err := c.CheckPath(filepath.Join(root, "sub"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "sub"), resolved)

	_, err = c.CheckPath(filepath.Join(root, "x.secret"))
	require.Error(t, err)
	var secErr *Error
	require.ErrorAs(t, err, &secErr)
	require.Equal(t, KindDeniedPattern, secErr.Kind)
}
