package tools

import (
	"context"

	"github.com/anthic/corvus/pkg/security"
)

// execContextKey is an unexported context key type so only this package's
// accessors can retrieve the value, preventing collisions with other
// packages' context values.
type execContextKey struct{}

// ExecContext carries everything a tool's Execute needs beyond its raw
// input: the security adjudicator, the working directory, the owning
// session id, and an optional hook manager. It rides inside the
// context.Context passed to Execute rather than widening every tool's
// signature, keeping Execute(ctx, input) the same shape across the whole
// registry while still giving every tool access to these carriers.
type ExecContext struct {
	Security  *security.Context
	Cwd       string
	SessionID string
	Hooks     HookFirer // optional; nil if hooks are not wired for this call
}

// HookFirer is the subset of hooks.Runner a tool needs to fire its own
// nested lifecycle events (e.g. Task firing SubagentStart/SubagentStop).
// Defined locally, rather than importing pkg/hooks, to avoid a package
// cycle: pkg/hooks depends on pkg/agent's shared result types, and
// pkg/agent depends on pkg/tools for the registry it drives.
type HookFirer interface {
	Fire(ctx context.Context, event string, input any) (continueExecution bool, err error)
}

// WithExecContext attaches an ExecContext to ctx.
func WithExecContext(ctx context.Context, ec *ExecContext) context.Context {
	return context.WithValue(ctx, execContextKey{}, ec)
}

// ExecContextFrom retrieves the ExecContext attached to ctx, if any.
func ExecContextFrom(ctx context.Context) (*ExecContext, bool) {
	ec, ok := ctx.Value(execContextKey{}).(*ExecContext)
	return ec, ok
}

// SecurityFrom is a convenience accessor used by tools that only need the
// security adjudicator.
func SecurityFrom(ctx context.Context) *security.Context {
	if ec, ok := ExecContextFrom(ctx); ok {
		return ec.Security
	}
	return nil
}
