// Package access answers permission questions for the bank's privileged
// operations. It is an external collaborator of the core: the pipelines
// consult it and never manage roles themselves.
package access

import "context"

// Permission names a privileged capability.
type Permission string

// PermissionRescue authorizes moving stuck assets out of custody.
const PermissionRescue Permission = "rescue"

// Guard reports whether a caller holds a permission.
type Guard interface {
	Allowed(ctx context.Context, caller string, perm Permission) bool
}

// GuardFunc adapts a plain function to the Guard interface.
type GuardFunc func(ctx context.Context, caller string, perm Permission) bool

// Allowed implements Guard.
func (f GuardFunc) Allowed(ctx context.Context, caller string, perm Permission) bool {
	return f(ctx, caller, perm)
}

// Static is a fixed caller-to-permissions table resolved at construction.
type Static struct {
	grants map[string]map[Permission]bool
}

var _ Guard = (*Static)(nil)

// NewStatic creates an empty Static guard.
func NewStatic() *Static {
	return &Static{grants: make(map[string]map[Permission]bool)}
}

// Grant gives caller the permission. Returns the guard for chaining.
func (s *Static) Grant(caller string, perm Permission) *Static {
	perms, ok := s.grants[caller]
	if !ok {
		perms = make(map[Permission]bool)
		s.grants[caller] = perms
	}
	perms[perm] = true
	return s
}

// Allowed implements Guard.
func (s *Static) Allowed(_ context.Context, caller string, perm Permission) bool {
	return s.grants[caller][perm]
}

// DenyAll rejects every caller. It is the default guard of a bank
// constructed without one.
func DenyAll() Guard {
	return GuardFunc(func(context.Context, string, Permission) bool { return false })
}
