package policy

import (
	"context"

	gate "github.com/diewo77/freelance-pro/go-gate"
)

// Ownable is implemented by every record that carries a user_id.
type Ownable interface {
	GetUserID() string
}

// OwnershipPolicy allows an action when the user owns the resource.
// Works with any model that implements the Ownable interface.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the user owns the resource.
// Reset wipes the records of every user and is never granted here; only
// AdminBypassPolicy lets it through. For list and create (resource is nil)
// it returns true: list is filtered per record and create assigns the
// requesting user as owner.
func (p *OwnershipPolicy) Can(_ context.Context, userID string, action gate.Action, resource any) bool {
	if action == gate.ActionReset {
		return false
	}
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// deny resources without ownership information
		return false
	}
	return ownable.GetUserID() == userID
}

// AdminBypassPolicy wraps another policy and always allows access for admins.
type AdminBypassPolicy struct {
	inner       gate.Policy[string]
	isAdminFunc func(ctx context.Context, userID string) bool
}

func NewAdminBypassPolicy(inner gate.Policy[string], isAdminFunc func(ctx context.Context, userID string) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdminFunc: isAdminFunc}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, userID string, action gate.Action, resource any) bool {
	if p.isAdminFunc(ctx, userID) {
		return true
	}
	return p.inner.Can(ctx, userID, action, resource)
}
