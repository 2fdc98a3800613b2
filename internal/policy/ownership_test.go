package policy_test

import (
	"context"
	"testing"

	gate "github.com/diewo77/freelance-pro/go-gate"
	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/diewo77/freelance-pro/internal/policy"
)

// mockNonOwnable is a test resource that does NOT implement Ownable.
type mockNonOwnable struct {
	ID string
}

func owned(userID string) *models.Client {
	return &models.Client{Meta: models.Meta{ID: "client-1", UserID: userID}, Name: "Acme"}
}

func TestOwnershipPolicy_NilResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()

	if !p.Can(ctx, "user-1", gate.ActionList, nil) {
		t.Error("Expected Can to return true for nil resource")
	}
	if !p.Can(ctx, "user-1", gate.ActionCreate, nil) {
		t.Error("Expected Can to return true for nil resource on create")
	}
}

func TestOwnershipPolicy_OwnerCanAccess(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resource := owned("user-42")

	for _, a := range []gate.Action{gate.ActionView, gate.ActionUpdate, gate.ActionDelete} {
		if !p.Can(ctx, "user-42", a, resource) {
			t.Errorf("Expected owner to have access for %s", a)
		}
	}
}

func TestOwnershipPolicy_NonOwnerDenied(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resource := owned("user-42")

	for _, a := range []gate.Action{gate.ActionView, gate.ActionUpdate, gate.ActionDelete} {
		if p.Can(ctx, "user-99", a, resource) {
			t.Errorf("Expected non-owner to be denied for %s", a)
		}
	}
}

func TestOwnershipPolicy_NonOwnableResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if p.Can(context.Background(), "user-1", gate.ActionView, &mockNonOwnable{ID: "x"}) {
		t.Error("Expected non-Ownable resource to be denied")
	}
}

func TestAdminBypassPolicy(t *testing.T) {
	isAdmin := func(_ context.Context, userID string) bool { return userID == "admin" }
	p := policy.NewAdminBypassPolicy(policy.NewOwnershipPolicy(), isAdmin)
	ctx := context.Background()
	resource := owned("user-42")

	if !p.Can(ctx, "admin", gate.ActionDelete, resource) {
		t.Error("Expected admin to bypass ownership check")
	}
	if !p.Can(ctx, "user-42", gate.ActionView, resource) {
		t.Error("Expected owner to have access")
	}
	if p.Can(ctx, "user-99", gate.ActionView, resource) {
		t.Error("Expected non-owner non-admin to be denied")
	}
}

func TestNewGate(t *testing.T) {
	ctx := context.Background()
	g := policy.NewGate([]string{"admin"})

	for _, r := range policy.Resources {
		if !g.Registered(r) {
			t.Errorf("expected %s to be registered", r)
		}
	}
	inv := &models.Invoice{Meta: models.Meta{ID: "inv-001", UserID: "user-1"}}
	if !g.Can(ctx, "user-1", gate.ActionView, "invoice", inv) {
		t.Error("owner should view invoice")
	}
	if g.Can(ctx, "user-2", gate.ActionUpdate, "invoice", inv) {
		t.Error("other user should not update invoice")
	}
	if !g.Can(ctx, "admin", gate.ActionUpdate, "invoice", inv) {
		t.Error("admin should bypass ownership")
	}
	if g.Can(ctx, "", gate.ActionList, "invoice", nil) {
		t.Error("anonymous user should be rejected")
	}
}

func TestOwnershipPolicy_ResetDenied(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if p.Can(context.Background(), "user-1", gate.ActionReset, nil) {
		t.Error("Expected reset to be denied without admin bypass")
	}
}

func TestNewGate_ResetAdminOnly(t *testing.T) {
	g := policy.NewGate([]string{"admin"})
	ctx := context.Background()

	for _, r := range policy.Resources {
		if g.Can(ctx, "user-1", gate.ActionReset, r, nil) {
			t.Errorf("Expected %s reset to be denied for a regular user", r)
		}
		if !g.Can(ctx, "admin", gate.ActionReset, r, nil) {
			t.Errorf("Expected %s reset to be allowed for an admin", r)
		}
	}
	if policy.NewGate(nil).Can(ctx, "user-1", gate.ActionReset, "client", nil) {
		t.Error("Expected reset to be denied when no admins are configured")
	}
}
