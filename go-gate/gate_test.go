package gate_test

import (
	"context"
	"testing"

	gate "github.com/diewo77/freelance-pro/go-gate"
)

func allow(allowAll bool) gate.PolicyFunc[string] {
	return func(context.Context, string, gate.Action, any) bool { return allowAll }
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("client", allow(true))

	err := g.Authorize(context.Background(), "", gate.ActionView, "client", nil)
	if err != gate.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[string]()

	err := g.Authorize(context.Background(), "user-1", gate.ActionView, "unknown", nil)
	if err != gate.ErrNoPolicyDefined {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
	if g.Registered("unknown") {
		t.Error("unknown should not be registered")
	}
}

func TestGate_AllowedAndDenied(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("client", allow(true))
	g.Register("invoice", allow(false))

	if err := g.Authorize(context.Background(), "user-1", gate.ActionUpdate, "client", nil); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if g.Can(context.Background(), "user-1", gate.ActionDelete, "invoice", nil) {
		t.Error("expected invoice delete to be denied")
	}
}

func TestGate_RegisterReplaces(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("client", allow(false))
	g.Register("client", allow(true))

	if !g.Can(context.Background(), "user-1", gate.ActionReset, "client", nil) {
		t.Error("expected the latest policy to win")
	}
}
