package policy

import (
	"context"
	"slices"

	gate "github.com/diewo77/freelance-pro/go-gate"
)

// Resource types registered on the gate, one per record domain.
var Resources = []string{"client", "contract", "invoice", "project"}

// NewGate returns a gate with the ownership policy registered for every
// record domain. Users listed in admins bypass ownership.
func NewGate(admins []string) *gate.Gate[string] {
	var p gate.Policy[string] = NewOwnershipPolicy()
	if len(admins) > 0 {
		p = NewAdminBypassPolicy(p, func(_ context.Context, userID string) bool {
			return slices.Contains(admins, userID)
		})
	}
	g := gate.NewGate[string]()
	for _, r := range Resources {
		g.Register(r, p)
	}
	return g
}
