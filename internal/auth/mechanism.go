package auth

import (
	"fmt"

	"github.com/hnrobert/hostauth/internal/spawn"
)

const (
	MechanismShadow = "shadow"
	MechanismSu     = "su"
	MechanismSudo   = "sudo"
)

var DefaultMechanisms = []string{MechanismShadow, MechanismSu, MechanismSudo}

// MechanismDeps are the collaborators mechanisms may need.
type MechanismDeps struct {
	Shadow  ShadowReader
	Spawner spawn.Spawner
	// SuAs is the identity su(1) runs under; nil keeps the service identity.
	SuAs *spawn.Credential
	// CanImpersonate reports whether processes may be started as another uid.
	CanImpersonate func() bool
}

// BuildMechanisms returns the named mechanisms in order.
func BuildMechanisms(names []string, deps MechanismDeps) ([]Mechanism, error) {
	if len(names) == 0 {
		names = DefaultMechanisms
	}
	out := make([]Mechanism, 0, len(names))
	for _, n := range names {
		switch n {
		case MechanismShadow:
			out = append(out, NewShadowMechanism(deps.Shadow))
		case MechanismSu:
			out = append(out, NewSuMechanism(deps.Spawner, deps.SuAs))
		case MechanismSudo:
			out = append(out, NewSudoMechanism(deps.Spawner, deps.CanImpersonate))
		default:
			return nil, fmt.Errorf("unknown authentication mechanism %q", n)
		}
	}
	return out, nil
}
