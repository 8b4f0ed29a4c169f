package auth

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

// AdminGroups grant admin status to their members.
var AdminGroups = []string{"sudo", "admin", "wheel", "root"}

// Tristate keeps "could not determine" apart from "no".
type Tristate int

const (
	Unknown Tristate = iota
	Yes
	No
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

type GroupSource interface {
	Groups(username string) ([]string, error)
}

type SudoProbe interface {
	SudoEntitlement(ctx context.Context, username string) (Tristate, error)
}

// Privileges is the resolver's raw view. Groups is nil when GroupsKnown is
// false.
type Privileges struct {
	Groups      []string
	GroupsKnown bool
	Sudo        Tristate
}

// IsAdmin fails closed: unknown facts count as "no".
func (p Privileges) IsAdmin() bool {
	if p.Sudo == Yes {
		return true
	}
	for _, g := range p.Groups {
		for _, a := range AdminGroups {
			if g == a {
				return true
			}
		}
	}
	return false
}

type PrivilegeResolver struct {
	groups GroupSource
	sudo   SudoProbe
}

func NewPrivilegeResolver(groups GroupSource, sudo SudoProbe) *PrivilegeResolver {
	return &PrivilegeResolver{groups: groups, sudo: sudo}
}

// Resolve derives privileges afresh. Failures are logged and surface as
// unknown, never as errors.
func (r *PrivilegeResolver) Resolve(ctx context.Context, username string) Privileges {
	var p Privileges
	groups, err := r.groups.Groups(username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("group membership unknown")
	} else {
		p.Groups = uniqueSorted(groups)
		p.GroupsKnown = true
	}
	p.Sudo, err = r.sudo.SudoEntitlement(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("sudo entitlement unknown")
		p.Sudo = Unknown
	}
	return p
}

// ResolveGroups returns the groups of username, or an empty set when they
// cannot be determined.
func (r *PrivilegeResolver) ResolveGroups(ctx context.Context, username string) []string {
	groups, err := r.groups.Groups(username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("group membership unknown")
		return []string{}
	}
	return uniqueSorted(groups)
}

// HasSudoEntitlement is false unless sudo positively reports entitlement.
func (r *PrivilegeResolver) HasSudoEntitlement(ctx context.Context, username string) bool {
	t, err := r.sudo.SudoEntitlement(ctx, username)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("sudo entitlement unknown")
		return false
	}
	return t == Yes
}

func (r *PrivilegeResolver) IsAdmin(ctx context.Context, username string) bool {
	return r.Resolve(ctx, username).IsAdmin()
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, g := range in {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// CommandSudoProbe asks sudo(8) to list the rules of another user. Listing
// another user's rules needs root or a matching sudo rule, so on an
// unprivileged service this reports Unknown.
type CommandSudoProbe struct {
	spawner spawn.Spawner
}

func NewCommandSudoProbe(s spawn.Spawner) *CommandSudoProbe {
	return &CommandSudoProbe{spawner: s}
}

func (p *CommandSudoProbe) SudoEntitlement(ctx context.Context, username string) (Tristate, error) {
	if !accounts.ValidUsername(username) {
		return No, nil
	}
	res, err := p.spawner.Spawn(ctx, spawn.Command{Name: "sudo", Args: []string{"-n", "-l", "-U", username}})
	if err != nil {
		return Unknown, err
	}
	return parseSudoList(string(res.Stdout) + string(res.Stderr)), nil
}

func parseSudoList(out string) Tristate {
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "may run the following"):
		return Yes
	case strings.Contains(lower, "is not allowed to run sudo"):
		return No
	default:
		return Unknown
	}
}
