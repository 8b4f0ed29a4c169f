package auth

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

// SudoMechanism starts sudo(8) as the target user with a fresh timestamp,
// so sudo must challenge for that user's own password. It only proves
// passwords of sudoers, and only when the service may switch uid.
type SudoMechanism struct {
	spawner        spawn.Spawner
	canImpersonate func() bool
}

func NewSudoMechanism(s spawn.Spawner, canImpersonate func() bool) *SudoMechanism {
	if canImpersonate == nil {
		canImpersonate = spawn.IsRoot
	}
	return &SudoMechanism{spawner: s, canImpersonate: canImpersonate}
}

func (m *SudoMechanism) Name() string { return MechanismSudo }

func (m *SudoMechanism) Verify(ctx context.Context, acct accounts.Identity, password string) error {
	if acct.UID == 0 {
		return fmt.Errorf("%w: sudo never challenges root", ErrMechanismUnavailable)
	}
	if !m.canImpersonate() {
		return fmt.Errorf("%w: service cannot switch uid", ErrMechanismUnavailable)
	}
	res, err := m.spawner.Spawn(ctx, spawn.Command{
		Name:  "sudo",
		Args:  []string{"-S", "-k", "-p", "", "--", "/bin/echo", Sentinel},
		Stdin: []byte(password + "\n"),
		As:    &spawn.Credential{UID: uint32(acct.UID), GID: uint32(acct.GID)},
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: sudo exit status %d", errRejected, res.ExitCode)
	}
	if len(bytes.TrimSpace(res.Stderr)) > 0 {
		return fmt.Errorf("%w: sudo wrote to stderr", errRejected)
	}
	if strings.TrimSpace(string(res.Stdout)) != Sentinel {
		return fmt.Errorf("%w: sentinel missing", errRejected)
	}
	return nil
}
