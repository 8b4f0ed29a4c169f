package auth

import (
	"context"
	"fmt"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

// SuMechanism runs su(1) behind a pseudo-terminal, since most su builds
// refuse to read a password from a pipe. The password is typed only after su
// prompts and never appears in argv.
type SuMechanism struct {
	spawner spawn.Spawner
	as      *spawn.Credential
}

// NewSuMechanism runs su as the given identity. When the service is root, as
// must name an unprivileged account, otherwise su would not challenge.
func NewSuMechanism(s spawn.Spawner, as *spawn.Credential) *SuMechanism {
	return &SuMechanism{spawner: s, as: as}
}

func (m *SuMechanism) Name() string { return MechanismSu }

func (m *SuMechanism) Verify(ctx context.Context, acct accounts.Identity, password string) error {
	res, err := m.spawner.Spawn(ctx, spawn.Command{
		Name:  "su",
		Args:  []string{"-s", "/bin/sh", "-c", "echo " + Sentinel, "--", acct.Username},
		Stdin: []byte(password + "\n"),
		TTY:   true,
		As:    m.as,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%w: su exit status %d", errRejected, res.ExitCode)
	}
	if !res.Prompted {
		return fmt.Errorf("%w: su did not challenge", errRejected)
	}
	if !hasSentinelLine(res.Stdout) {
		return fmt.Errorf("%w: sentinel missing", errRejected)
	}
	return nil
}
