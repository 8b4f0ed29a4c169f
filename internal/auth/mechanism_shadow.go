package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/hostauth/internal/accounts"
)

type ShadowReader interface {
	Shadow(username string) (*accounts.ShadowEntry, error)
}

// ShadowMechanism verifies against the shadow hash in-process. It needs read
// access to the shadow file, which normally means running as root.
type ShadowMechanism struct {
	db  ShadowReader
	now func() time.Time
}

func NewShadowMechanism(db ShadowReader) *ShadowMechanism {
	return &ShadowMechanism{db: db, now: time.Now}
}

func (m *ShadowMechanism) Name() string { return MechanismShadow }

func (m *ShadowMechanism) Verify(_ context.Context, acct accounts.Identity, password string) error {
	if m.db == nil {
		return fmt.Errorf("%w: no shadow database", ErrMechanismUnavailable)
	}
	se, err := m.db.Shadow(acct.Username)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMechanismUnavailable, err)
	}
	if se.Locked() {
		return fmt.Errorf("%w: account locked", errRejected)
	}
	if se.Expired(m.now()) {
		return fmt.Errorf("%w: account expired", errRejected)
	}
	c := crypterFor(se.Hash)
	if c == nil {
		// Ubuntu commonly uses yescrypt ($y$), which only the host tools understand.
		return fmt.Errorf("%w: unsupported hash format", ErrMechanismUnavailable)
	}
	if err := c.Verify(se.Hash, []byte(password)); err != nil {
		return fmt.Errorf("%w: %v", errRejected, err)
	}
	return nil
}

// crypterFor supports $1$ (md5-crypt), $5$ (sha256-crypt) and $6$
// (sha512-crypt).
func crypterFor(hash string) crypt.Crypter {
	switch {
	case strings.HasPrefix(hash, "$6$"):
		return sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		return sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		return md5_crypt.New()
	default:
		return nil
	}
}
