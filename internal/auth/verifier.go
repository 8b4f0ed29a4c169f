package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

// Sentinel is printed by a spawned process as proof that authentication
// succeeded; exit codes alone are not reliable across su/sudo variants.
const Sentinel = "HOSTAUTH_AUTH_OK"

// Mechanism proves a password for an existing account. Verify returns nil on
// proof, an error wrapping ErrMechanismUnavailable when it cannot be applied,
// and any other error on rejection.
type Mechanism interface {
	Name() string
	Verify(ctx context.Context, acct accounts.Identity, password string) error
}

type IdentityLookup interface {
	Lookup(username string) (accounts.Identity, error)
}

type Result struct {
	Token    string
	Identity accounts.Identity
	AuthType AuthType
}

// Authenticator verifies credentials and issues a token in the same call.
type Authenticator struct {
	accounts   IdentityLookup
	tokens     *TokenService
	mechanisms []Mechanism
	devMode    bool
}

type AuthenticatorOption func(*Authenticator)

// WithDevMode enables the development credential set. It has no effect
// unless the binary was built with -tags devauth.
func WithDevMode(enabled bool) AuthenticatorOption {
	return func(a *Authenticator) { a.devMode = enabled }
}

func NewAuthenticator(lookup IdentityLookup, tokens *TokenService, mechanisms []Mechanism, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{accounts: lookup, tokens: tokens, mechanisms: mechanisms}
	for _, o := range opts {
		o(a)
	}
	if a.devMode && !devAuthCompiled {
		log.Warn().Msg("dev_mode requested but this is a release build; development credentials are disabled")
		a.devMode = false
	}
	return a
}

// Authenticate proves username/password against the host and returns a
// signed token. Every failure is ErrInvalidCredentials; the reason is only
// logged under an incident id.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (Result, error) {
	if a.devMode && matchDevCredential(username, password) {
		return a.issue(username, accounts.Identity{Username: username}, AuthTypeDevelopment)
	}

	diag := newDiagnostic(username)
	if !accounts.ValidUsername(username) || !validPassword(password) {
		diag.add("input", "invalid_input", nil)
		return Result{}, diag.fail()
	}

	acct, err := a.accounts.Lookup(username)
	if err != nil {
		code := "account_unreadable"
		if errors.Is(err, accounts.ErrUserNotFound) {
			code = "unknown_account"
		}
		diag.add("lookup", code, err)
		return Result{}, diag.fail()
	}

	for _, m := range a.chainFor(acct) {
		err := m.Verify(ctx, acct, password)
		if err == nil {
			log.Info().Str("user", username).Str("mechanism", m.Name()).Msg("credentials verified")
			return a.issue(username, acct, AuthTypeSystem)
		}
		diag.add(m.Name(), diagnosticCode(err), err)
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, diag.fail()
}

func (a *Authenticator) issue(username string, acct accounts.Identity, t AuthType) (Result, error) {
	tok, err := a.tokens.Issue(username, t)
	if err != nil {
		return Result{}, fmt.Errorf("issue token: %w", err)
	}
	return Result{Token: tok, Identity: acct, AuthType: t}, nil
}

// chainFor orders the mechanisms for an account. The superuser goes to su
// first; sudo is dropped because an elevation tool run as root never
// challenges.
func (a *Authenticator) chainFor(acct accounts.Identity) []Mechanism {
	if acct.UID != 0 {
		return a.mechanisms
	}
	var first, rest []Mechanism
	for _, m := range a.mechanisms {
		switch m.Name() {
		case MechanismSu:
			first = append(first, m)
		case MechanismSudo:
		default:
			rest = append(rest, m)
		}
	}
	return append(first, rest...)
}

func hasSentinelLine(out []byte) bool {
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == Sentinel {
			return true
		}
	}
	return false
}

func validPassword(p string) bool {
	return p != "" && !strings.ContainsAny(p, "\x00\r\n")
}

type attempt struct {
	stage string
	code  string
	err   error
}

// diagnostic collects why a login failed. It is logged, never returned.
type diagnostic struct {
	incident string
	username string
	attempts []attempt
}

func newDiagnostic(username string) *diagnostic {
	return &diagnostic{incident: uuid.NewString(), username: username}
}

func (d *diagnostic) add(stage, code string, err error) {
	d.attempts = append(d.attempts, attempt{stage: stage, code: code, err: err})
}

func (d *diagnostic) fail() error {
	ev := log.Warn().Str("incident", d.incident).Str("user", d.username)
	codes := make([]string, 0, len(d.attempts))
	for _, at := range d.attempts {
		codes = append(codes, at.stage+"="+at.code)
		if at.err != nil {
			log.Debug().Str("incident", d.incident).Str("stage", at.stage).Err(at.err).Msg("authentication attempt failed")
		}
	}
	ev.Strs("attempts", codes).Msg("authentication failed")
	return ErrInvalidCredentials
}

func diagnosticCode(err error) string {
	switch {
	case errors.Is(err, ErrMechanismUnavailable):
		return "mechanism_unavailable"
	case errors.Is(err, spawn.ErrNotFound):
		return "binary_missing"
	case errors.Is(err, spawn.ErrTimeout):
		return "timeout"
	case errors.Is(err, spawn.ErrCanceled):
		return "canceled"
	case errors.Is(err, errRejected):
		return "rejected"
	default:
		return "error"
	}
}
