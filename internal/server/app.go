package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/auth"
	"github.com/hnrobert/hostauth/internal/command"
	"github.com/hnrobert/hostauth/internal/config"
	"github.com/hnrobert/hostauth/internal/hostfs"
	"github.com/hnrobert/hostauth/internal/spawn"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (auth.Result, error)
}

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type PrivilegeChecker interface {
	Resolve(ctx context.Context, username string) auth.Privileges
	IsAdmin(ctx context.Context, username string) bool
}

type AccountDirectory interface {
	Lookup(username string) (accounts.Identity, error)
	ListMembers(minUID, maxUID int) ([]accounts.Member, error)
}

type CommandRunner interface {
	RunAs(ctx context.Context, username, commandLine string) (string, error)
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Authenticator Authenticator
	Tokens        TokenVerifier
	Privileges    PrivilegeChecker
	Accounts      AccountDirectory
	Commands      CommandRunner
	MinUID        int
	MaxUID        int
	// Notice is markdown shown on the login screen.
	Notice string
}

type App struct {
	authn      Authenticator
	tokens     TokenVerifier
	privileges PrivilegeChecker
	accounts   AccountDirectory
	commands   CommandRunner
	minUID     int
	maxUID     int
	notice     string
	noticeHTML string
}

func NewApp(d Deps) *App {
	return &App{
		authn:      d.Authenticator,
		tokens:     d.Tokens,
		privileges: d.Privileges,
		accounts:   d.Accounts,
		commands:   d.Commands,
		minUID:     d.MinUID,
		maxUID:     d.MaxUID,
		notice:     d.Notice,
		noticeHTML: RenderMarkdown(d.Notice),
	}
}

// Build wires the production collaborators from cfg.
func Build(cfg *config.Config) (*App, error) {
	db := accounts.NewDatabase(hostfs.New(cfg.Host.Root))
	runner := spawn.New(cfg.Auth.SpawnTimeout)

	tokens, err := auth.NewTokenService(cfg.Secret())
	if err != nil {
		return nil, err
	}

	names := cfg.Auth.Mechanisms
	if len(names) == 0 {
		names = auth.DefaultMechanisms
	}
	var suAs *spawn.Credential
	if spawn.IsRoot() {
		// A root caller is never challenged by su, so su must drop privileges first.
		id, err := db.Lookup(cfg.Auth.SuUser)
		if err != nil {
			log.Warn().Err(err).Str("su_user", cfg.Auth.SuUser).Msg("su mechanism disabled: unprivileged account not found")
			names = without(names, auth.MechanismSu)
		} else {
			suAs = &spawn.Credential{UID: uint32(id.UID), GID: uint32(id.GID)}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no usable authentication mechanism")
	}
	mechs, err := auth.BuildMechanisms(names, auth.MechanismDeps{
		Shadow:         db,
		Spawner:        runner,
		SuAs:           suAs,
		CanImpersonate: spawn.IsRoot,
	})
	if err != nil {
		return nil, err
	}

	return NewApp(Deps{
		Authenticator: auth.NewAuthenticator(db, tokens, mechs, auth.WithDevMode(cfg.Auth.DevMode)),
		Tokens:        tokens,
		Privileges:    auth.NewPrivilegeResolver(db, auth.NewCommandSudoProbe(runner)),
		Accounts:      db,
		Commands:      command.NewExecutor(runner),
		MinUID:        cfg.Users.MinUID,
		MaxUID:        cfg.Users.MaxUID,
		Notice:        cfg.Server.Notice,
	}), nil
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", a.handleLogin)
	mux.HandleFunc("POST /auth/verify", a.handleVerify)
	mux.HandleFunc("GET /auth/notice", a.handleNotice)

	mux.HandleFunc("GET /auth/user/{username}", a.requireAuth(a.handleUser))
	mux.HandleFunc("GET /auth/users", a.requireAuth(a.requireAdmin(a.handleUsers)))
	mux.HandleFunc("POST /auth/exec", a.requireAuth(a.requireAdmin(a.handleExec)))

	mux.HandleFunc("GET /api/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{\"ok\":true}\n"))
	})

	return withRequestLog(mux)
}
