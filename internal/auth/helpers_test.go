package auth

import (
	"context"
	"sync"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

var testSecret = []byte("unit-test-secret-0123456789abcdef")

// fakeSpawner records every command and answers through fn.
type fakeSpawner struct {
	mu    sync.Mutex
	calls []spawn.Command
	fn    func(c spawn.Command) (spawn.Result, error)
}

func (f *fakeSpawner) Spawn(_ context.Context, c spawn.Command) (spawn.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.fn == nil {
		return spawn.Result{}, nil
	}
	return f.fn(c)
}

func (f *fakeSpawner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLookup map[string]accounts.Identity

func (f fakeLookup) Lookup(username string) (accounts.Identity, error) {
	id, ok := f[username]
	if !ok {
		return accounts.Identity{}, accounts.ErrUserNotFound
	}
	return id, nil
}

// fakeMechanism accepts the passwords in ok and records the accounts it saw.
type fakeMechanism struct {
	name string
	ok   map[string]string
	err  error
	seen []string
}

func (m *fakeMechanism) Name() string { return m.name }

func (m *fakeMechanism) Verify(_ context.Context, acct accounts.Identity, password string) error {
	m.seen = append(m.seen, acct.Username)
	if m.err != nil {
		return m.err
	}
	if want, ok := m.ok[acct.Username]; ok && want == password {
		return nil
	}
	return errRejected
}

func testAccounts() fakeLookup {
	return fakeLookup{
		"root":  {Username: "root", UID: 0, GID: 0, Home: "/root", Shell: "/bin/bash"},
		"alice": {Username: "alice", UID: 1000, GID: 1000, Home: "/home/alice", Shell: "/bin/bash", FullName: "Alice"},
		"bob":   {Username: "bob", UID: 1001, GID: 1001, Home: "/home/bob", Shell: "/bin/sh"},
	}
}
