// Package command runs a fixed set of read-only commands on behalf of an
// authenticated user.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/spawn"
)

var (
	ErrCommandNotAllowed = errors.New("command not allowed")
	ErrExecutionFailed   = errors.New("command execution failed")
)

type argPolicy int

const (
	anyArgs argPolicy = iota
	// noArgs is for commands whose arguments can change host state
	// (hostname NAME, date -s).
	noArgs
)

// allowed lists listing, identity and resource-inspection commands only.
// Nothing that mutates state may ever be added here.
var allowed = map[string]argPolicy{
	"ls":       anyArgs,
	"pwd":      anyArgs,
	"whoami":   anyArgs,
	"id":       anyArgs,
	"groups":   anyArgs,
	"df":       anyArgs,
	"du":       anyArgs,
	"free":     anyArgs,
	"uptime":   anyArgs,
	"ps":       anyArgs,
	"uname":    anyArgs,
	"hostname": noArgs,
	"date":     noArgs,
	"w":        anyArgs,
	"who":      anyArgs,
}

func Allowed(name string) bool {
	_, ok := allowed[name]
	return ok
}

// permits reports whether name may run with args.
func permits(name string, args []string) bool {
	policy, ok := allowed[name]
	if !ok {
		return false
	}
	return policy == anyArgs || len(args) == 0
}

// AllowedCommands returns the allow-list, sorted.
func AllowedCommands() []string {
	out := make([]string, 0, len(allowed))
	for name := range allowed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type Executor struct {
	spawner spawn.Spawner
}

func NewExecutor(s spawn.Spawner) *Executor {
	return &Executor{spawner: s}
}

// RunAs executes commandLine as username through sudo(8) and returns its
// stdout. The leading token is checked against the allow-list before
// anything is started; the rest is split into argv and never reaches a shell.
func (e *Executor) RunAs(ctx context.Context, username, commandLine string) (string, error) {
	name, args := split(commandLine)
	if !Allowed(name) {
		return "", fmt.Errorf("%w: %q", ErrCommandNotAllowed, name)
	}
	if !permits(name, args) {
		return "", fmt.Errorf("%w: %q takes no arguments", ErrCommandNotAllowed, name)
	}
	if !accounts.ValidUsername(username) {
		return "", fmt.Errorf("%w: invalid username", ErrExecutionFailed)
	}

	argv := append([]string{"-n", "-u", username, "--", name}, args...)
	res, err := e.spawner.Spawn(ctx, spawn.Command{Name: "sudo", Args: argv})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(string(res.Stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return "", fmt.Errorf("%w: %s", ErrExecutionFailed, msg)
	}
	return string(res.Stdout), nil
}

// split cuts commandLine at the first whitespace.
func split(commandLine string) (string, []string) {
	line := strings.TrimSpace(commandLine)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, nil
	}
	return line[:i], strings.Fields(line[i:])
}
