// Package spawn runs external programs with an argument vector, a bounded
// wall-clock timeout and process-group reaping. It never invokes a shell.
package spawn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

var (
	ErrTimeout  = errors.New("process timed out")
	ErrNotFound = errors.New("executable not found")
	ErrCanceled = errors.New("process canceled")
)

const (
	DefaultTimeout = 10 * time.Second
	waitDelay      = 2 * time.Second
	defaultPrompt  = "password"
)

// Credential selects the identity a child process runs as. Setting it
// requires the service to run as root.
type Credential struct {
	UID uint32
	GID uint32
}

type Command struct {
	Name  string
	Args  []string
	Stdin []byte

	// TTY runs the process on a pseudo-terminal with stdout and stderr merged.
	// Stdin is written to the terminal once the output contains Prompt.
	TTY    bool
	Prompt string

	As *Credential
}

type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	// Prompted is set for TTY commands that asked for input.
	Prompted bool
}

// Spawner starts a process and waits for it. A non-zero exit is reported in
// Result.ExitCode, not as an error; errors mean the process could not run to
// completion.
type Spawner interface {
	Spawn(ctx context.Context, c Command) (Result, error)
}

type Runner struct {
	Timeout time.Duration
}

func New(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{Timeout: timeout}
}

// IsRoot reports whether the service runs with effective uid 0.
func IsRoot() bool {
	return unix.Geteuid() == 0
}

func (r *Runner) Spawn(ctx context.Context, c Command) (Result, error) {
	tctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, c.Name, c.Args...)
	cmd.Env = []string{"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin", "LANG=C", "LC_ALL=C"}
	cmd.SysProcAttr = &syscall.SysProcAttr{}
	if c.As != nil {
		cmd.SysProcAttr.Credential = &syscall.Credential{Uid: c.As.UID, Gid: c.As.GID}
	}
	// The child leads its own process group (or session, for TTY commands),
	// so cancellation takes down everything it forked.
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var (
		res     Result
		waitErr error
	)
	if c.TTY {
		res, waitErr = runTTY(cmd, c)
	} else {
		cmd.SysProcAttr.Setpgid = true
		res, waitErr = runPiped(cmd, c)
	}

	if waitErr == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrCanceled, c.Name, ctx.Err())
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("%w: %s after %s", ErrTimeout, c.Name, r.Timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		return res, nil
	}
	if errors.Is(waitErr, exec.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, c.Name)
	}
	return Result{}, fmt.Errorf("%s: %w", c.Name, waitErr)
}

func runPiped(cmd *exec.Cmd, c Command) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	err := cmd.Run()
	return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
