package spawn

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnCapturesOutput(t *testing.T) {
	r := New(5 * time.Second)

	res, err := r.Spawn(context.Background(), Command{Name: "echo", Args: []string{"hello", "; rm -rf /"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello ; rm -rf /\n", string(res.Stdout))
	assert.Empty(t, res.Stderr)
}

func TestSpawnStdin(t *testing.T) {
	r := New(5 * time.Second)

	res, err := r.Spawn(context.Background(), Command{Name: "cat", Stdin: []byte("p@ss'\"$(id)`\n")})
	require.NoError(t, err)
	assert.Equal(t, "p@ss'\"$(id)`\n", string(res.Stdout))
}

func TestSpawnNonZeroExit(t *testing.T) {
	r := New(5 * time.Second)

	res, err := r.Spawn(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestSpawnNotFound(t *testing.T) {
	r := New(5 * time.Second)

	_, err := r.Spawn(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSpawnTimeoutKillsProcessGroup(t *testing.T) {
	r := New(200 * time.Millisecond)

	start := time.Now()
	_, err := r.Spawn(context.Background(), Command{Name: "sh", Args: []string{"-c", "sleep 30 & sleep 30; wait"}})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpawnCanceled(t *testing.T) {
	r := New(10 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := r.Spawn(ctx, Command{Name: "sleep", Args: []string{"30"}})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSpawnTTYWritesAfterPrompt(t *testing.T) {
	p, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pseudo-terminal available: %v", err)
	}
	_ = p.Close()
	_ = tty.Close()

	r := New(5 * time.Second)
	res, err := r.Spawn(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", `printf "Password: "; read p; echo "got:$p"`},
		Stdin: []byte("s3cret\n"),
		TTY:   true,
	})
	require.NoError(t, err)
	assert.True(t, res.Prompted)
	assert.Equal(t, 0, res.ExitCode)
	assert.True(t, strings.Contains(string(res.Stdout), "got:s3cret"), string(res.Stdout))
}

func TestNewDefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0).Timeout)
}
