package spawn

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// runTTY drives a program that insists on a terminal, such as su(1). The
// input is written only after the program prompts for it.
func runTTY(cmd *exec.Cmd, c Command) (Result, error) {
	prompt := strings.ToLower(c.Prompt)
	if prompt == "" {
		prompt = defaultPrompt
	}

	f, err := pty.Start(cmd)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = f.Close() }()

	var (
		out      bytes.Buffer
		prompted bool
	)
	exited := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		buf := make([]byte, 4096)
		for {
			_ = f.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
			n, rerr := f.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				if !prompted && strings.Contains(strings.ToLower(out.String()), prompt) {
					prompted = true
					if len(c.Stdin) > 0 {
						_, _ = f.Write(c.Stdin)
					}
				}
			}
			if rerr != nil {
				if errors.Is(rerr, os.ErrDeadlineExceeded) {
					select {
					case <-exited:
						return
					default:
						continue
					}
				}
				return
			}
		}
	}()

	err = cmd.Wait()
	close(exited)
	<-readerDone

	return Result{Stdout: out.Bytes(), Prompted: prompted}, err
}
