// Package runner spawns the external test command and owns its lifecycle.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// ErrEmptyCommand is returned when the runner is constructed without a command.
var ErrEmptyCommand = errors.New("runner: empty test command")

// Runner starts one test process per call. It never runs two processes at
// once by itself; the coordinator enforces that invariant.
type Runner struct {
	command []string
	dir     string

	echoOut io.Writer // optional live echo of child stdout
	echoErr io.Writer // optional live echo of child stderr
}

func New(command []string, dir string) *Runner {
	return &Runner{command: command, dir: dir}
}

// WithEcho streams the child's output to the given writers while it is still
// being captured for classification.
func (r *Runner) WithEcho(stdout, stderr io.Writer) *Runner {
	r.echoOut = stdout
	r.echoErr = stderr
	return r
}

// Handle is the ownership token for one in-flight test process.
type Handle struct {
	id  uuid.UUID
	cmd *exec.Cmd

	stdout *bytes.Buffer
	stderr *bytes.Buffer

	startedAt time.Time
	done      chan struct{}
	result    domain.RunResult
}

// Start spawns the test command. A non-nil error means the process never
// launched (command not found, permission denied).
func (r *Runner) Start(ctx context.Context) (*Handle, error) {
	if len(r.command) == 0 {
		return nil, ErrEmptyCommand
	}

	h := &Handle{
		id:     uuid.New(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		done:   make(chan struct{}),
	}

	cmd := exec.Command(r.command[0], r.command[1:]...)
	cmd.Dir = r.dir
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr
	if r.echoOut != nil {
		cmd.Stdout = io.MultiWriter(r.echoOut, h.stdout)
	}
	if r.echoErr != nil {
		cmd.Stderr = io.MultiWriter(r.echoErr, h.stderr)
	}

	h.cmd = cmd
	h.startedAt = time.Now()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	go h.await()
	return h, nil
}

// ID identifies the run; it appears on the result and in logs.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Wait blocks until the process has exited and returns its result.
func (h *Handle) Wait() domain.RunResult {
	<-h.done
	return h.result
}

// Terminate requests the process stop, waiting up to grace before forcing a
// kill. It returns once the process has exited. Safe to call while another
// goroutine is blocked in Wait.
func (h *Handle) Terminate(grace time.Duration) {
	select {
	case <-h.done:
		return
	default:
	}

	if runtime.GOOS == "windows" {
		// No graceful signal on Windows.
		if err := h.cmd.Process.Kill(); err != nil {
			log.Printf("runner: kill run %s: %v", h.id, err)
		}
		<-h.done
		return
	}

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("runner: terminate run %s: %v", h.id, err)
	}

	select {
	case <-h.done:
	case <-time.After(grace):
		log.Printf("runner: run %s did not exit within %s, killing", h.id, grace)
		if err := h.cmd.Process.Kill(); err != nil {
			log.Printf("runner: kill run %s: %v", h.id, err)
		}
		<-h.done
	}
}

// await reaps the process and publishes the result.
func (h *Handle) await() {
	err := h.cmd.Wait()

	result := domain.RunResult{
		RunID:     h.id,
		StartedAt: h.startedAt,
		Duration:  time.Since(h.startedAt),
	}

	if state := h.cmd.ProcessState; state != nil {
		result.ExitCode = state.ExitCode()
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			result.Signalled = true
			result.Signal = ws.Signal().String()
		}
	} else if err != nil {
		result.ExitCode = -1
	}

	// Buffers are written to only by cmd's copier goroutines, which have
	// finished once Wait returns.
	result.Stdout = h.stdout.String()
	result.Stderr = h.stderr.String()

	h.result = result
	close(h.done)
}
