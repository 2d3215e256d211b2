package backend

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// Runner abstracts process execution so the gateway can be driven by a test
// double that returns canned output.
type Runner interface {
	// Run executes the process to completion and returns both output streams.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
	// Stream executes the process, handing stdout to onStdout as it arrives.
	Stream(ctx context.Context, name string, args []string, onStdout func([]byte)) (stderr []byte, err error)
}

// ExecRunner spawns real processes with os/exec. Cancelling ctx kills the
// process.
type ExecRunner struct {
	Env []string // extra KEY=value entries appended to the inherited environment
}

var _ Runner = ExecRunner{}

const waitDelay = 2 * time.Second

func (r ExecRunner) command(ctx context.Context, name string, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	return cmd
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := r.command(ctx, name, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (r ExecRunner) Stream(ctx context.Context, name string, args []string, onStdout func([]byte)) ([]byte, error) {
	cmd := r.command(ctx, name, args)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	buf := make([]byte, 4096)
	for {
		n, readErr := pipe.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onStdout(chunk)
		}
		if readErr != nil {
			break
		}
	}
	err = cmd.Wait()
	return stderr.Bytes(), err
}
