package system

import (
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"strings"
)

// Runner starts external programs.
type Runner interface {
	// Start launches a program that keeps running after the call returns.
	Start(name string, args ...string) error
	// Run waits for the program to finish.
	Run(ctx context.Context, name string, args ...string) error
	LookPath(name string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("process exited", "cmd", name, "err", err)
		}
	}()
	return nil
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
