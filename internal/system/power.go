package system

import (
	"context"
	"fmt"
)

var powerCommands = map[string][]string{
	"shutdown": {"systemctl", "poweroff"},
	"restart":  {"systemctl", "reboot"},
	"sleep":    {"systemctl", "suspend"},
	"lock":     {"loginctl", "lock-session"},
}

type Power struct {
	run Runner
}

func NewPower(run Runner) *Power {
	if run == nil {
		run = ExecRunner{}
	}
	return &Power{run: run}
}

// Power performs a confirmed power action.
func (p *Power) Power(ctx context.Context, action string) error {
	argv, ok := powerCommands[action]
	if !ok {
		return fmt.Errorf("unknown power action %q", action)
	}
	return p.run.Run(ctx, argv[0], argv[1:]...)
}
