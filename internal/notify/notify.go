package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"zendaya/internal/system"
)

// Cue plays a short sound; audio.Player satisfies it.
type Cue interface {
	PlayFile(ctx context.Context, path string) error
}

// Notifier posts desktop notifications through notify-send and plays an
// optional beep for listening cues.
type Notifier struct {
	run     system.Runner
	cue     Cue
	beep    string
	timeout time.Duration
}

func New(run system.Runner, cue Cue, beepPath string) *Notifier {
	if run == nil {
		run = system.ExecRunner{}
	}
	return &Notifier{run: run, cue: cue, beep: beepPath, timeout: 5 * time.Second}
}

func (n *Notifier) Notify(title, message string) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.run.Run(ctx, "notify-send", "-a", "zendaya", title, message); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// Listening shows the listening banner and beeps. Failures are only logged:
// a missing cue must not block recording.
func (n *Notifier) Listening(ctx context.Context) {
	if err := n.Notify("zendaya", "Listening..."); err != nil {
		log.Debug("notify failed", "err", err)
	}
	n.Beep(ctx)
}

func (n *Notifier) Beep(ctx context.Context) {
	if n.cue == nil || n.beep == "" {
		return
	}
	if err := n.cue.PlayFile(ctx, n.beep); err != nil {
		log.Warn("beep failed", "path", n.beep, "err", err)
	}
}
