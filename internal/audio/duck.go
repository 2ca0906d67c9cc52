package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxVolume = 150

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	ID      int
	Volume  int
	AppName string
}

type fade struct {
	id       int
	from, to int
}

// Pactl runs one pactl invocation and returns its stdout.
type Pactl func(ctx context.Context, args ...string) ([]byte, error)

func execPactl(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "pactl", args...).Output()
}

// Ducker lowers every PulseAudio sink input except our own while the
// assistant speaks, and restores them afterwards.
type Ducker struct {
	mu     sync.Mutex
	active bool
	self   []string
	saved  map[int]int
	floor  int
	pactl  Pactl
}

// NewDucker skips streams whose application.name is listed in self.
// Ducked volumes never go below floor percent.
func NewDucker(self []string, floor int) *Ducker {
	return &Ducker{
		self:  append([]string(nil), self...),
		saved: make(map[int]int),
		floor: clampVolume(floor),
		pactl: execPactl,
	}
}

// WithPactl replaces the pactl runner.
func (d *Ducker) WithPactl(p Pactl) *Ducker {
	d.pactl = p
	return d
}

func (d *Ducker) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Duck fades foreign streams to volume*factor over dur.
func (d *Ducker) Duck(ctx context.Context, factor float64, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.saved = make(map[int]int)
	var fades []fade
	for _, in := range inputs {
		to := int(math.Round(float64(in.Volume) * factor))
		to = max(to, d.floor)
		d.saved[in.ID] = in.Volume
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: clampVolume(to)})
	}

	if err := d.fade(ctx, fades, dur); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore fades ducked streams back. Streams that appeared after Duck
// are left alone.
func (d *Ducker) Restore(ctx context.Context, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	inputs, err := d.list(ctx)
	if err != nil {
		return err
	}

	var fades []fade
	for _, in := range inputs {
		orig, ok := d.saved[in.ID]
		if !ok {
			continue
		}
		fades = append(fades, fade{id: in.ID, from: in.Volume, to: orig})
	}

	if err := d.fade(ctx, fades, dur); err != nil {
		return err
	}
	d.saved = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) list(ctx context.Context) ([]sinkInput, error) {
	out, err := d.pactl(ctx, "list", "sink-inputs")
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	var res []sinkInput
	for _, in := range parseSinkInputs(string(out)) {
		if d.isSelf(in) {
			continue
		}
		res = append(res, in)
	}
	return res, nil
}

func (d *Ducker) isSelf(in sinkInput) bool {
	for _, name := range d.self {
		if in.AppName == name {
			return true
		}
	}
	return false
}

// fade steps volumes linearly in 10ms increments.
func (d *Ducker) fade(ctx context.Context, fades []fade, dur time.Duration) error {
	if len(fades) == 0 {
		return nil
	}

	const step = 10 * time.Millisecond
	steps := max(int(dur/step), 1)
	if dur <= 0 {
		steps = 0
	}

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frac := 1.0
		if steps > 0 {
			frac = float64(i) / float64(steps)
		}
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := d.setVolume(ctx, f.id, v); err != nil {
				return err
			}
		}

		if i < steps {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(dur / time.Duration(steps)):
			}
		}
	}
	return nil
}

func (d *Ducker) setVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	if _, err := d.pactl(ctx, "set-sink-input-volume", strconv.Itoa(id), arg); err != nil {
		return fmt.Errorf("set volume id=%d: %w", id, err)
	}
	return nil
}

// parseSinkInputs reads `pactl list sink-inputs` output.
func parseSinkInputs(text string) []sinkInput {
	blocks := strings.Split(text, "Sink Input #")
	if len(blocks) <= 1 {
		return nil
	}

	var res []sinkInput
	for _, block := range blocks[1:] {
		header, body, ok := strings.Cut(block, "\n")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(header))
		if err != nil {
			continue
		}

		in := sinkInput{ID: id}
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)

			if strings.HasPrefix(line, "Volume:") && in.Volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) == 2 {
					in.Volume, _ = strconv.Atoi(m[1])
				}
			}
			if rest, ok := strings.CutPrefix(line, "application.name ="); ok && in.AppName == "" {
				in.AppName = strings.Trim(strings.TrimSpace(rest), `"`)
			}
		}

		if in.Volume == 0 && in.AppName == "" {
			continue
		}
		res = append(res, in)
	}
	return res
}

func clampVolume(v int) int {
	return min(max(v, 0), maxVolume)
}
