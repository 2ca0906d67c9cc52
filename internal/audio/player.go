package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const playbackRate = beep.SampleRate(44100)

// Player plays mp3 clips through the default output, ducking other
// streams for the duration when a Ducker is set.
type Player struct {
	mu     sync.Mutex
	once   sync.Once
	err    error
	ducker *Ducker
}

func NewPlayer(ducker *Ducker) *Player {
	return &Player{ducker: ducker}
}

func (p *Player) init() error {
	p.once.Do(func() {
		p.err = speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	})
	return p.err
}

// PlayFile plays an mp3 file from disk.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return p.play(ctx, f)
}

// PlayMP3 plays mp3 bytes held in memory.
func (p *Player) PlayMP3(ctx context.Context, data []byte) error {
	return p.play(ctx, io.NopCloser(bytes.NewReader(data)))
}

func (p *Player) play(ctx context.Context, rc io.ReadCloser) error {
	streamer, format, err := mp3.Decode(rc)
	if err != nil {
		rc.Close()
		return fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	if err := p.init(); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ducker != nil {
		if err := p.ducker.Duck(ctx, 0.3, 150*time.Millisecond); err != nil {
			log.Warn("duck failed", "err", err)
		}
		defer func() {
			if err := p.ducker.Restore(context.WithoutCancel(ctx), 300*time.Millisecond); err != nil {
				log.Warn("restore failed", "err", err)
			}
		}()
	}

	var src beep.Streamer = streamer
	if format.SampleRate != playbackRate {
		src = beep.Resample(4, format.SampleRate, playbackRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
