package tts

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrNoVoice = errors.New("no cloud voice configured")

type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string, emotion Emotion) ([]byte, error)
}

type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// Fallback speaks directly on the local audio device.
type Fallback interface {
	Speak(text string) error
}

// Speaker renders replies to mp3 clips and plays them, dropping to the
// local fallback engine whenever the cloud voice fails.
type Speaker struct {
	cloud    Synthesizer
	player   Player
	fallback Fallback
	dir      string
}

// NewSpeaker stores clips under dir. Any collaborator may be nil.
func NewSpeaker(cloud Synthesizer, player Player, fallback Fallback, dir string) *Speaker {
	return &Speaker{cloud: cloud, player: player, fallback: fallback, dir: dir}
}

// Render synthesizes text and returns the path of the saved clip.
func (s *Speaker) Render(ctx context.Context, text, voice string, emotion Emotion) (string, error) {
	if s.cloud == nil {
		return "", ErrNoVoice
	}

	audio, err := s.cloud.Synthesize(ctx, text, voice, emotion)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("audio dir: %w", err)
	}
	path := filepath.Join(s.dir, uuid.NewString()+".mp3")
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("save clip: %w", err)
	}
	return path, nil
}

// Play plays a rendered clip, or speaks text with the fallback engine when
// there is no clip or playback fails.
func (s *Speaker) Play(ctx context.Context, clip, text string) error {
	if clip != "" && s.player != nil {
		err := s.player.PlayFile(ctx, clip)
		if err == nil {
			return nil
		}
		log.Warn("clip playback failed", "clip", clip, "err", err)
	}

	if s.fallback == nil {
		return ErrNoVoice
	}
	if err := s.fallback.Speak(text); err != nil {
		return fmt.Errorf("fallback speech: %w", err)
	}
	return nil
}

// Say renders and plays text in one go.
func (s *Speaker) Say(ctx context.Context, text, voice string, emotion Emotion) error {
	clip, err := s.Render(ctx, text, voice, emotion)
	if err != nil && !errors.Is(err, ErrNoVoice) {
		log.Warn("cloud voice failed", "err", err)
	}
	return s.Play(ctx, clip, text)
}
