package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// SampleRate is what whisper expects.
const SampleRate = 16000

var ErrNoAudio = errors.New("no audio recorded")

type RecorderConfig struct {
	// SilenceRMS is the frame energy below which a frame counts as silence.
	SilenceRMS float64
	// Silence ends an automatic recording once speech has started.
	Silence time.Duration
	// MaxAuto caps RecordAuto.
	MaxAuto time.Duration
	// MaxManual caps RecordUntil.
	MaxManual time.Duration
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SilenceRMS: 0.015,
		Silence:    600 * time.Millisecond,
		MaxAuto:    10 * time.Second,
		MaxManual:  15 * time.Second,
	}
}

type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.SilenceRMS <= 0 {
		cfg.SilenceRMS = def.SilenceRMS
	}
	if cfg.Silence <= 0 {
		cfg.Silence = def.Silence
	}
	if cfg.MaxAuto <= 0 {
		cfg.MaxAuto = def.MaxAuto
	}
	if cfg.MaxManual <= 0 {
		cfg.MaxManual = def.MaxManual
	}
	return &Recorder{cfg: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records one utterance: it waits for speech and stops after
// cfg.Silence of quiet.
func (r *Recorder) RecordAuto() ([]float32, error) {
	const frameSize = 320 // 20ms

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	gate := newSilenceGate(r.cfg, frameSize)
	out := make([]float32, 0, SampleRate*3)
	maxFrames := int(r.cfg.MaxAuto.Seconds() * SampleRate / frameSize)

	for range maxFrames {
		if err := stream.Read(); err != nil {
			return nil, err
		}
		keep, done := gate.push(buf)
		if keep {
			out = append(out, buf...)
		}
		if done {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

// RecordUntil records until stop is closed or signalled, or cfg.MaxManual passes.
func (r *Recorder) RecordUntil(stop <-chan struct{}) ([]float32, error) {
	const frameSize = 1024

	buf := make([]float32, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(r.cfg.MaxManual)
	out := make([]float32, 0, int(SampleRate*r.cfg.MaxManual.Seconds()))

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return out, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

// silenceGate decides which frames of an automatic recording to keep.
type silenceGate struct {
	thresh   float64
	limit    int
	speaking bool
	quiet    int
}

func newSilenceGate(cfg RecorderConfig, frameSize int) *silenceGate {
	frame := time.Duration(frameSize) * time.Second / SampleRate
	return &silenceGate{
		thresh: cfg.SilenceRMS,
		limit:  max(int(cfg.Silence/frame), 1),
	}
}

func (g *silenceGate) push(frame []float32) (keep, done bool) {
	if frameRMS(frame) > g.thresh {
		g.speaking = true
		g.quiet = 0
		return true, false
	}
	if !g.speaking {
		return false, false
	}
	g.quiet++
	if g.quiet >= g.limit {
		return false, true
	}
	return true, false
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
