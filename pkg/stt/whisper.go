package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

type Options struct {
	Language      string // "auto", "en", ...
	Threads       int    // <=0 => NumCPU()
	InitialPrompt string
	BeamSize      int // 0 = greedy
	SplitOnWord   bool
	Temperature   float32
	// Tokens asks whisper for per-token timestamps and probabilities.
	Tokens bool
}

func DefaultOptions() Options {
	return Options{Language: "en", SplitOnWord: true, Tokens: true}
}

type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Token is one text token with its probability in [0,1].
type Token struct {
	Text  string
	P     float32
	Start time.Duration
	End   time.Duration
}

type Result struct {
	Text     string
	Segments []Segment
	Tokens   []Token
	Language string
}

// Transcriber owns one whisper model. Whisper contexts are not safe to
// share, so transcriptions are serialized.
type Transcriber struct {
	mu    sync.Mutex
	model whisper.Model
}

func NewTranscriber(modelPath string) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Transcriber{model: m}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// TranscribePCM expects mono 16 kHz float32 samples in [-1, 1].
func (t *Transcriber) TranscribePCM(ctx context.Context, pcm []float32, opt Options) (Result, error) {
	if t.model == nil {
		return Result{}, errors.New("nil model")
	}
	if len(pcm) == 0 {
		return Result{}, errors.New("no audio samples provided")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("new context: %w", err)
	}

	if opt.Language == "" {
		opt.Language = "auto"
	}
	if err := wctx.SetLanguage(opt.Language); err != nil {
		return Result{}, fmt.Errorf("set language: %w", err)
	}
	threads := opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))
	wctx.SetSplitOnWord(opt.SplitOnWord)
	wctx.SetTokenTimestamps(opt.Tokens)
	if opt.BeamSize > 0 {
		wctx.SetBeamSize(opt.BeamSize)
	}
	if opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(opt.InitialPrompt)
	}
	if opt.Temperature != 0 {
		wctx.SetTemperature(opt.Temperature)
	}

	if err := wctx.Process(pcm, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		res   Result
		texts []string
	)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("next segment: %w", err)
		}

		res.Segments = append(res.Segments, Segment{Text: s.Text, Start: s.Start, End: s.End})
		texts = append(texts, strings.TrimSpace(s.Text))

		if !opt.Tokens {
			continue
		}
		for _, tok := range s.Tokens {
			if !wctx.IsText(tok) {
				continue
			}
			res.Tokens = append(res.Tokens, Token{Text: tok.Text, P: tok.P, Start: tok.Start, End: tok.End})
		}
	}

	res.Text = strings.Join(texts, " ")
	res.Language = wctx.DetectedLanguage()
	if res.Language == "" {
		res.Language = wctx.Language()
	}
	return res, nil
}
