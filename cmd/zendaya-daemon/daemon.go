package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"

	"zendaya/internal/assistant"
	"zendaya/internal/audio"
	"zendaya/internal/boot"
	"zendaya/internal/ipc"
	"zendaya/internal/session"
	"zendaya/internal/understand"
	"zendaya/pkg/audioconv"
	"zendaya/pkg/stt"
)

const turnTimeout = 90 * time.Second

type daemon struct {
	env     *boot.Env
	rec     *audio.Recorder
	whisper *stt.Transcriber
	engine  *understand.Engine

	// one recording at a time
	mu        sync.Mutex
	recording bool
	stopRec   chan struct{}
	recorded  chan recording
}

type recording struct {
	pcm []float32
	err error
}

func newDaemon(env *boot.Env, rec *audio.Recorder, whisper *stt.Transcriber) *daemon {
	return &daemon{env: env, rec: rec, whisper: whisper, engine: understand.NewEngine()}
}

func (d *daemon) handle(ctx context.Context, req ipc.Request) ipc.Response {
	log.Debug("ipc", "cmd", req.Cmd)

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	switch req.Cmd {
	case "say":
		return d.turn(ctx, assistant.Turn{Text: req.Text})
	case "trigger":
		return d.trigger(ctx)
	case "listen":
		return d.listen()
	case "stop":
		return d.stop(ctx)
	case "transcribe":
		return d.transcribe(ctx, req.Path)
	case "analyze":
		return ipc.Response{OK: true, Data: d.engine.Analyze(req.Text, nil)}
	case "learn":
		return d.learn(ctx, req)
	case "status":
		return d.status()
	default:
		log.Warn("Unknown command", "cmd", req.Cmd)
		return ipc.Fail(fmt.Errorf("unknown command %q", req.Cmd))
	}
}

// trigger records one utterance, stopping on silence, and answers it.
func (d *daemon) trigger(ctx context.Context) ipc.Response {
	d.mu.Lock()
	if d.recording {
		d.mu.Unlock()
		return ipc.Fail(errors.New("already listening"))
	}
	d.recording = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.recording = false
		d.mu.Unlock()
	}()

	d.env.Notifier.Listening(ctx)
	log.Info("Starting listening")

	pcm, err := d.rec.RecordAuto()
	if err != nil {
		log.Error("Failed to record", "err", err)
		return ipc.Fail(err)
	}
	log.Info("Recorded", "samples", len(pcm))

	return d.spoken(ctx, pcm)
}

// listen starts a push-to-talk recording that runs until stop.
func (d *daemon) listen() ipc.Response {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.recording {
		return ipc.Fail(errors.New("already listening"))
	}
	d.recording = true
	d.stopRec = make(chan struct{})
	d.recorded = make(chan recording, 1)

	go func(stop <-chan struct{}, out chan<- recording) {
		pcm, err := d.rec.RecordUntil(stop)
		out <- recording{pcm: pcm, err: err}
	}(d.stopRec, d.recorded)

	d.env.Notifier.Beep(context.Background())
	return ipc.Response{OK: true, Text: "listening"}
}

func (d *daemon) stop(ctx context.Context) ipc.Response {
	d.mu.Lock()
	if !d.recording || d.stopRec == nil {
		d.mu.Unlock()
		return ipc.Fail(errors.New("not listening"))
	}
	close(d.stopRec)
	recorded := d.recorded
	d.stopRec, d.recorded = nil, nil
	d.mu.Unlock()

	var r recording
	select {
	case r = <-recorded:
	case <-ctx.Done():
		return ipc.Fail(ctx.Err())
	}

	d.mu.Lock()
	d.recording = false
	d.mu.Unlock()

	if r.err == nil && len(r.pcm) == 0 {
		r.err = audio.ErrNoAudio
	}
	if r.err != nil {
		return ipc.Fail(r.err)
	}
	return d.spoken(ctx, r.pcm)
}

func (d *daemon) spoken(ctx context.Context, pcm []float32) ipc.Response {
	res, err := d.whisper.TranscribePCM(ctx, pcm, stt.DefaultOptions())
	if err != nil {
		log.Error("Failed to transcribe", "err", err)
		return ipc.Fail(err)
	}
	log.Info("Transcribed", "text", res.Text)

	return d.turn(ctx, assistant.Turn{Text: res.Text, Transcription: transcription(res)})
}

func (d *daemon) turn(ctx context.Context, t assistant.Turn) ipc.Response {
	reply, err := d.env.Assistant.Handle(ctx, t)
	if err != nil {
		return ipc.Fail(err)
	}

	log.Info("Reply", "intent", reply.Intent, "source", reply.Source, "text", reply.Text)

	if d.env.Assistant.Mode() != session.ModeText {
		if err := d.env.Speaker.Play(ctx, reply.Audio, reply.Text); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
	}
	return ipc.Response{OK: true, Text: reply.Text, Data: reply}
}

func (d *daemon) transcribe(ctx context.Context, path string) ipc.Response {
	pcm, err := audioconv.File(path)
	if err != nil {
		return ipc.Fail(err)
	}
	res, err := d.whisper.TranscribePCM(ctx, pcm, stt.DefaultOptions())
	if err != nil {
		return ipc.Fail(err)
	}
	tr := transcription(res)
	return ipc.Response{OK: true, Text: res.Text, Data: tr}
}

func (d *daemon) learn(ctx context.Context, req ipc.Request) ipc.Response {
	if d.env.Library == nil {
		return ipc.Fail(errors.New("knowledge library needs GEMINI_API_KEY"))
	}

	source, text := "ipc", req.Text
	if req.Path != "" {
		raw, err := os.ReadFile(req.Path)
		if err != nil {
			return ipc.Fail(err)
		}
		source, text = req.Path, string(raw)
	}

	n, err := d.env.Library.Ingest(ctx, source, text)
	if err != nil {
		return ipc.Fail(err)
	}
	return ipc.Response{OK: true, Text: fmt.Sprintf("learned %d chunks from %s", n, source)}
}

func (d *daemon) status() ipc.Response {
	d.mu.Lock()
	listening := d.recording
	d.mu.Unlock()

	return ipc.Response{OK: true, Data: map[string]any{
		"name":      d.env.Config.Name,
		"mode":      d.env.Assistant.Mode(),
		"listening": listening,
		"library":   d.env.Library != nil,
		"devices":   d.env.Bus != nil,
	}}
}

func (d *daemon) cleanup(ctx context.Context) {
	n, err := d.env.Knowledge.Cleanup(ctx, retentionDays)
	if err != nil {
		log.Error("Cleanup failed", "err", err)
		return
	}
	log.Info("Cleaned knowledge store", "rows", n)
}

func transcription(res stt.Result) *understand.Transcription {
	tokens := make([]understand.Token, 0, len(res.Tokens))
	for _, t := range res.Tokens {
		tokens = append(tokens, understand.Token{Text: t.Text, P: float64(t.P), Start: t.Start, End: t.End})
	}
	return understand.FromTokens(tokens)
}
