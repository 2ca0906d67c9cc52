// Package boot wires the assistant and its collaborators from a Config.
// Collaborators whose keys or files are missing are left out and the
// assistant answers that the feature is unavailable.
package boot

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"time"

	"zendaya/internal/assistant"
	"zendaya/internal/config"
	"zendaya/internal/devices"
	"zendaya/internal/knowledge"
	"zendaya/internal/llm"
	"zendaya/internal/nlu"
	"zendaya/internal/notify"
	"zendaya/internal/proxy"
	"zendaya/internal/search"
	"zendaya/internal/session"
	"zendaya/internal/system"
	"zendaya/internal/tts"
	"zendaya/internal/workspace"
	"zendaya/pkg/protocol"
)

// Options carries the audio pieces only some binaries link in.
type Options struct {
	Player   tts.Player
	Fallback tts.Fallback
	Cue      notify.Cue
	// Devices dials the device bus when cfg.DeviceBus is set.
	Devices bool
}

type Env struct {
	Config    config.Config
	HTTP      *http.Client
	Assistant *assistant.Assistant
	Speaker   *tts.Speaker
	Notifier  *notify.Notifier
	Knowledge *knowledge.Store
	// Library is nil without an embedding key.
	Library *knowledge.Library
	// Bus is nil unless the device bus is configured and reachable.
	Bus *protocol.Protocol
}

func Build(ctx context.Context, cfg config.Config, opt Options) (*Env, error) {
	httpClient, err := proxy.NewClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", cfg.Proxy, err)
	}

	store, err := knowledge.Open(ctx, cfg.KnowledgePath())
	if err != nil {
		return nil, err
	}

	env := &Env{Config: cfg, HTTP: httpClient, Knowledge: store}
	env.Notifier = notify.New(nil, opt.Cue, cfg.Beep)

	var cloud tts.Synthesizer
	if cfg.Keys.ElevenLabs != "" {
		cloud = tts.NewElevenLabs(cfg.Keys.ElevenLabs, httpClient)
	} else {
		log.Warn("ELEVENLABS_API_KEY is not set, voice falls back to espeak")
	}
	env.Speaker = tts.NewSpeaker(cloud, opt.Player, opt.Fallback, cfg.AudioDir())

	deps := nlu.Deps{
		Monitor:  system.NewMonitor(),
		Files:    system.NewFiles(cfg.FilesRoot),
		Apps:     system.NewApps(cfg.Apps, cfg.Shortcuts, nil),
		Power:    system.NewPower(nil),
		Notifier: env.Notifier,
		Offline:  store,
		Voices:   cfg.Voices,
		Routines: cfg.Routines,
		Name:     cfg.Name,
		User:     cfg.User,
	}

	if clip, err := system.NewClipboard(); err == nil {
		deps.Clipboard = clip
	} else {
		log.Warn("clipboard disabled", "err", err)
	}

	if brain, err := generator(ctx, cfg, httpClient); err == nil {
		deps.Brain = brain
	} else {
		log.Warn("generative replies disabled", "err", err)
	}

	if cfg.Keys.Gemini != "" {
		emb, err := knowledge.NewGeminiEmbedder(ctx, cfg.Keys.Gemini, "", httpClient)
		if err != nil {
			log.Warn("knowledge library disabled", "err", err)
		} else {
			env.Library = store.Library(emb)
			deps.Knowledge = env.Library
		}
	}

	if cfg.Keys.Tavily != "" {
		deps.Search = search.NewTavily(cfg.Keys.Tavily, httpClient)
	}

	if ts, err := workspace.TokenSource(ctx, cfg.Google.Credentials, cfg.Google.Token, httpClient); err != nil {
		log.Info("google workspace disabled", "err", err)
	} else {
		if gm, err := workspace.NewGmail(ctx, ts); err == nil {
			deps.Mail = gm
		} else {
			log.Warn("gmail disabled", "err", err)
		}
		if cal, err := workspace.NewCalendar(ctx, ts); err == nil {
			deps.Calendar = cal
		} else {
			log.Warn("calendar disabled", "err", err)
		}
	}

	if opt.Devices && cfg.DeviceBus != "" {
		bus, err := protocol.NewProtocol(protocol.Config{
			Shard:   cfg.Shard,
			Url:     cfg.DeviceBus,
			Reconn:  2 * time.Second,
			Timeout: 5 * time.Second,
		})
		if err != nil {
			log.Warn("device bus unavailable", "url", cfg.DeviceBus, "err", err)
		} else {
			env.Bus = bus
			deps.Devices = devices.NewController(bus)
		}
	}

	cls := nlu.NewClassifier(nlu.Options{Name: cfg.Name, Devices: cfg.Devices})
	env.Assistant = assistant.New(assistant.Config{
		Name:       cfg.Name,
		Classifier: cls,
		Deps:       deps,
		Store:      session.NewStore(cfg.SessionPath()),
		Voice:      env.Speaker,
	})
	return env, nil
}

// generator prefers the configured provider and falls back to whichever
// key is present. cfg.Model only applies to the preferred provider.
func generator(ctx context.Context, cfg config.Config, httpClient *http.Client) (llm.Generator, error) {
	gemini := func(model string) (llm.Generator, error) {
		return llm.NewGemini(ctx, cfg.Keys.Gemini, model, httpClient)
	}
	openai := func(model string) (llm.Generator, error) {
		return llm.NewOpenAI(cfg.Keys.OpenAI, model, httpClient)
	}

	first, second := gemini, openai
	if cfg.Provider == "openai" {
		first, second = openai, gemini
	}
	g, err := first(cfg.Model)
	if err == nil {
		return g, nil
	}
	g, err2 := second("")
	if err2 == nil {
		return g, nil
	}
	return nil, errors.Join(err, err2)
}

func (e *Env) Close() error {
	var errs []error
	if e.Bus != nil {
		errs = append(errs, e.Bus.Close())
	}
	errs = append(errs, e.Knowledge.Close())
	return errors.Join(errs...)
}
