// Package assistant runs one conversational turn end to end: scoring,
// classification, dispatch, memory upkeep and speech rendering.
package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"

	"zendaya/internal/fuzzy"
	"zendaya/internal/llm"
	"zendaya/internal/nlu"
	"zendaya/internal/session"
	"zendaya/internal/tts"
	"zendaya/internal/understand"
)

const exitCutoff = 0.7

var ErrEmptyUtterance = errors.New("empty utterance")

var exitCommands = []string{"exit", "quit", "bye", "goodbye", "farewell"}

const (
	Farewell   = "Farewell. Don't cause trouble without me."
	Deactivate = "Deactivating. Talk to you later."
)

// Turn is one user utterance. Transcription is set for spoken input.
type Turn struct {
	Text          string                    `json:"text"`
	Transcription *understand.Transcription `json:"transcription,omitempty"`
}

func (t Turn) Spoken() bool { return t.Transcription != nil }

type Reply struct {
	Text               string      `json:"text"`
	Steps              []string    `json:"steps,omitempty"`
	Audio              string      `json:"audio,omitempty"`
	NeedsClarification bool        `json:"clarification_needed"`
	Suggestions        []string    `json:"suggestions,omitempty"`
	Emotion            tts.Emotion `json:"emotion"`
	Intent             nlu.Kind    `json:"intent"`
	Source             string      `json:"source"`
}

// Store loads and saves the session once per turn; session.Store fits.
type Store interface {
	Load() *session.Session
	Save(s *session.Session) error
}

// Voice renders reply text to an audio clip; tts.Speaker fits.
type Voice interface {
	Render(ctx context.Context, text, voice string, emotion tts.Emotion) (string, error)
}

type Config struct {
	Name       string
	Classifier *nlu.Classifier
	Deps       nlu.Deps
	Store      Store
	// Voice may be nil; replies then carry no audio.
	Voice Voice
}

// Assistant serializes turns: each one reads, mutates and saves the
// whole session.
type Assistant struct {
	mu     sync.Mutex
	name   string
	cls    *nlu.Classifier
	disp   *nlu.Dispatcher
	engine *understand.Engine
	store  Store
	brain  llm.Generator
	voice  Voice
}

func New(cfg Config) *Assistant {
	if cfg.Name == "" {
		cfg.Name = "Zendaya"
	}
	if cfg.Classifier == nil {
		cfg.Classifier = nlu.NewClassifier(nlu.Options{Name: cfg.Name})
	}
	cfg.Deps.Name = cfg.Name

	return &Assistant{
		name:   cfg.Name,
		cls:    cfg.Classifier,
		disp:   nlu.NewDispatcher(cfg.Classifier, cfg.Deps, cfg.Store.Save),
		engine: understand.NewEngine(),
		store:  cfg.Store,
		brain:  cfg.Deps.Brain,
		voice:  cfg.Voice,
	}
}

// Handle runs a turn. The only error is ErrEmptyUtterance; collaborator
// failures end up in the reply text.
func (a *Assistant) Handle(ctx context.Context, t Turn) (Reply, error) {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return Reply{}, ErrEmptyUtterance
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.store.Load()
	s.Remember(session.RoleUser, text)

	analysis := a.engine.Analyze(text, t.Transcription)
	if understand.NeedsClarification(analysis) {
		log.Debug("asking for clarification", "confidence", analysis.Confidence, "type", analysis.ErrorType)
		reply := Reply{
			Text:               understand.Clarification(analysis),
			NeedsClarification: true,
			Suggestions:        analysis.Corrections,
			Emotion:            tts.Concerned,
			Source:             nlu.SourceLocal,
		}
		return a.finish(ctx, s, reply), nil
	}

	input := text
	if t.Spoken() {
		input = analysis.Text
		if len(analysis.Corrections) > 0 {
			log.Debug("using correction", "heard", text, "corrected", analysis.Corrections[0])
			input = analysis.Corrections[0]
		}
	}

	in := a.cls.Classify(input, s)
	if in.Kind != nlu.KindChat {
		s.RecordCommand(input)
	}
	log.Debug("classified", "intent", in.Kind, "rule", in.Rule)

	resp := a.disp.Dispatch(ctx, in, s)

	reply := Reply{
		Text:    resp.Text,
		Steps:   resp.Steps,
		Emotion: Emotion(input, resp.Text),
		Intent:  in.Kind,
		Source:  resp.Source,
	}
	return a.finish(ctx, s, reply), nil
}

// finish records the reply, folds old memory, renders audio and saves.
func (a *Assistant) finish(ctx context.Context, s *session.Session, r Reply) Reply {
	s.Remember(session.RoleAssistant, r.Text)
	a.summarize(ctx, s)

	if a.voice != nil && s.Mode != session.ModeText {
		clip, err := a.voice.Render(ctx, r.Text, s.VoiceID, r.Emotion)
		switch {
		case errors.Is(err, tts.ErrNoVoice):
		case err != nil:
			log.Warn("render reply", "err", err)
		default:
			r.Audio = clip
		}
	}

	if err := a.store.Save(s); err != nil {
		log.Error("save session", "err", err)
	}
	return r
}

func (a *Assistant) summarize(ctx context.Context, s *session.Session) {
	if a.brain == nil || !s.NeedsSummary() {
		return
	}
	summary, err := a.brain.Generate(ctx, llm.SummarizeConversation(s.Convo[:session.SummarizeBatch]))
	if err != nil {
		log.Warn("summarize memory", "err", err)
		return
	}
	s.Fold(strings.TrimSpace(summary))
}

// Greeting is the welcome line shown at start-up.
func (a *Assistant) Greeting() string {
	a.mu.Lock()
	s := a.store.Load()
	a.mu.Unlock()

	welcome := "Welcome back."
	if s.UserName != "" {
		welcome = "Welcome back, " + s.UserName + "."
	}
	return welcome + " My systems are online and ready."
}

// Mode reports the current output mode.
func (a *Assistant) Mode() session.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Load().Mode
}

// IsExit reports whether text is (close to) an exit command.
func IsExit(text string) bool {
	_, ok := fuzzy.Best(strings.ToLower(strings.TrimSpace(text)), exitCommands, exitCutoff)
	return ok
}

var (
	helpfulWords   = []string{"help", "problem", "issue", "error"}
	excitedWords   = []string{"great", "awesome", "perfect", "excellent"}
	concernedWords = []string{"sorry", "unfortunately", "cannot", "unable", "couldn't", "can't"}
)

// Emotion picks the delivery for a reply from the user's words first,
// then the reply's.
func Emotion(input, reply string) tts.Emotion {
	in, out := strings.ToLower(input), strings.ToLower(reply)
	switch {
	case containsAny(in, helpfulWords):
		return tts.Helpful
	case containsAny(in, excitedWords):
		return tts.Excited
	case containsAny(out, concernedWords):
		return tts.Concerned
	}
	return tts.Confident
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
