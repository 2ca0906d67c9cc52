package nlu

import (
	"context"
	"errors"
	log "log/slog"
	"math/rand/v2"
	"strings"

	"zendaya/internal/session"
)

const (
	SourceLocal      = "local"
	SourceOffline    = "offline"
	SourceSearch     = "search"
	SourceGenerative = "generative"
)

// Response is what a handler produced for one intent.
type Response struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	// Steps holds progress lines (routines, large-file notices) shown before Text.
	Steps []string `json:"steps,omitempty"`
}

// errUnavailable is returned by handlers whose collaborator is not configured.
var errUnavailable = errors.New("collaborator not configured")

type handler func(ctx context.Context, in Intent, s *session.Session) (Response, error)

// Dispatcher executes classified intents against its collaborators.
type Dispatcher struct {
	deps     Deps
	cls      *Classifier
	save     func(*session.Session) error
	handlers map[Kind]handler
}

// NewDispatcher wires one handler per intent kind. save, when not nil, is
// called to persist the session before a confirmed action runs.
func NewDispatcher(cls *Classifier, deps Deps, save func(*session.Session) error) *Dispatcher {
	if deps.Name == "" {
		deps.Name = "Zendaya"
	}
	if deps.Intn == nil {
		deps.Intn = rand.IntN
	}

	d := &Dispatcher{deps: deps, cls: cls, save: save}
	d.handlers = map[Kind]handler{
		KindConfirm:        d.confirm,
		KindCancel:         d.cancel,
		KindMode:           d.mode,
		KindVoice:          d.voice,
		KindProfessional:   d.professional,
		KindName:           d.name,
		KindSelfInquiry:    d.selfInquiry,
		KindSystemStatus:   d.systemStatus,
		KindReadClipboard:  d.readClipboard,
		KindWriteClipboard: d.writeClipboard,
		KindFindFile:       d.findFile,
		KindReadFile:       d.readFile,
		KindManageFile:     d.manageFile,
		KindCheckEmail:     d.checkEmail,
		KindCheckCalendar:  d.checkCalendar,
		KindNotify:         d.notify,
		KindRoutine:        d.routine,
		KindOpen:           d.open,
		KindClose:          d.close,
		KindPower:          d.power,
		KindDevice:         d.device,
		KindSearch:         d.search,
		KindError:          d.errorIntent,
		KindChat:           d.chat,
	}
	return d
}

// Dispatch runs the handler for in. It never fails: collaborator errors
// are logged and turned into an apology.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent, s *session.Session) Response {
	h, ok := d.handlers[in.Kind]
	if !ok {
		log.Warn("no handler for intent", "intent", in.Kind)
		h = d.chat
	}

	resp, err := h(ctx, in, s)
	if err != nil {
		if errors.Is(err, errUnavailable) {
			log.Debug("intent unavailable", "intent", in.Kind)
			return Response{Text: unavailable(in.Kind), Source: SourceLocal}
		}
		log.Error("dispatch failed", "intent", in.Kind, "rule", in.Rule, "err", err)
		return Response{Text: apology(in.Kind), Source: SourceLocal, Steps: resp.Steps}
	}
	if resp.Source == "" {
		resp.Source = SourceLocal
	}
	return resp
}

func unavailable(k Kind) string {
	switch k {
	case KindCheckEmail:
		return "I couldn't connect to your Gmail account."
	case KindCheckCalendar:
		return "I couldn't connect to your Google Calendar."
	case KindSearch:
		return "Search is unavailable right now. Add TAVILY_API_KEY to .env."
	case KindChat:
		return "My online brain is offline. Add GEMINI_API_KEY to .env."
	case KindDevice:
		return "I'm not connected to the device bus."
	case KindReadClipboard, KindWriteClipboard:
		return "I can't reach the clipboard on this machine."
	case KindNotify:
		return "Notifications aren't available here."
	}
	return "That feature isn't set up yet."
}

func apology(k Kind) string {
	switch k {
	case KindChat, KindSearch:
		return "Sorry, my online brain hit a snag. Try again in a moment."
	case KindReadClipboard:
		return "Sorry, I couldn't read the clipboard."
	case KindWriteClipboard:
		return "I couldn't write to the clipboard."
	case KindConfirm:
		return "I tried, but the system returned an error."
	}
	return "Sorry, I had an issue with that command."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
