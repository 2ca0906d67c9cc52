package session

import (
	"time"
)

type Mode string

const (
	ModeVoice Mode = "voice"
	ModeText  Mode = "text"
	ModeBoth  Mode = "both"
)

const (
	DefaultMode    = ModeBoth
	DefaultVoiceID = "mxTlDrtKZzOqgjtBw4hM"

	// Window is the number of conversation entries kept verbatim.
	Window = 30
	// SummarizeAt is the window size at which the oldest entries get folded
	// into a summary.
	SummarizeAt    = 20
	SummarizeBatch = 10

	historyLimit = 50
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"ts"`
}

// Pending is a dangerous action waiting for an explicit confirmation.
type Pending struct {
	Action string `json:"action"`
	Path   string `json:"path,omitempty"`
}

// Session is the per-user state a turn reads and writes. It is passed
// explicitly to every dispatch call and saved once per turn.
type Session struct {
	Mode             Mode                `json:"mode"`
	VoiceID          string              `json:"current_voice_id"`
	Pending          *Pending            `json:"pending_confirm"`
	UserName         string              `json:"user_name,omitempty"`
	ProfessionalMode bool                `json:"professional_mode"`
	Convo            []Message           `json:"convo"`
	Summaries        []string            `json:"summaries"`
	InsideJokes      []string            `json:"inside_jokes"`
	Routines         map[string][]string `json:"routines"`
	CommandHistory   []string            `json:"command_history"`
}

func New() *Session {
	return &Session{
		Mode:     DefaultMode,
		VoiceID:  DefaultVoiceID,
		Convo:    []Message{},
		Routines: map[string][]string{},
	}
}

func (s *Session) normalize() {
	switch s.Mode {
	case ModeVoice, ModeText, ModeBoth:
	default:
		s.Mode = DefaultMode
	}
	if s.VoiceID == "" {
		s.VoiceID = DefaultVoiceID
	}
	if s.Routines == nil {
		s.Routines = map[string][]string{}
	}
	if s.Convo == nil {
		s.Convo = []Message{}
	}
}

// Remember appends a message and keeps the rolling window bounded.
func (s *Session) Remember(role Role, text string) {
	s.Convo = append(s.Convo, Message{Role: role, Text: text, At: time.Now()})
	if len(s.Convo) > Window {
		s.Convo = append([]Message(nil), s.Convo[len(s.Convo)-Window:]...)
	}
}

// Recent returns at most n trailing messages.
func (s *Session) Recent(n int) []Message {
	if n <= 0 || len(s.Convo) == 0 {
		return nil
	}
	if n > len(s.Convo) {
		n = len(s.Convo)
	}
	return s.Convo[len(s.Convo)-n:]
}

// LastReply returns the most recent assistant message, if any.
func (s *Session) LastReply() (string, bool) {
	for i := len(s.Convo) - 1; i >= 0; i-- {
		if s.Convo[i].Role == RoleAssistant && s.Convo[i].Text != "" {
			return s.Convo[i].Text, true
		}
	}
	return "", false
}

func (s *Session) RecordCommand(cmd string) {
	s.CommandHistory = append(s.CommandHistory, cmd)
	if len(s.CommandHistory) > historyLimit {
		s.CommandHistory = s.CommandHistory[len(s.CommandHistory)-historyLimit:]
	}
}

// NeedsSummary reports whether the conversation window is long enough to
// fold its oldest batch into a summary.
func (s *Session) NeedsSummary() bool {
	return len(s.Convo) >= SummarizeAt
}

// Fold replaces the oldest batch of messages with summary.
func (s *Session) Fold(summary string) {
	if len(s.Convo) < SummarizeBatch {
		return
	}
	s.Summaries = append(s.Summaries, summary)
	s.Convo = append([]Message(nil), s.Convo[SummarizeBatch:]...)
}

func (s *Session) Queue(p Pending) {
	s.Pending = &p
}

// TakePending clears the pending slot and returns what was there.
func (s *Session) TakePending() *Pending {
	p := s.Pending
	s.Pending = nil
	return p
}
