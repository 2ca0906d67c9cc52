package nlu

import (
	"strings"

	"zendaya/internal/session"
)

// Rule is one entry of the cascade: a named predicate that either claims
// the utterance with an intent or passes.
type Rule struct {
	Name  string
	Match func(text string, s *session.Session) (Intent, bool)
}

type Options struct {
	// Name is the assistant's name, accepted as a wake prefix ("zendaya, ...").
	Name string
	// Devices maps spoken device names to device ids.
	Devices map[string]string
}

// Classifier runs the rule cascade in priority order. The first matching
// rule decides the intent; an utterance nothing claims is chat.
type Classifier struct {
	pats  *patterns
	rules []Rule
}

func NewClassifier(opt Options) *Classifier {
	if opt.Name == "" {
		opt.Name = "zendaya"
	}

	devices := make(map[string]string, len(opt.Devices))
	for k, v := range opt.Devices {
		devices[strings.ToLower(k)] = v
	}

	p := compile(opt.Name)

	return &Classifier{
		pats: p,
		rules: []Rule{
			{"confirm", p.confirmation},
			{"mode", p.modeSwitch},
			{"voice", p.voiceSwitchRule},
			{"professional", p.professional},
			{"name", p.nameIntro},
			{"self_inquiry", p.selfInquiryRule},
			{"tier1", p.tier1},
			{"routine", p.routineRule},
			{"system_control", p.systemControl},
			{"device", p.deviceRule(devices)},
			{"search", p.searchTrigger},
		},
	}
}

// Classify returns exactly one intent for text.
func (c *Classifier) Classify(text string, s *session.Session) Intent {
	for _, r := range c.rules {
		if in, ok := r.Match(text, s); ok {
			in.Rule = r.Name
			return in
		}
	}
	in := newIntent(KindChat, text)
	in.Rule = "chat"
	return in
}

// Rules lists rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// SystemControl parses only open/close/power commands. Routines run their
// steps through it.
func (c *Classifier) SystemControl(text string) (Intent, bool) {
	return c.pats.parseSystemControl(text)
}
