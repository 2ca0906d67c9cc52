package nlu

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"zendaya/internal/session"
)

// AutoSearchKeywords make a chat utterance go through web search first.
var AutoSearchKeywords = []string{
	"latest", "today", "breaking", "news", "trending", "score",
	"price", "weather", "exchange rate", "update", "who won", "market", "live",
	"forecast", "definition", "meaning", "how to", "what is",
}

var PowerActions = []string{"shutdown", "restart", "sleep", "lock"}

// Words that follow "i'm"/"i am" without being a name.
var notNames = []string{
	"a", "an", "the", "not", "so", "very", "just", "still", "here", "back",
	"fine", "good", "ok", "okay", "sure", "sorry", "ready", "done", "tired",
	"happy", "sad", "busy", "home", "going", "trying", "looking", "working",
}

type patterns struct {
	cancel *regexp.Regexp

	voiceOnly *regexp.Regexp
	textOnly  *regexp.Regexp
	both      *regexp.Regexp

	voiceSwitch *regexp.Regexp

	proOn  *regexp.Regexp
	proOff *regexp.Regexp

	name        *regexp.Regexp
	selfInquiry *regexp.Regexp

	status     *regexp.Regexp
	readClip   *regexp.Regexp
	writeClip  *regexp.Regexp
	findFile   *regexp.Regexp
	readFile   *regexp.Regexp
	manageFile *regexp.Regexp
	email      *regexp.Regexp
	calendar   *regexp.Regexp
	notify     *regexp.Regexp

	routine *regexp.Regexp

	open  *regexp.Regexp
	close *regexp.Regexp
	power *regexp.Regexp

	turnOnOff  *regexp.Regexp
	turnDevice *regexp.Regexp
	setDevice  *regexp.Regexp

	search *regexp.Regexp
}

func compile(name string) *patterns {
	wake := fmt.Sprintf(`^(?:%s,?\s*)?`, regexp.QuoteMeta(strings.ToLower(name)))
	re := func(expr string) *regexp.Regexp {
		return regexp.MustCompile(strings.ReplaceAll(expr, "<wake>", wake))
	}

	return &patterns{
		cancel: re(`\bcancel\b`),

		voiceOnly: re(`<wake>(?:voice only|speak only)$`),
		textOnly:  re(`<wake>text only$`),
		both:      re(`<wake>(?:type and speak|text and voice|both)$`),

		voiceSwitch: re(`<wake>(?:switch|change)\s+(?:to\s+)?(?:the\s+)?(.+?)\s+voice$|<wake>use\s+(?:the\s+)?(.+?)\s+voice$`),

		proOn:  re(`\b(?:enter|start|enable|activate)\s+professional\s+mode\b`),
		proOff: re(`\b(?:exit|stop|disable|deactivate)\s+professional\s+mode\b`),

		name: re(`(?i)\b(?:my\s+name\s+is|call\s+me|i'm|i\s+am)\s+([a-zA-Z]+)\b`),
		selfInquiry: re(`\b(?:what are you|who are you|tell me about yourself|what is ` + regexp.QuoteMeta(strings.ToLower(name)) +
			`|meaning of ` + regexp.QuoteMeta(strings.ToLower(name)) + `|know you|why do they call you)\b`),

		status:     re(`\b(?:system status|pc performance)\b`),
		readClip:   re(`\b(?:read|what's on)\s+my\s+clipboard\b`),
		writeClip:  re(`^copy\s+(?:this|that)\s+to\s+(?:the\s+)?clipboard`),
		findFile:   re(`(?i)^find\s+file\s+(.+)$`),
		readFile:   re(`(?i)^read\s+file\s+(.+)$`),
		manageFile: re(`(?i)^(copy|move|delete)\s+(.+?)(?:\s+to\s+(.+))?$`),
		email:      re(`\bcheck\s+my\s+email\b`),
		calendar:   re(`\bcheck\s+my\s+calendar\b`),
		notify:     re(`(?i)^(?:notify\s+me|send\s+(?:a\s+|me\s+a\s+)?notification)(?:\s+that|\s*:)?\s+(.+)$`),

		routine: re(`<wake>(?:run|start)\s+(?:my\s+)?(.+?)\s+routine$`),

		open:  re(`<wake>(?:open|launch|start)\s+(.+)$`),
		close: re(`<wake>(?:close|quit|kill|exit)\s+(.+)$`),
		power: re(`<wake>(shutdown|restart|sleep|lock)(?:\s+pc|\s+computer)?$`),

		turnOnOff:  re(`<wake>turn\s+(on|off)\s+(?:the\s+)?(.+)$`),
		turnDevice: re(`<wake>turn\s+(?:the\s+)?(.+?)\s+(on|off)$`),
		setDevice:  re(`<wake>set\s+(?:the\s+)?(.+?)\s+to\s+(\d{1,3})\s*%?$`),

		search: re(`(?i)<wake>(?:search(?:\s+for)?|look up|find|what is|tell me about|how to)\s+(.+)$`),
	}
}

// lower is the normalized form most rules match against.
func lower(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func (p *patterns) confirmation(text string, s *session.Session) (Intent, bool) {
	if s == nil || s.Pending == nil {
		return Intent{}, false
	}

	lt := lower(text)
	action := s.Pending.Action

	if p.cancel.MatchString(lt) {
		return newIntent(KindCancel, text, "action", action), true
	}

	if !strings.Contains(lt, "confirm") {
		return Intent{}, false
	}

	for _, phrase := range confirmPhrases(action) {
		if containsWords(lt, phrase) {
			return newIntent(KindConfirm, text, "action", action, "path", s.Pending.Path), true
		}
	}
	return Intent{}, false
}

// confirmPhrases lists what the user must say to run a pending action.
func confirmPhrases(action string) []string {
	if action == "delete" {
		return []string{"confirm delete", "confirm deletion"}
	}
	return []string{"confirm " + action}
}

// ConfirmPhrase is the phrase announced to the user when action is queued.
func ConfirmPhrase(action string) string {
	return confirmPhrases(action)[0]
}

func containsWords(lt, phrase string) bool {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(phrase) + `\b`).MatchString(lt)
}

func (p *patterns) modeSwitch(text string, _ *session.Session) (Intent, bool) {
	lt := lower(text)
	var mode session.Mode
	switch {
	case p.voiceOnly.MatchString(lt):
		mode = session.ModeVoice
	case p.textOnly.MatchString(lt):
		mode = session.ModeText
	case p.both.MatchString(lt):
		mode = session.ModeBoth
	default:
		return Intent{}, false
	}
	return newIntent(KindMode, text, "mode", string(mode)), true
}

func (p *patterns) voiceSwitchRule(text string, _ *session.Session) (Intent, bool) {
	m := p.voiceSwitch.FindStringSubmatch(lower(text))
	if m == nil {
		return Intent{}, false
	}
	name := m[1]
	if name == "" {
		name = m[2]
	}
	return newIntent(KindVoice, text, "voice", strings.TrimSpace(name)), true
}

func (p *patterns) professional(text string, _ *session.Session) (Intent, bool) {
	lt := lower(text)
	switch {
	case p.proOn.MatchString(lt):
		return newIntent(KindProfessional, text, "on", "true"), true
	case p.proOff.MatchString(lt):
		return newIntent(KindProfessional, text, "on", "false"), true
	}
	return Intent{}, false
}

func (p *patterns) nameIntro(text string, _ *session.Session) (Intent, bool) {
	m := p.name.FindStringSubmatch(text)
	if m == nil {
		return Intent{}, false
	}
	n := strings.ToLower(m[1])
	if slices.Contains(notNames, n) || strings.HasSuffix(n, "ing") {
		return Intent{}, false
	}
	return newIntent(KindName, text, "name", strings.ToUpper(n[:1])+n[1:]), true
}

func (p *patterns) selfInquiryRule(text string, _ *session.Session) (Intent, bool) {
	if p.selfInquiry.MatchString(lower(text)) {
		return newIntent(KindSelfInquiry, text), true
	}
	return Intent{}, false
}

func (p *patterns) tier1(text string, s *session.Session) (Intent, bool) {
	lt := lower(text)
	trimmed := strings.TrimSpace(text)

	switch {
	case p.status.MatchString(lt):
		return newIntent(KindSystemStatus, text), true
	case p.readClip.MatchString(lt):
		return newIntent(KindReadClipboard, text), true
	case p.writeClip.MatchString(lt):
		var last string
		if s != nil {
			last, _ = s.LastReply()
		}
		if last == "" {
			return newIntent(KindError, text, "message", "No response to copy."), true
		}
		return newIntent(KindWriteClipboard, text, "content", last), true
	}

	if m := p.findFile.FindStringSubmatch(trimmed); m != nil {
		return newIntent(KindFindFile, text, "filename", strings.TrimSpace(m[1])), true
	}
	if m := p.readFile.FindStringSubmatch(trimmed); m != nil {
		return newIntent(KindReadFile, text, "path", strings.TrimSpace(m[1])), true
	}
	if m := p.manageFile.FindStringSubmatch(trimmed); m != nil {
		return newIntent(KindManageFile, text,
			"action", strings.ToLower(m[1]),
			"source", strings.TrimSpace(m[2]),
			"destination", strings.TrimSpace(m[3]),
		), true
	}

	switch {
	case p.email.MatchString(lt):
		return newIntent(KindCheckEmail, text), true
	case p.calendar.MatchString(lt):
		return newIntent(KindCheckCalendar, text), true
	}

	if m := p.notify.FindStringSubmatch(trimmed); m != nil {
		return newIntent(KindNotify, text, "message", strings.TrimSpace(m[1])), true
	}
	return Intent{}, false
}

func (p *patterns) routineRule(text string, _ *session.Session) (Intent, bool) {
	m := p.routine.FindStringSubmatch(lower(text))
	if m == nil {
		return Intent{}, false
	}
	return newIntent(KindRoutine, text, "routine", strings.TrimSpace(m[1])), true
}

func (p *patterns) systemControl(text string, _ *session.Session) (Intent, bool) {
	return p.parseSystemControl(text)
}

func (p *patterns) parseSystemControl(text string) (Intent, bool) {
	lt := lower(text)

	if m := p.open.FindStringSubmatch(lt); m != nil {
		return newIntent(KindOpen, text, "target", strings.TrimSpace(m[1])), true
	}
	if m := p.close.FindStringSubmatch(lt); m != nil {
		return newIntent(KindClose, text, "target", strings.TrimSpace(m[1])), true
	}
	if m := p.power.FindStringSubmatch(lt); m != nil {
		return newIntent(KindPower, text, "action", m[1]), true
	}
	return Intent{}, false
}

// deviceRule builds a device rule bound to the known device names.
func (p *patterns) deviceRule(devices map[string]string) func(string, *session.Session) (Intent, bool) {
	resolve := func(name string) (string, bool) {
		name = strings.TrimSpace(name)
		id, ok := devices[name]
		return id, ok
	}

	return func(text string, _ *session.Session) (Intent, bool) {
		lt := strings.TrimRight(lower(text), ".!")

		if m := p.turnOnOff.FindStringSubmatch(lt); m != nil {
			if id, ok := resolve(m[2]); ok {
				return newIntent(KindDevice, text, "device", id, "action", m[1]), true
			}
		}
		if m := p.turnDevice.FindStringSubmatch(lt); m != nil {
			if id, ok := resolve(m[1]); ok {
				return newIntent(KindDevice, text, "device", id, "action", m[2]), true
			}
		}
		if m := p.setDevice.FindStringSubmatch(lt); m != nil {
			if id, ok := resolve(m[1]); ok {
				v, _ := strconv.Atoi(m[2])
				return newIntent(KindDevice, text, "device", id, "action", "set", "value", strconv.Itoa(v)), true
			}
		}
		return Intent{}, false
	}
}

func (p *patterns) searchTrigger(text string, _ *session.Session) (Intent, bool) {
	trimmed := strings.TrimSpace(text)
	if m := p.search.FindStringSubmatch(trimmed); m != nil {
		return newIntent(KindSearch, text, "query", strings.TrimSpace(m[1]), "manual", "true"), true
	}

	lt := lower(text)
	for _, k := range AutoSearchKeywords {
		if strings.Contains(lt, k) {
			return newIntent(KindSearch, text, "query", trimmed), true
		}
	}
	return Intent{}, false
}
