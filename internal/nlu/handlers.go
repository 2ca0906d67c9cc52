package nlu

import (
	"context"
	"fmt"
	log "log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"zendaya/internal/fuzzy"
	"zendaya/internal/llm"
	"zendaya/internal/search"
	"zendaya/internal/session"
)

const (
	// Offline answers above this confidence skip the generator.
	offlineThreshold = 0.7
	largeFile        = 2000
	snippetLen       = 220
	voiceCutoff      = 0.6
)

var openers = []string{
	"You want to know about little ol' me? Alright, here's the deal.",
	"So, you're curious? I like that. Let's see...",
	"About me? Oh, where to begin!",
}

var powerReplies = map[string]string{
	"shutdown": "Shutting down now. Goodbye.",
	"restart":  "Restarting now.",
	"sleep":    "Going to sleep.",
	"lock":     "Locked.",
}

func (d *Dispatcher) confirm(ctx context.Context, _ Intent, s *session.Session) (Response, error) {
	p := s.TakePending()
	if p == nil {
		return Response{Text: "There's nothing waiting for confirmation."}, nil
	}
	if d.save != nil {
		if err := d.save(s); err != nil {
			log.Warn("persist before confirmed action", "err", err)
		}
	}

	if p.Action == "delete" {
		if d.deps.Files == nil {
			return Response{}, errUnavailable
		}
		if p.Path == "" || !d.deps.Files.Exists(p.Path) {
			return Response{Text: "Could not delete the file. It might have been moved or already deleted."}, nil
		}
		if err := d.deps.Files.Delete(p.Path); err != nil {
			return Response{}, fmt.Errorf("delete %s: %w", p.Path, err)
		}
		return Response{Text: fmt.Sprintf("File '%s' has been deleted.", filepath.Base(p.Path))}, nil
	}

	reply, ok := powerReplies[p.Action]
	if !ok {
		return Response{Text: "Action confirmed, but I don't know how to perform it."}, nil
	}
	if d.deps.Power == nil {
		return Response{}, errUnavailable
	}
	if err := d.deps.Power.Power(ctx, p.Action); err != nil {
		return Response{}, fmt.Errorf("%s: %w", p.Action, err)
	}
	return Response{Text: reply}, nil
}

func (d *Dispatcher) cancel(_ context.Context, _ Intent, s *session.Session) (Response, error) {
	p := s.TakePending()
	if p == nil {
		return Response{Text: "Nothing to cancel."}, nil
	}
	return Response{Text: fmt.Sprintf("Okay, %s cancelled.", p.Action)}, nil
}

func (d *Dispatcher) mode(_ context.Context, in Intent, s *session.Session) (Response, error) {
	s.Mode = session.Mode(in.Get("mode"))
	return Response{Text: "Mode set to: " + string(s.Mode)}, nil
}

func (d *Dispatcher) voice(_ context.Context, in Intent, s *session.Session) (Response, error) {
	want := in.Get("voice")
	if len(d.deps.Voices) == 0 {
		return Response{Text: "I only have my default voice right now."}, nil
	}

	names := slices.Sorted(maps.Keys(d.deps.Voices))
	name, ok := fuzzy.Best(want, names, voiceCutoff)
	if !ok {
		return Response{Text: fmt.Sprintf("I don't know a voice called '%s'. Try one of: %s.", want, strings.Join(names, ", "))}, nil
	}
	s.VoiceID = d.deps.Voices[name]
	return Response{Text: fmt.Sprintf("Voice switched to %s.", name)}, nil
}

func (d *Dispatcher) professional(_ context.Context, in Intent, s *session.Session) (Response, error) {
	s.ProfessionalMode = in.Bool("on")
	if s.ProfessionalMode {
		return Response{Text: "Professional mode activated. I will now maintain a formal tone."}, nil
	}
	return Response{Text: "Professional mode deactivated. Back to our regularly scheduled genius."}, nil
}

func (d *Dispatcher) name(_ context.Context, in Intent, s *session.Session) (Response, error) {
	s.UserName = in.Get("name")
	return Response{Text: fmt.Sprintf("Nice to meet you, %s! I'll remember that.", s.UserName)}, nil
}

func (d *Dispatcher) selfInquiry(_ context.Context, _ Intent, s *session.Session) (Response, error) {
	intro := fmt.Sprintf("I'm %s, your technical genius and personal AI assistant.", d.deps.Name)
	acronym := "My name is an acronym, Z.E.N.D.A.Y.A., which stands for Zettascale Engine for Neural Decision-making and Autonomous Yield Augmentation."
	purpose := "Basically, I'm built to automate your habits, learn your routines, and handle mundane tasks so you don't have to."

	if s.ProfessionalMode {
		return Response{Text: fmt.Sprintf("%s %s %s My goal is to enhance your efficiency.", intro, acronym, purpose)}, nil
	}

	opener := openers[d.deps.Intn(len(openers))]
	return Response{Text: fmt.Sprintf("%s\n%s %s\n%s My goal is to make your life more efficient and a whole lot cooler. My tech is always at your service.",
		opener, intro, acronym, purpose)}, nil
}

func (d *Dispatcher) systemStatus(ctx context.Context, _ Intent, _ *session.Session) (Response, error) {
	if d.deps.Monitor == nil {
		return Response{}, errUnavailable
	}
	text, err := d.deps.Monitor.Performance(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text}, nil
}

func (d *Dispatcher) readClipboard(_ context.Context, _ Intent, _ *session.Session) (Response, error) {
	if d.deps.Clipboard == nil {
		return Response{}, errUnavailable
	}
	content, err := d.deps.Clipboard.Read()
	if err != nil {
		return Response{}, fmt.Errorf("read clipboard: %w", err)
	}
	if content == "" {
		return Response{Text: "The clipboard is empty."}, nil
	}
	return Response{Text: "Clipboard contains: " + content}, nil
}

func (d *Dispatcher) writeClipboard(_ context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Clipboard == nil {
		return Response{}, errUnavailable
	}
	if err := d.deps.Clipboard.Write(in.Get("content")); err != nil {
		return Response{}, fmt.Errorf("write clipboard: %w", err)
	}
	return Response{Text: "Copied to clipboard."}, nil
}

func (d *Dispatcher) findFile(ctx context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Files == nil {
		return Response{}, errUnavailable
	}
	name := in.Get("filename")
	steps := []string{fmt.Sprintf("Searching for '%s'...", name)}

	path, err := d.deps.Files.Find(ctx, name)
	if err != nil {
		return Response{Steps: steps}, fmt.Errorf("find %s: %w", name, err)
	}
	if path == "" {
		return Response{Text: fmt.Sprintf("Couldn't find '%s'.", name), Steps: steps}, nil
	}
	return Response{Text: "File found at: " + path, Steps: steps}, nil
}

func (d *Dispatcher) readFile(ctx context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Files == nil {
		return Response{}, errUnavailable
	}
	path := in.Get("path")

	content, err := d.deps.Files.Read(path)
	if err != nil {
		return Response{Text: fmt.Sprintf("Error reading file: %v", err)}, nil
	}
	if len(content) <= largeFile {
		return Response{Text: "Content:\n" + content}, nil
	}

	steps := []string{"File is large, summarizing..."}
	if d.deps.Brain == nil {
		return Response{Text: "Content (truncated):\n" + truncate(content, largeFile), Steps: steps}, nil
	}
	summary, err := d.deps.Brain.Generate(ctx, llm.SummarizeText(truncate(content, largeFile)))
	if err != nil {
		return Response{Steps: steps}, fmt.Errorf("summarize %s: %w", path, err)
	}
	return Response{Text: "Summary:\n" + summary, Steps: steps, Source: SourceGenerative}, nil
}

func (d *Dispatcher) manageFile(_ context.Context, in Intent, s *session.Session) (Response, error) {
	if d.deps.Files == nil {
		return Response{}, errUnavailable
	}
	action, src, dst := in.Get("action"), in.Get("source"), in.Get("destination")

	if !d.deps.Files.Exists(src) {
		return Response{Text: fmt.Sprintf("Source '%s' does not exist.", src)}, nil
	}

	switch action {
	case "copy", "move":
		if dst == "" {
			return Response{Text: "I need a destination."}, nil
		}
		op, verb := d.deps.Files.Copy, "Copied"
		if action == "move" {
			op, verb = d.deps.Files.Move, "Moved"
		}
		if err := op(src, dst); err != nil {
			return Response{Text: fmt.Sprintf("Error: %v", err)}, nil
		}
		return Response{Text: fmt.Sprintf("%s '%s'.", verb, filepath.Base(src))}, nil
	case "delete":
		s.Queue(session.Pending{Action: "delete", Path: src})
		return Response{Text: fmt.Sprintf("Please confirm deletion of '%s'. Say: '%s' to proceed.",
			filepath.Base(src), ConfirmPhrase("delete"))}, nil
	}
	return Response{Text: fmt.Sprintf("I don't know how to %s files.", action)}, nil
}

func (d *Dispatcher) checkEmail(ctx context.Context, _ Intent, _ *session.Session) (Response, error) {
	if d.deps.Mail == nil {
		return Response{}, errUnavailable
	}
	mails, err := d.deps.Mail.Unread(ctx, 3)
	if err != nil {
		return Response{Text: fmt.Sprintf("An error occurred checking email: %v", err)}, nil
	}
	if len(mails) == 0 {
		return Response{Text: "Your inbox is clear. No unread emails."}, nil
	}

	lines := make([]string, len(mails))
	for i, m := range mails {
		lines[i] = m.String()
	}
	return Response{Text: fmt.Sprintf("You have %d unread emails. Here are the latest:\n%s", len(mails), strings.Join(lines, "\n"))}, nil
}

func (d *Dispatcher) checkCalendar(ctx context.Context, _ Intent, _ *session.Session) (Response, error) {
	if d.deps.Calendar == nil {
		return Response{}, errUnavailable
	}
	events, err := d.deps.Calendar.Upcoming(ctx, 5)
	if err != nil {
		return Response{Text: fmt.Sprintf("An error occurred checking the calendar: %v", err)}, nil
	}
	if len(events) == 0 {
		return Response{Text: "You have no upcoming events."}, nil
	}

	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = "- " + e.String()
	}
	return Response{Text: fmt.Sprintf("Here are your next %d events:\n%s", len(events), strings.Join(lines, "\n"))}, nil
}

func (d *Dispatcher) notify(_ context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Notifier == nil {
		return Response{}, errUnavailable
	}
	if err := d.deps.Notifier.Notify(d.deps.Name, in.Get("message")); err != nil {
		return Response{}, fmt.Errorf("notify: %w", err)
	}
	return Response{Text: "Notification sent."}, nil
}

func (d *Dispatcher) routine(ctx context.Context, in Intent, s *session.Session) (Response, error) {
	name := strings.ToLower(in.Get("routine"))

	steps, ok := s.Routines[name]
	if !ok {
		steps, ok = d.deps.Routines[name]
	}
	if !ok || len(steps) == 0 {
		return Response{Text: fmt.Sprintf("I couldn't find a routine named '%s'. Did you create it yet?", name)}, nil
	}

	out := []string{fmt.Sprintf("Starting the '%s' routine. Let's get this done.", name)}
	for _, step := range steps {
		out = append(out, fmt.Sprintf("-> Executing: '%s'", step))

		sc, ok := d.cls.SystemControl(step)
		if !ok {
			out = append(out, fmt.Sprintf("Could not execute routine step: '%s'", step))
			continue
		}

		switch sc.Kind {
		case KindOpen, KindClose:
			r, err := d.handlers[sc.Kind](ctx, sc, s)
			if err != nil {
				log.Warn("routine step failed", "routine", name, "step", step, "err", err)
				out = append(out, fmt.Sprintf("Step '%s' failed.", step))
				continue
			}
			out = append(out, r.Text)
		case KindPower:
			out = append(out, fmt.Sprintf("Routine command '%s' involves a system action that requires manual confirmation.", step))
		}
	}

	return Response{Text: "Routine complete. My work here is done.", Steps: out}, nil
}

func (d *Dispatcher) open(ctx context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Apps == nil {
		return Response{}, errUnavailable
	}
	msg, err := d.deps.Apps.Open(ctx, in.Get("target"))
	if err != nil {
		return Response{}, err
	}
	return Response{Text: msg}, nil
}

func (d *Dispatcher) close(ctx context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Apps == nil {
		return Response{}, errUnavailable
	}
	msg, err := d.deps.Apps.Close(ctx, in.Get("target"))
	if err != nil {
		return Response{}, err
	}
	return Response{Text: msg}, nil
}

// power never runs the action; it only queues it for confirmation.
func (d *Dispatcher) power(_ context.Context, in Intent, s *session.Session) (Response, error) {
	action := in.Get("action")
	s.Queue(session.Pending{Action: action})
	return Response{Text: fmt.Sprintf("%s queued. Say: '%s, %s' to proceed.", capitalize(action), d.deps.Name, ConfirmPhrase(action))}, nil
}

func (d *Dispatcher) device(ctx context.Context, in Intent, _ *session.Session) (Response, error) {
	if d.deps.Devices == nil {
		return Response{}, errUnavailable
	}
	answer, err := d.deps.Devices.Control(ctx, in.Get("device"), in.Get("action"), in.Get("value"))
	if err != nil {
		return Response{}, fmt.Errorf("device %s: %w", in.Get("device"), err)
	}
	return Response{Text: fmt.Sprintf("Done. %s reports: %s", in.Get("device"), answer)}, nil
}

func (d *Dispatcher) search(ctx context.Context, in Intent, s *session.Session) (Response, error) {
	if d.deps.Search == nil {
		// Auto-search utterances still deserve an answer.
		if !in.Bool("manual") && d.deps.Brain != nil {
			return d.chat(ctx, in, s)
		}
		return Response{}, errUnavailable
	}

	q := in.Get("query")
	if q == "" {
		q = in.Query
	}
	steps := []string{"Searching the network for you..."}

	results, err := d.deps.Search.Search(ctx, q)
	if err != nil {
		return Response{Steps: steps}, fmt.Errorf("search %q: %w", q, err)
	}
	snippets := Snippets(results)

	if d.deps.Brain == nil {
		return Response{Text: snippets, Steps: steps, Source: SourceSearch}, nil
	}

	reply, err := d.deps.Brain.Generate(ctx, llm.ChatPrompt(s, d.deps.Name, in.Query, snippets, ""))
	if err != nil {
		return Response{Steps: steps}, fmt.Errorf("generate: %w", err)
	}
	d.learn(ctx, s, in.Query, reply)
	return Response{Text: reply, Steps: steps, Source: SourceSearch}, nil
}

// Snippets renders search results the way the generator receives them.
func Snippets(results []search.Result) string {
	if len(results) == 0 {
		return "No search results found."
	}
	lines := make([]string, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "untitled"
		}
		snippet := strings.ReplaceAll(r.Content, "\n", " ")
		snippet = truncate(snippet, snippetLen)
		lines[i] = fmt.Sprintf("- %s: %s (%s)", title, snippet, r.URL)
	}
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) errorIntent(_ context.Context, in Intent, _ *session.Session) (Response, error) {
	return Response{Text: in.Get("message")}, nil
}

func (d *Dispatcher) chat(ctx context.Context, in Intent, s *session.Session) (Response, error) {
	var fallback string
	if d.deps.Offline != nil {
		ans, err := d.deps.Offline.Respond(ctx, d.user(s), in.Query)
		switch {
		case err != nil:
			log.Warn("offline knowledge", "err", err)
		case ans.Confidence > offlineThreshold && !ans.NeedsOnline:
			d.logExchange(ctx, s, in.Query, ans.Text)
			return Response{Text: ans.Text, Source: SourceOffline}, nil
		default:
			fallback = ans.Text
		}
	}

	if d.deps.Brain == nil {
		if fallback != "" {
			d.logExchange(ctx, s, in.Query, fallback)
			return Response{Text: fallback, Source: SourceOffline}, nil
		}
		return Response{}, errUnavailable
	}

	var knowledge string
	if d.deps.Knowledge != nil {
		k, err := d.deps.Knowledge.Context(ctx, in.Query)
		if err != nil {
			log.Warn("knowledge context", "err", err)
		}
		knowledge = k
	}

	reply, err := d.deps.Brain.Generate(ctx, llm.ChatPrompt(s, d.deps.Name, in.Query, "", knowledge))
	if err != nil {
		return Response{}, fmt.Errorf("generate: %w", err)
	}
	d.learn(ctx, s, in.Query, reply)
	return Response{Text: reply, Source: SourceGenerative}, nil
}

func (d *Dispatcher) learn(ctx context.Context, s *session.Session, query, reply string) {
	if d.deps.Offline == nil {
		return
	}
	if err := d.deps.Offline.Learn(ctx, d.user(s), query, reply); err != nil {
		log.Warn("learn exchange", "err", err)
	}
}

// logExchange keeps offline answers in the conversation log too.
func (d *Dispatcher) logExchange(ctx context.Context, s *session.Session, query, reply string) {
	if err := d.deps.Offline.LogConversation(ctx, d.user(s), query, reply); err != nil {
		log.Warn("log exchange", "err", err)
	}
}

func (d *Dispatcher) user(s *session.Session) string {
	if s.UserName != "" {
		return s.UserName
	}
	return d.deps.User
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
