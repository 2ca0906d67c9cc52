package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendaya/internal/knowledge"
	"zendaya/internal/llm"
	"zendaya/internal/nlu"
	"zendaya/internal/session"
	"zendaya/internal/tts"
	"zendaya/internal/understand"
)

type memStore struct {
	s     *session.Session
	saves int
}

func (m *memStore) Load() *session.Session {
	if m.s == nil {
		m.s = session.New()
	}
	return m.s
}

func (m *memStore) Save(s *session.Session) error {
	m.s = s
	m.saves++
	return nil
}

type fakeApps struct{ opened []string }

func (f *fakeApps) Open(_ context.Context, target string) (string, error) {
	f.opened = append(f.opened, target)
	return "Opening " + target + ".", nil
}

func (f *fakeApps) Close(context.Context, string) (string, error) { return "", nil }

type fakeOffline struct{}

func (fakeOffline) Respond(context.Context, string, string) (knowledge.Answer, error) {
	return knowledge.Answer{Text: "Hello! I'm doing great.", Confidence: 1}, nil
}

func (fakeOffline) Learn(context.Context, string, string, string) error { return nil }

func (fakeOffline) LogConversation(context.Context, string, string, string) error { return nil }

type fakeBrain struct{ prompts []llm.Prompt }

func (f *fakeBrain) Generate(_ context.Context, p llm.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)
	return " - likes greetings ", nil
}

type fakeVoice struct {
	voices   []string
	emotions []tts.Emotion
	err      error
}

func (f *fakeVoice) Render(_ context.Context, _, voice string, e tts.Emotion) (string, error) {
	f.voices = append(f.voices, voice)
	f.emotions = append(f.emotions, e)
	if f.err != nil {
		return "", f.err
	}
	return "/tmp/clip.mp3", nil
}

func TestHandleEmpty(t *testing.T) {
	a := New(Config{Store: &memStore{}})
	_, err := a.Handle(context.Background(), Turn{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyUtterance)
}

func TestHandleCommand(t *testing.T) {
	store := &memStore{}
	apps := &fakeApps{}
	a := New(Config{Store: store, Deps: nlu.Deps{Apps: apps}})

	r, err := a.Handle(context.Background(), Turn{Text: "open chrome"})
	require.NoError(t, err)

	assert.Equal(t, Reply{
		Text:    "Opening chrome.",
		Emotion: tts.Confident,
		Intent:  nlu.KindOpen,
		Source:  nlu.SourceLocal,
	}, r)
	assert.Equal(t, []string{"chrome"}, apps.opened)
	assert.Equal(t, []string{"open chrome"}, store.s.CommandHistory)
	require.Len(t, store.s.Convo, 2)
	assert.Equal(t, "Opening chrome.", store.s.Convo[1].Text)
	assert.Equal(t, 1, store.saves)
}

func TestHandleAsksForClarification(t *testing.T) {
	apps := &fakeApps{}
	a := New(Config{Store: &memStore{}, Deps: nlu.Deps{Apps: apps}})

	r, err := a.Handle(context.Background(), Turn{
		Text: "turn on the lights",
		Transcription: &understand.Transcription{
			Confidence: 0.8,
			Words: []understand.Word{
				{Text: "turn", Confidence: 0.95},
				{Text: "on", Confidence: 0.4},
				{Text: "the", Confidence: 0.3},
				{Text: "lights", Confidence: 0.5},
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, r.NeedsClarification)
	assert.Equal(t, tts.Concerned, r.Emotion)
	assert.Contains(t, r.Text, "trouble hearing you")
	assert.Empty(t, r.Intent)
}

func TestSpokenInputUsesTopCorrection(t *testing.T) {
	apps := &fakeApps{}
	a := New(Config{Store: &memStore{}, Deps: nlu.Deps{Apps: apps}})

	tr := &understand.Transcription{Confidence: 0.95, Words: []understand.Word{
		{Text: "upon", Confidence: 0.9}, {Text: "chrome", Confidence: 0.9},
	}}
	r, err := a.Handle(context.Background(), Turn{Text: "upon chrome", Transcription: tr})
	require.NoError(t, err)

	assert.Equal(t, nlu.KindOpen, r.Intent)
	assert.Equal(t, []string{"chrome"}, apps.opened)

	// Typed text is taken as written.
	r, err = a.Handle(context.Background(), Turn{Text: "upon chrome"})
	require.NoError(t, err)
	assert.Equal(t, nlu.KindChat, r.Intent)
}

func TestMemoryIsSummarized(t *testing.T) {
	store := &memStore{}
	brain := &fakeBrain{}
	a := New(Config{Store: store, Deps: nlu.Deps{Offline: fakeOffline{}, Brain: brain}})

	for range session.SummarizeAt / 2 {
		r, err := a.Handle(context.Background(), Turn{Text: "hello"})
		require.NoError(t, err)
		assert.Equal(t, nlu.SourceOffline, r.Source)
	}

	require.Len(t, brain.prompts, 1)
	assert.Contains(t, brain.prompts[0].User, "user: hello")
	assert.Equal(t, []string{"- likes greetings"}, store.s.Summaries)
	assert.Len(t, store.s.Convo, session.SummarizeAt-session.SummarizeBatch)
}

func TestVoiceFollowsMode(t *testing.T) {
	store := &memStore{}
	voice := &fakeVoice{}
	a := New(Config{Store: store, Voice: voice, Deps: nlu.Deps{Offline: fakeOffline{}}})

	r, err := a.Handle(context.Background(), Turn{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/clip.mp3", r.Audio)
	assert.Equal(t, []string{session.DefaultVoiceID}, voice.voices)

	r, err = a.Handle(context.Background(), Turn{Text: "text only"})
	require.NoError(t, err)
	assert.Empty(t, r.Audio)
	assert.Len(t, voice.voices, 1)
	assert.Equal(t, session.ModeText, a.Mode())

	voice.err = tts.ErrNoVoice
	store.s.Mode = session.ModeBoth
	r, err = a.Handle(context.Background(), Turn{Text: "hello"})
	require.NoError(t, err)
	assert.Empty(t, r.Audio)
	assert.Equal(t, "Hello! I'm doing great.", r.Text)
}

func TestGreeting(t *testing.T) {
	store := &memStore{}
	a := New(Config{Store: store})
	assert.Equal(t, "Welcome back. My systems are online and ready.", a.Greeting())

	store.s.UserName = "Sam"
	assert.Equal(t, "Welcome back, Sam. My systems are online and ready.", a.Greeting())
}

func TestIsExit(t *testing.T) {
	for _, text := range []string{"exit", "Bye", " goodby ", "quit", "farewel"} {
		assert.True(t, IsExit(text), text)
	}
	for _, text := range []string{"open chrome", "exit professional mode", "hello", ""} {
		assert.False(t, IsExit(text), text)
	}
}

func TestEmotion(t *testing.T) {
	tests := []struct {
		input, reply string
		want         tts.Emotion
	}{
		{"I have a problem with wifi", "Sorry about that", tts.Helpful},
		{"that was awesome", "Thanks", tts.Excited},
		{"open slack", "Sorry, I couldn't open slack.", tts.Concerned},
		{"open slack", "Opening slack.", tts.Confident},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Emotion(tc.input, tc.reply), tc.input)
	}
}
