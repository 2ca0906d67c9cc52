package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingReturnsDefaults(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "memory.json"))

	s := st.Load()
	assert.Equal(t, ModeBoth, s.Mode)
	assert.Equal(t, DefaultVoiceID, s.VoiceID)
	assert.Nil(t, s.Pending)
	assert.NotNil(t, s.Routines)
}

func TestStoreRoundTrip(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "nested", "memory.json"))

	s := New()
	s.Mode = ModeText
	s.UserName = "Larry"
	s.ProfessionalMode = true
	s.Queue(Pending{Action: "shutdown"})
	s.Remember(RoleUser, "hello")
	require.NoError(t, st.Save(s))

	got := st.Load()
	assert.Equal(t, ModeText, got.Mode)
	assert.Equal(t, "Larry", got.UserName)
	assert.True(t, got.ProfessionalMode)
	require.NotNil(t, got.Pending)
	assert.Equal(t, "shutdown", got.Pending.Action)
	require.Len(t, got.Convo, 1)
	assert.Equal(t, "hello", got.Convo[0].Text)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewStore(path).Load()
	assert.Equal(t, ModeBoth, s.Mode)
}

func TestStoreUnknownModeNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mode":"loud","current_voice_id":""}`), 0o600))

	s := NewStore(path).Load()
	assert.Equal(t, ModeBoth, s.Mode)
	assert.Equal(t, DefaultVoiceID, s.VoiceID)
}

func TestRememberKeepsWindow(t *testing.T) {
	s := New()
	for i := 0; i < Window+5; i++ {
		s.Remember(RoleUser, "msg")
	}
	assert.Len(t, s.Convo, Window)
}

func TestLastReplySkipsUserMessages(t *testing.T) {
	s := New()
	_, ok := s.LastReply()
	assert.False(t, ok)

	s.Remember(RoleAssistant, "answer")
	s.Remember(RoleUser, "copy this to clipboard")

	got, ok := s.LastReply()
	require.True(t, ok)
	assert.Equal(t, "answer", got)
}

func TestFold(t *testing.T) {
	s := New()
	for i := 0; i < SummarizeAt; i++ {
		s.Remember(RoleUser, "msg")
	}
	require.True(t, s.NeedsSummary())

	s.Fold("- likes tea")
	assert.Len(t, s.Convo, SummarizeAt-SummarizeBatch)
	assert.Equal(t, []string{"- likes tea"}, s.Summaries)
	assert.False(t, s.NeedsSummary())
}

func TestTakePending(t *testing.T) {
	s := New()
	s.Queue(Pending{Action: "delete", Path: "/tmp/x"})

	p := s.TakePending()
	require.NotNil(t, p)
	assert.Equal(t, "/tmp/x", p.Path)
	assert.Nil(t, s.Pending)
	assert.Nil(t, s.TakePending())
}
