package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	s := Settings(Excited)
	assert.Equal(t, 0.4, s.Stability)
	assert.Equal(t, 0.6, s.Style)
	assert.True(t, s.SpeakerBoost)

	assert.Equal(t, Settings(Confident), Settings("grumpy"))
}

func TestElevenLabsSynthesize(t *testing.T) {
	var got synthRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake"))
	}))
	defer srv.Close()

	el := NewElevenLabs("secret", srv.Client()).WithEndpoint(srv.URL + "/v1/text-to-speech")
	audio, err := el.Synthesize(context.Background(), "hello", "voice-1", Calm)

	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake"), audio)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "eleven_multilingual_v2", got.ModelID)
	assert.Equal(t, 0.8, got.Settings.Stability)
}

func TestElevenLabsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, DefaultVoice)
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewElevenLabs("k", nil).WithEndpoint(srv.URL).Synthesize(context.Background(), "hi", "", Helpful)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (f fakeSynth) Synthesize(context.Context, string, string, Emotion) ([]byte, error) {
	return f.audio, f.err
}

type fakePlayer struct {
	played []string
	err    error
}

func (f *fakePlayer) PlayFile(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return f.err
}

type fakeFallback struct{ spoken []string }

func (f *fakeFallback) Speak(text string) error {
	f.spoken = append(f.spoken, text)
	return nil
}

func TestSpeakerRenderAndPlay(t *testing.T) {
	dir := t.TempDir()
	p := &fakePlayer{}
	fb := &fakeFallback{}
	s := NewSpeaker(fakeSynth{audio: []byte("mp3")}, p, fb, dir)

	clip, err := s.Render(context.Background(), "hi", "", Confident)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(clip))
	data, err := os.ReadFile(clip)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), data)

	require.NoError(t, s.Play(context.Background(), clip, "hi"))
	assert.Equal(t, []string{clip}, p.played)
	assert.Empty(t, fb.spoken)
}

func TestSpeakerFallsBack(t *testing.T) {
	fb := &fakeFallback{}
	s := NewSpeaker(fakeSynth{err: errors.New("offline")}, &fakePlayer{}, fb, t.TempDir())

	require.NoError(t, s.Say(context.Background(), "hello there", "", Calm))
	assert.Equal(t, []string{"hello there"}, fb.spoken)
}

func TestSpeakerPlaybackFailureFallsBack(t *testing.T) {
	fb := &fakeFallback{}
	s := NewSpeaker(nil, &fakePlayer{err: errors.New("no device")}, fb, t.TempDir())

	require.NoError(t, s.Play(context.Background(), "/tmp/clip.mp3", "text"))
	assert.Equal(t, []string{"text"}, fb.spoken)
}

func TestSpeakerWithoutVoices(t *testing.T) {
	s := NewSpeaker(nil, nil, nil, t.TempDir())

	_, err := s.Render(context.Background(), "x", "", Calm)
	assert.ErrorIs(t, err, ErrNoVoice)
	assert.ErrorIs(t, s.Play(context.Background(), "", "x"), ErrNoVoice)
}
