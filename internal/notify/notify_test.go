package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []call
	err   error
}

func (f *fakeRunner) Start(name string, args ...string) error { return nil }

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name, args})
	return f.err
}

func (f *fakeRunner) LookPath(name string) (string, error) { return name, nil }

type fakeCue struct{ played []string }

func (f *fakeCue) PlayFile(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return nil
}

func TestNotify(t *testing.T) {
	r := &fakeRunner{}
	n := New(r, nil, "")

	require.NoError(t, n.Notify("Zendaya", "Tea is ready"))
	require.Len(t, r.calls, 1)
	assert.Equal(t, "notify-send", r.calls[0].name)
	assert.Equal(t, []string{"-a", "zendaya", "Zendaya", "Tea is ready"}, r.calls[0].args)
}

func TestNotifyError(t *testing.T) {
	n := New(&fakeRunner{err: errors.New("no dbus")}, nil, "")
	assert.ErrorContains(t, n.Notify("a", "b"), "no dbus")
}

func TestListeningBeepsEvenIfNotifyFails(t *testing.T) {
	cue := &fakeCue{}
	n := New(&fakeRunner{err: errors.New("no dbus")}, cue, "beep.mp3")

	n.Listening(context.Background())
	assert.Equal(t, []string{"beep.mp3"}, cue.played)
}

func TestBeepWithoutCue(t *testing.T) {
	n := New(&fakeRunner{}, nil, "beep.mp3")
	assert.NotPanics(t, func() { n.Beep(context.Background()) })
}
