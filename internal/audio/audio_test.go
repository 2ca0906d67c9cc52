package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #12
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #13
	Volume: front-left: 39322 /  60% / -13.31 dB,   front-right: 39322 /  60% / -13.31 dB
	Properties:
		application.name = "zendaya"
Sink Input #bogus
	Volume: 10%
`

type fakePactl struct {
	mu   sync.Mutex
	list string
	set  map[string]string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch args[0] {
	case "list":
		return []byte(f.list), nil
	case "set-sink-input-volume":
		f.set[args[1]] = args[2]
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected %v", args)
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)

	require.Len(t, got, 2)
	assert.Equal(t, sinkInput{ID: 12, Volume: 100, AppName: "Firefox"}, got[0])
	assert.Equal(t, sinkInput{ID: 13, Volume: 60, AppName: "zendaya"}, got[1])
	assert.Nil(t, parseSinkInputs("nothing here"))
}

func TestDuckSkipsSelfAndRestores(t *testing.T) {
	f := &fakePactl{list: sinkInputs, set: map[string]string{}}
	d := NewDucker([]string{"zendaya"}, 20).WithPactl(f.run)

	require.NoError(t, d.Duck(context.Background(), 0.1, 0))
	assert.True(t, d.Active())
	assert.Equal(t, map[string]string{"12": "20%"}, f.set)

	// Duck is idempotent while active.
	require.NoError(t, d.Duck(context.Background(), 0.1, 0))

	f.list = strings.Replace(sinkInputs, "100%", "20%", 1)
	require.NoError(t, d.Restore(context.Background(), 20*time.Millisecond))
	assert.False(t, d.Active())
	assert.Equal(t, "100%", f.set["12"])
	assert.NotContains(t, f.set, "13")
}

func TestDuckCancelled(t *testing.T) {
	f := &fakePactl{list: sinkInputs, set: map[string]string{}}
	d := NewDucker(nil, 0).WithPactl(f.run)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Duck(ctx, 0.5, time.Second), context.Canceled)
	assert.False(t, d.Active())
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, clampVolume(-5))
	assert.Equal(t, 150, clampVolume(400))
	assert.Equal(t, 42, clampVolume(42))
}

func TestSilenceGate(t *testing.T) {
	cfg := DefaultRecorderConfig()
	cfg.Silence = 40 * time.Millisecond
	g := newSilenceGate(cfg, 320) // 20ms frames, two quiet frames end it

	loud := make([]float32, 320)
	for i := range loud {
		loud[i] = 0.5
	}
	quiet := make([]float32, 320)

	keep, done := g.push(quiet)
	assert.False(t, keep)
	assert.False(t, done)

	keep, done = g.push(loud)
	assert.True(t, keep)
	assert.False(t, done)

	keep, done = g.push(quiet)
	assert.True(t, keep)
	assert.False(t, done)

	_, done = g.push(quiet)
	assert.True(t, done)
}

func TestNewRecorderDefaults(t *testing.T) {
	r := NewRecorder(RecorderConfig{MaxAuto: 3 * time.Second})
	assert.Equal(t, 3*time.Second, r.cfg.MaxAuto)
	assert.Equal(t, DefaultRecorderConfig().MaxManual, r.cfg.MaxManual)
	assert.Zero(t, frameRMS(nil))
}
