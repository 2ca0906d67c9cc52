package devices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendaya/pkg/protocol"
)

type fakeBus struct {
	sent  []string
	reply *protocol.Message
}

func (f *fakeBus) TransmitReceive(_ context.Context, v any) (*protocol.Message, error) {
	f.sent = v.([]string)
	return f.reply, nil
}

func TestFrame(t *testing.T) {
	f, err := Frame("vertex/lamp", "on", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"VERTEX", "ON", "LAMP"}, f)

	f, err = Frame("VERTEX/DIMMER", "set", "40")
	require.NoError(t, err)
	assert.Equal(t, []string{"VERTEX", "SET", "DIMMER", "40"}, f)

	_, err = Frame("lamp", "on", "")
	assert.Error(t, err)
	_, err = Frame("a/b", "set", "")
	assert.Error(t, err)
	_, err = Frame("a/b", "blink", "")
	assert.Error(t, err)
}

func TestControl(t *testing.T) {
	bus := &fakeBus{reply: &protocol.Message{To: "ZENDAYA", Verb: "OK", Noun: "LAMP", From: "VERTEX"}}
	c := NewController(bus)

	got, err := c.Control(context.Background(), "VERTEX/LAMP", "off", "")
	require.NoError(t, err)
	assert.Equal(t, "ok lamp", got)
	assert.Equal(t, []string{"VERTEX", "OFF", "LAMP"}, bus.sent)

	bus.reply = &protocol.Message{Verb: "ERR", Noun: "BUSY", From: "VERTEX"}
	_, err = c.Control(context.Background(), "VERTEX/LAMP", "on", "")
	assert.ErrorContains(t, err, "VERTEX refused: BUSY")
}
