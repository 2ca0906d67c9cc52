package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	msg, err := Parse("VERTEX:on:lamp:50:ZENDAYA")
	require.NoError(t, err)
	assert.Equal(t, &Message{To: "VERTEX", Verb: "ON", Noun: "LAMP", Args: []string{"50"}, From: "ZENDAYA"}, msg)
	assert.Equal(t, "VERTEX:ON:LAMP:50:ZENDAYA", msg.String())

	for _, bad := range []string{"", "A:B:C", "A:B C:D:E", "A:B:C:D$", "A!:B:C:D"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestMessageStatus(t *testing.T) {
	m := &Message{To: "A", From: "B"}
	m.Error("NODEV", "lamp")
	assert.True(t, m.IsError())
	assert.Equal(t, "A:ERR:NODEV:lamp:B", m.String())

	m.Ok("LAMP")
	assert.False(t, m.IsError())
}

// echoBus answers every frame "TO:VERB:NOUN...:FROM" with "FROM:OK:NOUN:TO".
func echoBus(t *testing.T, answer bool) *httptest.Server {
	up := ws.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if !answer {
				continue
			}
			parts := strings.Split(string(data), ":")
			reply := strings.Join([]string{parts[len(parts)-1], "OK", parts[2], parts[0]}, ":")
			if err := conn.WriteMessage(ws.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}))
}

func dial(t *testing.T, srv *httptest.Server) *Protocol {
	t.Helper()
	ptcl, err := NewProtocol(Config{
		Shard:   "ZENDAYA",
		Url:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ptcl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ptcl
}

func TestTransmitReceive(t *testing.T) {
	srv := echoBus(t, true)
	defer srv.Close()
	ptcl := dial(t, srv)

	msg, err := ptcl.TransmitReceive(context.Background(), []string{"VERTEX", "ON", "LAMP"})
	require.NoError(t, err)
	assert.Equal(t, "OK", msg.Verb)
	assert.Equal(t, "LAMP", msg.Noun)
	assert.Equal(t, "VERTEX", msg.From)
}

func TestReceiveTimeout(t *testing.T) {
	srv := echoBus(t, false)
	defer srv.Close()
	ptcl := dial(t, srv)

	_, err := ptcl.TransmitReceive(context.Background(), "VERTEX:ON:LAMP")
	assert.ErrorIs(t, err, ErrTimeout)
}
