package bus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	replies := make(chan Message, 2)
	hold := make(chan struct{})

	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(Message{From: "panel", To: "other", Kind: KindUtterance, Content: "ignored"})
		conn.WriteMessage(websocket.TextMessage, []byte("{broken"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"to":5}`))
		conn.WriteJSON(Message{From: "panel", To: "zendaya", Kind: KindUtterance, Content: "hello"})
		conn.WriteJSON(Message{From: "panel", To: "zendaya", Kind: KindUtterance, Content: "fail"})

		for i := 0; i < 2; i++ {
			var m Message
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			replies <- m
		}
		<-hold
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), "zendaya")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- b.Serve(ctx, func(_ context.Context, m *Message) (*Message, error) {
			if m.Content == "fail" {
				return nil, errors.New("boom")
			}
			return &Message{Content: "hi " + m.From}, nil
		})
	}()

	first := <-replies
	assert.Equal(t, Message{From: "zendaya", To: "panel", Kind: KindReply, Content: "hi panel"}, first)

	second := <-replies
	assert.Equal(t, KindError, second.Kind)
	assert.Equal(t, "boom", second.Content)

	cancel()
	assert.NoError(t, <-done)
	close(hold)
}

func TestReadMarksBadMessages(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("{broken"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"to":5}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"audio":"not base64!"}`))
		conn.ReadMessage()
	}))
	defer srv.Close()

	b, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), "zendaya")
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 3; i++ {
		_, err := b.Read()
		assert.ErrorIs(t, err, ErrBadMessage)
	}
}
