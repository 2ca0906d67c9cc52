// Package bus connects the assistant to the shard bus as a JSON speaking
// peer: other shards send utterances and receive replies.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	KindUtterance = "utterance"
	KindReply     = "reply"
	KindError     = "error"
)

// ErrBadMessage marks a frame that is not a valid bus message.
var ErrBadMessage = errors.New("bad bus message")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

type Bus struct {
	name string
	mu   sync.Mutex
	conn *websocket.Conn
}

func Dial(ctx context.Context, wsURL, name string) (*Bus, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	log.Info("Connected to bus", "url", wsURL, "as", name)
	return &Bus{name: name, conn: conn}, nil
}

func (b *Bus) Close() error {
	return b.conn.Close()
}

func (b *Bus) Read() (*Message, error) {
	_, data, err := b.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMessage, err)
	}
	return &m, nil
}

func (b *Bus) Write(m *Message) error {
	if m.From == "" {
		m.From = b.name
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// Handler answers one utterance.
type Handler func(ctx context.Context, m *Message) (*Message, error)

// Serve answers utterances addressed to this shard until ctx is done or
// the connection fails.
func (b *Bus) Serve(ctx context.Context, h Handler) error {
	go func() {
		<-ctx.Done()
		b.conn.Close()
	}()

	for {
		m, err := b.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrBadMessage) {
				log.Warn("bus message dropped", "err", err)
				continue
			}
			return err
		}
		if m.To != b.name || m.Kind != KindUtterance {
			continue
		}

		reply, err := h(ctx, m)
		if err != nil {
			log.Error("bus handler failed", "from", m.From, "err", err)
			reply = &Message{Kind: KindError, Content: err.Error()}
		}
		reply.To = m.From
		reply.From = b.name
		if reply.Kind == "" {
			reply.Kind = KindReply
		}

		if err := b.Write(reply); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
	}
}
