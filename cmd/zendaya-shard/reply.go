package main

import (
	"context"
	log "log/slog"
	"os"

	"zendaya/internal/assistant"
	"zendaya/internal/bus"
)

type turnHandler interface {
	Handle(ctx context.Context, t assistant.Turn) (assistant.Reply, error)
}

// replier answers an utterance with the reply text and, when a clip was
// rendered, its mp3 bytes.
func replier(a turnHandler) bus.Handler {
	return func(ctx context.Context, m *bus.Message) (*bus.Message, error) {
		reply, err := a.Handle(ctx, assistant.Turn{Text: m.Content})
		if err != nil {
			return nil, err
		}

		out := &bus.Message{Kind: bus.KindReply, Content: reply.Text}
		if reply.Audio != "" {
			clip, err := os.ReadFile(reply.Audio)
			if err != nil {
				log.Warn("reply clip unreadable", "clip", reply.Audio, "err", err)
			} else {
				out.Audio = clip
			}
		}
		return out, nil
	}
}
