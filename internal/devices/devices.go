// Package devices forwards smart-home commands to device shards on the bus.
package devices

import (
	"context"
	"fmt"
	"strings"

	"zendaya/pkg/protocol"
)

// Transceiver sends one frame and returns the addressed reply.
type Transceiver interface {
	TransmitReceive(ctx context.Context, v any) (*protocol.Message, error)
}

// Controller maps device ids of the form "SHARD/NOUN" to bus frames.
type Controller struct {
	bus Transceiver
}

func NewController(bus Transceiver) *Controller {
	return &Controller{bus: bus}
}

// Frame builds the bus payload (without sender) for a device command.
func Frame(device, action, value string) ([]string, error) {
	shard, noun, ok := strings.Cut(device, "/")
	if !ok || shard == "" || noun == "" {
		return nil, fmt.Errorf("device id %q is not SHARD/NOUN", device)
	}

	frame := []string{strings.ToUpper(shard)}
	switch action {
	case "on", "off":
		frame = append(frame, strings.ToUpper(action), strings.ToUpper(noun))
	case "set":
		if value == "" {
			return nil, fmt.Errorf("set %s: missing value", device)
		}
		frame = append(frame, "SET", strings.ToUpper(noun), value)
	default:
		return nil, fmt.Errorf("unknown device action %q", action)
	}
	return frame, nil
}

func (c *Controller) Control(ctx context.Context, device, action, value string) (string, error) {
	frame, err := Frame(device, action, value)
	if err != nil {
		return "", err
	}

	msg, err := c.bus.TransmitReceive(ctx, frame)
	if err != nil {
		return "", fmt.Errorf("%s: %w", device, err)
	}
	if msg.IsError() {
		return "", fmt.Errorf("%s refused: %s %s", msg.From, msg.Noun, strings.Join(msg.Args, " "))
	}

	answer := strings.ToLower(strings.Join(append([]string{msg.Verb, msg.Noun}, msg.Args...), " "))
	return answer, nil
}
