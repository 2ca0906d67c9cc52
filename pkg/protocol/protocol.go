// Package protocol speaks the shard bus text protocol:
//
//	TO:VERB:NOUN[:ARG...]:FROM
//
// Frames are single-line and colon separated. A shard only handles frames
// addressed to its own name.
package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

var ErrTimeout = errors.New("protocol: no reply before deadline")

type Config struct {
	Shard string
	Url   string
	// Reconn is the pause between reconnect attempts.
	Reconn time.Duration
	// Timeout bounds Receive when the caller's context has no deadline.
	Timeout time.Duration
	EmitOut func(*Message)
}

type Protocol struct {
	ws *WebSocket

	shard   string
	timeout time.Duration

	waiterMu sync.Mutex
	waiter   chan *Message

	emitOut func(*Message)
}

func NewProtocol(cfg Config) (*Protocol, error) {
	ws, err := NewWebSocket(cfg.Url, cfg.Reconn)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Protocol{
		shard:   cfg.Shard,
		ws:      ws,
		timeout: cfg.Timeout,
		emitOut: cfg.EmitOut,
	}, nil
}

func (ptcl *Protocol) Shard() string { return ptcl.shard }

func (ptcl *Protocol) EmitOut(f func(*Message)) {
	ptcl.emitOut = f
}

func (ptcl *Protocol) Close() error {
	return ptcl.ws.Close()
}

// TransmitReceive sends v and waits for the next frame addressed to this
// shard.
func (ptcl *Protocol) TransmitReceive(ctx context.Context, v any) (*Message, error) {
	w := ptcl.installWaiter()
	defer ptcl.clearWaiter()

	if err := ptcl.Transmit(v); err != nil {
		return nil, err
	}
	return ptcl.wait(ctx, w)
}

func (ptcl *Protocol) Transmit(v any) error {
	var msg string

	switch m := v.(type) {
	case Message:
		m.From = ptcl.shard
		msg = m.String()
	case *Message:
		m.From = ptcl.shard
		msg = m.String()
	case string:
		msg = fmt.Sprintf("%s:%s", m, ptcl.shard)
	case []string:
		msg = fmt.Sprintf("%s:%s", strings.Join(m, ":"), ptcl.shard)
	default:
		return fmt.Errorf("unsupported frame type %T", v)
	}

	if err := ptcl.ws.Write([]byte(msg)); err != nil {
		log.Error("Failed to transmit", "msg", msg, "err", err)
		return err
	}
	return nil
}

// Receive waits for the next frame addressed to this shard.
func (ptcl *Protocol) Receive(ctx context.Context) (*Message, error) {
	w := ptcl.installWaiter()
	defer ptcl.clearWaiter()
	return ptcl.wait(ctx, w)
}

func (ptcl *Protocol) wait(ctx context.Context, w chan *Message) (*Message, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ptcl.timeout)
		defer cancel()
	}

	select {
	case msg := <-w:
		return msg, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Run reads frames until ctx is done, reconnecting when the bus drops.
func (ptcl *Protocol) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		ptcl.ws.Close()
	}()

	for ctx.Err() == nil {
		in := ptcl.ws.Read()
		switch in.kind {
		case CONN_CLOSE:
			if ctx.Err() != nil {
				return
			}
			log.Warn("Trying to reconnect on", "url", ptcl.ws.url)
			if err := ptcl.ws.TryReconn(ctx); err != nil {
				return
			}
			log.Info("Successfully reconnected")

		case READ_FAILURE:
			if ctx.Err() != nil {
				return
			}
			log.Error("Failed to read", "err", in.err)
			if err := ptcl.ws.TryReconn(ctx); err != nil {
				return
			}

		case READ_OK:
			if !ptcl.checkRecipient(in.msg) {
				continue
			}

			msg, err := Parse(string(in.msg))
			if err != nil {
				log.Warn("Failed to parse", "msg", string(in.msg), "err", err)
				continue
			}

			ptcl.deliver(msg)
		}
	}
}

func (ptcl *Protocol) deliver(msg *Message) {
	ptcl.waiterMu.Lock()
	w := ptcl.waiter
	if w != nil {
		select {
		case w <- msg:
			ptcl.waiterMu.Unlock()
			return
		default:
		}
	}
	ptcl.waiterMu.Unlock()

	if ptcl.emitOut != nil {
		ptcl.emitOut(msg)
	}
}

func (ptcl *Protocol) installWaiter() chan *Message {
	ptcl.waiterMu.Lock()
	defer ptcl.waiterMu.Unlock()
	ptcl.waiter = make(chan *Message, 1)
	return ptcl.waiter
}

func (ptcl *Protocol) clearWaiter() {
	ptcl.waiterMu.Lock()
	defer ptcl.waiterMu.Unlock()
	ptcl.waiter = nil
}

func (ptcl *Protocol) checkRecipient(msg []byte) bool {
	to, _, _ := strings.Cut(string(msg), ":")
	return to == ptcl.shard || to == "ALL"
}

// Parse validates and splits one frame.
func Parse(line string) (*Message, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil, errors.New("empty message")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return nil, fmt.Errorf("invalid whitespace present")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return nil, fmt.Errorf("too few fields: got %d, want >= 4", len(parts))
	}

	to := parts[0]
	verb := parts[1]
	noun := parts[2]
	from := parts[len(parts)-1]
	args := append([]string(nil), parts[3:len(parts)-1]...)

	if !isToken(to) && !isHexID(to) && to != "ALL" {
		return nil, fmt.Errorf("invalid TO token: %q", to)
	}
	if !isToken(from) && !isHexID(from) {
		return nil, fmt.Errorf("invalid FROM token: %q", from)
	}
	if !isToken(noun) || !isToken(verb) {
		return nil, fmt.Errorf("invalid NOUN/VERB: %q %q", noun, verb)
	}
	for i, a := range args {
		if !isToken(a) {
			return nil, fmt.Errorf("invalid ARG[%d]: %q", i, a)
		}
	}

	return &Message{
		To:   to,
		Verb: strings.ToUpper(verb),
		Noun: strings.ToUpper(noun),
		Args: args,
		From: from,
	}, nil
}

var (
	tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	hexIDRe = regexp.MustCompile(`^[0-9A-F]{2}$`)
)

func isToken(s string) bool {
	return tokenRe.MatchString(s)
}

func isHexID(s string) bool {
	return hexIDRe.MatchString(strings.ToUpper(s))
}

type Message struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

func (m *Message) String() string {
	parts := make([]string, 0, 4+len(m.Args))
	parts = append(parts, m.To, m.Verb, m.Noun)
	parts = append(parts, m.Args...)
	parts = append(parts, m.From)
	return strings.Join(parts, ":")
}

func (m *Message) IsError() bool { return m.Verb == "ERR" }

func (m *Message) Error(reason string, args ...string) {
	m.Verb = "ERR"
	m.Noun = reason
	m.Args = args
}

func (m *Message) Ok(reason string, args ...string) {
	m.Verb = "OK"
	m.Noun = reason
	m.Args = args
}
