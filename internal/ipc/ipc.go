// Package ipc is the daemon's local control channel: one JSON request and
// one JSON response per unix socket connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const SocketPath = "/tmp/zendaya.sock"

type Request struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func Fail(err error) Response {
	return Response{Error: err.Error()}
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
}

// Listen replaces any stale socket at path and starts listening.
func Listen(path string) (*Server, error) {
	if path == "" {
		path = SocketPath
	}
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{ln: ln, path: path}, nil
}

// Serve accepts connections until ctx is done, then waits for in-flight
// requests to finish.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	defer s.wg.Wait()
	defer os.Remove(s.path)

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("ipc accept", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConn(ctx, conn, handler)
		}()
	}
}

func handleConn(ctx context.Context, conn net.Conn, handler Handler) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("ipc decode", "err", err)
		return
	}

	resp := handler(ctx, req)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		log.Warn("ipc encode", "cmd", req.Cmd, "err", err)
	}
}

// Send delivers one request to the daemon and waits for its response.
func Send(ctx context.Context, path string, req Request) (Response, error) {
	if path == "" {
		path = SocketPath
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	} else {
		conn.SetDeadline(time.Now().Add(2 * time.Minute))
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}
