package ipc

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z.sock")
	srv, err := Listen(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, func(_ context.Context, req Request) Response {
			switch req.Cmd {
			case "say":
				return Response{OK: true, Text: "heard: " + req.Text}
			default:
				return Fail(errors.New("unknown command"))
			}
		})
	}()

	resp, err := Send(context.Background(), path, Request{Cmd: "say", Text: "hello"})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "heard: hello", resp.Text)

	resp, err = Send(context.Background(), path, Request{Cmd: "dance"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "unknown command", resp.Error)

	cancel()
	require.NoError(t, <-done)
}

func TestSendWithoutDaemon(t *testing.T) {
	_, err := Send(context.Background(), filepath.Join(t.TempDir(), "none.sock"), Request{Cmd: "say"})
	assert.Error(t, err)
}
