package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zendaya/internal/ipc"
)

func TestRequest(t *testing.T) {
	tests := []struct {
		args []string
		want ipc.Request
	}{
		{nil, ipc.Request{Cmd: "trigger"}},
		{[]string{"status"}, ipc.Request{Cmd: "status"}},
		{[]string{"say", "open", "gmail"}, ipc.Request{Cmd: "say", Text: "open gmail"}},
		{[]string{"learn", "notes.txt"}, ipc.Request{Cmd: "learn", Path: "notes.txt"}},
	}
	for _, tt := range tests {
		got, err := request(tt.args)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, got)
	}
}

func TestRequestErrors(t *testing.T) {
	for _, args := range [][]string{{"say"}, {"transcribe"}, {"dance"}} {
		_, err := request(args)
		assert.Error(t, err, args)
	}
}
