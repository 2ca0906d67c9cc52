package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"zendaya/internal/ipc"
)

const usage = `usage: zendaya-ctl [-s socket] <command> [args]

commands:
  trigger              listen until silence and answer
  listen | stop        push-to-talk recording
  say <text>           handle a typed utterance
  transcribe <file>    transcribe a wav/mp3/ogg file
  analyze <text>       show recognition analysis
  learn <file>         add a text file to the knowledge library
  status               show daemon state
`

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Daemon socket path")
	timeout := cli.DurationP("timeout", "t", 2*time.Minute, "Request timeout")
	raw := cli.BoolP("json", "j", false, "Print the raw response")
	cli.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cli.Parse()

	req, err := request(cli.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cli.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resp, err := ipc.Send(ctx, *socket, req)
	if err != nil {
		fmt.Println("zendaya-daemon not running:", err)
		os.Exit(1)
	}

	if *raw {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(resp)
		return
	}

	if !resp.OK {
		fmt.Println("error:", resp.Error)
		os.Exit(1)
	}
	if resp.Text != "" {
		fmt.Println(resp.Text)
		return
	}
	if resp.Data != nil {
		out, _ := json.MarshalIndent(resp.Data, "", "  ")
		fmt.Println(string(out))
	}
}

func request(args []string) (ipc.Request, error) {
	if len(args) == 0 {
		return ipc.Request{Cmd: "trigger"}, nil
	}

	cmd, rest := args[0], strings.Join(args[1:], " ")
	switch cmd {
	case "trigger", "listen", "stop", "status":
		return ipc.Request{Cmd: cmd}, nil
	case "say", "analyze":
		if rest == "" {
			return ipc.Request{}, fmt.Errorf("%s needs text", cmd)
		}
		return ipc.Request{Cmd: cmd, Text: rest}, nil
	case "transcribe", "learn":
		if rest == "" {
			return ipc.Request{}, fmt.Errorf("%s needs a file", cmd)
		}
		return ipc.Request{Cmd: cmd, Path: rest}, nil
	}
	return ipc.Request{}, fmt.Errorf("unknown command %q", cmd)
}
