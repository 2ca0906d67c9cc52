package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"zendaya/internal/assistant"
	"zendaya/internal/audio"
	"zendaya/internal/boot"
	"zendaya/internal/config"
	"zendaya/internal/session"
	"zendaya/internal/tts/espeak"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "zendaya.yaml", "Config file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks Proxy Address")
	logLevel := cli.StringP("log", "l", "warn", "Log level")
	mute := cli.BoolP("mute", "m", false, "Never play replies")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	godotenv.Load(*envFile)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt := boot.Options{Devices: true}
	if !*mute {
		player := audio.NewPlayer(audio.NewDucker([]string{"zendaya"}, 20))
		opt.Player = player
		opt.Cue = player
		opt.Fallback = espeak.New("en", 175)
	}

	env, err := boot.Build(ctx, cfg, opt)
	if err != nil {
		log.Error("Failed to boot", "err", err)
		os.Exit(1)
	}
	defer env.Close()

	if env.Bus != nil {
		go env.Bus.Run(ctx)
	}

	a := env.Assistant
	say(ctx, env, a.Greeting(), *mute)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		fmt.Print("> ")

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println()
			fmt.Println(assistant.Deactivate)
			return
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Println(assistant.Deactivate)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if assistant.IsExit(line) {
			say(ctx, env, assistant.Farewell, *mute)
			return
		}

		reply, err := a.Handle(ctx, assistant.Turn{Text: line})
		if errors.Is(err, assistant.ErrEmptyUtterance) {
			continue
		}
		if err != nil {
			log.Error("Turn failed", "err", err)
			continue
		}

		for _, step := range reply.Steps {
			fmt.Println("  -", step)
		}
		if len(reply.Suggestions) > 0 {
			fmt.Println("  did you mean:", strings.Join(reply.Suggestions, " / "))
		}
		fmt.Printf("%s: %s\n", cfg.Name, reply.Text)

		if !*mute && a.Mode() != session.ModeText {
			if err := env.Speaker.Play(ctx, reply.Audio, reply.Text); err != nil {
				log.Warn("Failed to play reply", "err", err)
			}
		}
	}
}

// say prints and, outside text mode, speaks a fixed line.
func say(ctx context.Context, env *boot.Env, text string, mute bool) {
	fmt.Printf("%s: %s\n", env.Config.Name, text)
	if mute || env.Assistant.Mode() == session.ModeText {
		return
	}
	if err := env.Speaker.Say(ctx, text, env.Config.Voice, ""); err != nil {
		log.Warn("Failed to speak", "err", err)
	}
}
