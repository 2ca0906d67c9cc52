package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cronlib "github.com/robfig/cron/v3"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	"zendaya/internal/audio"
	"zendaya/internal/boot"
	"zendaya/internal/config"
	"zendaya/internal/ipc"
	"zendaya/internal/tts/espeak"
	"zendaya/pkg/stt"
)

const retentionDays = 30

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
	logLevel := cli.StringP("log", "l", "info", "Log level")
	model := cli.StringP("whisper", "w", "", "Whisper model path")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	if *model != "" {
		cfg.Whisper = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := audio.NewPlayer(audio.NewDucker([]string{"zendaya"}, 20))
	env, err := boot.Build(ctx, cfg, boot.Options{
		Player:   player,
		Cue:      player,
		Fallback: espeak.New("en", 175),
		Devices:  true,
	})
	if err != nil {
		log.Error("Failed to boot", "err", err)
		os.Exit(1)
	}
	defer env.Close()

	log.Debug("Loaded assistant")

	rec := audio.NewRecorder(audio.DefaultRecorderConfig())
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.Whisper)
	if err != nil {
		log.Error("Failed to init whisper", "model", cfg.Whisper, "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper")

	srv, err := ipc.Listen(cfg.Socket)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	d := newDaemon(env, rec, whisper)

	scheduler := cronlib.New()
	if _, err := scheduler.AddFunc("@daily", func() { d.cleanup(ctx) }); err != nil {
		log.Error("Failed to schedule cleanup", "err", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info("Boot up - successful", "socket", cfg.Socket)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, d.handle)
	})
	if env.Bus != nil {
		g.Go(func() error {
			env.Bus.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Daemon stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}
