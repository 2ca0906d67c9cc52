package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"zendaya/internal/boot"
	"zendaya/internal/bus"
	"zendaya/internal/config"
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
	url := cli.StringP("url", "u", "", "Url of hub")
	name := cli.StringP("name", "n", "zendaya", "Shard name on the bus")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks Proxy Address")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	reconn := cli.DurationP("reconnect", "r", 3*time.Second, "Pause between reconnects")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Starting shard", "name", *name)

	godotenv.Load(*envFile)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	if *url != "" {
		cfg.Bus = *url
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := boot.Build(ctx, cfg, boot.Options{})
	if err != nil {
		log.Error("Failed to boot", "err", err)
		os.Exit(1)
	}
	defer env.Close()

	handler := replier(env.Assistant)

	for ctx.Err() == nil {
		b, err := bus.Dial(ctx, cfg.Bus, *name)
		if err != nil {
			log.Error("Failed to connect to bus", "url", cfg.Bus, "err", err)
		} else {
			err = b.Serve(ctx, handler)
			b.Close()
			if err != nil {
				log.Warn("Bus connection lost", "err", err)
			}
		}

		select {
		case <-ctx.Done():
		case <-time.After(*reconn):
		}
	}
	log.Info("Shard stopped")
}
