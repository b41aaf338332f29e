package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harunnryd/latentstage/pkg/latentstage"
	"github.com/harunnryd/latentstage/pkg/logging"
	"github.com/harunnryd/latentstage/pkg/runner"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := latentstage.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	eng, err := latentstage.NewEngine(cfg, latentstage.DefaultRegistry())
	if err != nil {
		slog.Error("engine init failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := runner.NewLifecycleRunner(runner.DrainerFunc(eng.Stop), runner.Hooks{
		OnStart: func() {
			go func() {
				if err := eng.Start(ctx); err != nil && ctx.Err() == nil {
					slog.Error("engine error", "error", err)
				}
				if cfg.Mode == latentstage.ModeLocal {
					// Local mode plays one show, then exits.
					cancel()
				}
			}()
		},
		OnStop: func() {
			slog.Info("shutting down")
		},
	}, 15*time.Second)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
