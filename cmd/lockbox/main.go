package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lockboxhq/lockbox/api"
	"github.com/lockboxhq/lockbox/filesystem"
	"github.com/lockboxhq/lockbox/http"
	"github.com/lockboxhq/lockbox/scheduler"
	"github.com/lockboxhq/lockbox/session"
	"github.com/lockboxhq/lockbox/storage"
	"github.com/lockboxhq/lockbox/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	data := flag.String("data", "", "blob directory (overrides config)")
	web := flag.String("web", "", "web asset directory (overrides config)")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if *addr != "" {
		config.Addr = *addr
	}
	if *data != "" {
		config.Data = *data
	}
	if *web != "" {
		config.Web = *web
	}

	if err := run(context.Background(), config); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, config Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdown(flushCtx)
	}()

	logger := telemetry.Logger("lockbox")

	store, err := storage.Open(ctx, config.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	blobs, err := filesystem.NewLocal(config.Data, logger)
	if err != nil {
		return err
	}

	sessions := session.NewMemoryStore(config.SessionTTL)

	jobs := scheduler.NewScheduler(logger)
	jobs.AddJob(scheduler.Job{
		Name:     "session-sweep",
		Interval: time.Hour,
		Run: func(ctx context.Context) {
			if removed := sessions.Sweep(); removed > 0 {
				logger.Info("swept expired sessions", "count", removed)
			}
		},
	})
	go jobs.Run(ctx)

	mux := api.NewMux(
		api.NewAPIHandler(store, blobs, sessions, logger, config.Web),
	)

	server := http.NewServer("lockbox", mux.Serve, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", config.Addr)
		serverErrCh <- server.ListenAndServe(ctx, config.Addr)
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
		stop()
	}

	return nil
}
