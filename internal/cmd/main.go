package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sqott47/track-rating/internal/overlay"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("server", cfg.Server.BaseURL).
		Str("role", cfg.Session.Role).
		Bool("access_controlled", cfg.Session.AccessControlled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting rating client")

	app, err := setupApp(cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dispatch loop: all inbound events, timer flushes and poll deliveries
	// apply on this one goroutine. With the transport down the inert source
	// never closes, so the loop keeps serving the poller's posted jobs.
	go app.dispatcher.Run(ctx, app.eventSource())
	if app.source != nil {
		app.controller.RequestInitialState()
		app.controller.RequestQueueState()
	} else {
		go app.poller.Run(ctx)
	}

	var overlaySrv *overlay.Server
	if cfg.Overlay.Enabled {
		overlaySrv = overlay.NewServer(cfg.Overlay.Addr, app)
		go func() {
			if err := overlaySrv.Start(); err != nil {
				log.Error().Err(err).Msg("overlay server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	if overlaySrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := overlaySrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("overlay shutdown failed")
		}
		shutdownCancel()
	}

	cancel()
	if app.source != nil {
		app.source.Close()
	}
	if app.prefsStore != nil {
		app.prefsStore.Close()
	}

	log.Info().Msg("rating client shutdown complete")
}
