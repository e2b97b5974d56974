package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Huddle/internal/adapters/auth"
	router "github.com/dkeye/Huddle/internal/adapters/http"
	wssignal "github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/adapters/sink"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("huddle stopped")
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		durable core.Sink = core.NopSink{}
		store   *sink.BadgerStore
		async   *sink.Async
	)
	if cfg.Sink.Path != "" {
		store, err = sink.OpenBadger(cfg.Sink.Path)
		if err != nil {
			return fmt.Errorf("open sink store: %w", err)
		}
		async = sink.NewAsync(store, cfg.Sink.QueueSize)
		durable = async
		g.Go(func() error { return async.Run(gctx) })
	}

	var verifier core.IdentityVerifier = core.AllowAll{}
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	}

	o := orch.New(durable, verifier, app.PolicyFromString(cfg.SlowConsumer), orch.Options{
		NotifyUnknownTarget: cfg.Relay.NotifyUnknownTarget,
		MaxChatLength:       cfg.Chat.MaxLength,
		VerifyTimeout:       cfg.Auth.Timeout,
	})
	ctrl := wssignal.NewSignalWSController(o, wssignal.Options{
		ReadLimit:        cfg.ReadLimit,
		PingPeriod:       cfg.PingPeriod,
		WriteWait:        cfg.WriteWait,
		SendBuffer:       cfg.SendBuffer,
		ValidatePayloads: cfg.Relay.ValidatePayloads,
		ChatRateLimit:    cfg.Chat.RateLimit,
		ChatRateInterval: cfg.Chat.RateInterval,
	})

	r := router.SetupRouter(gctx, cfg, o, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		ctrl.Wait()
		if async != nil {
			async.Close()
		}
		return nil
	})

	err = g.Wait()
	if store != nil {
		if cerr := store.Close(); cerr != nil {
			log.Error().Err(cerr).Str("module", "sink").Msg("close store")
		}
	}
	if err != nil {
		return err
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}
