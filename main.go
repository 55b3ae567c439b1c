// main.go
//
// Entry point for the hangman HTTP server.
// Responsibilities:
//   - Load configuration (.env + environment) and set up zerolog.
//   - Open the game store: in-memory, or SQLite with migrations, optionally
//     fronted by a valkey cache.
//   - Load the vocabulary and serve HTTP until SIGINT/SIGTERM, then shut
//     down gracefully.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valkey-io/valkey-go"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/hangman/assets"
	"github.com/robalobadob/hangman/internal/config"
	"github.com/robalobadob/hangman/internal/database"
	"github.com/robalobadob/hangman/internal/hangman"
	"github.com/robalobadob/hangman/internal/httpserver"
	"github.com/robalobadob/hangman/internal/logging"
	"github.com/robalobadob/hangman/internal/store"
	"github.com/robalobadob/hangman/internal/words"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	_, logCloser, err := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error().Err(err).Msg("close store")
		}
	}()

	vocab, err := words.Load(cfg.WordsFile)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	picker, err := words.NewRandom(vocab)
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	log.Info().Int("words", picker.Len()).Str("file", cfg.WordsFile).Msg("vocabulary loaded")

	svc := hangman.New(st, picker, cfg.MaxAttempts)
	srv := httpserver.New(svc, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       time.Duration(cfg.JWTExpiresDays) * 24 * time.Hour,
		RequestTimeout: cfg.RequestTimeout,
		VocabularySize: picker.Len(),
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting hangman server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore selects the backend from DB_PATH and VALKEY_ADDR.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var st store.Store
	if cfg.UseMemoryStore() {
		log.Warn().Msg("using in-memory store; games are lost on restart")
		st = store.NewMemory()
	} else {
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db, assets.Migrations()); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("path", cfg.DBPath).Msg("sqlite ready")
		st = store.NewSQLite(db)
	}

	if cfg.ValkeyAddr == "" {
		return st, nil
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.ValkeyAddr},
		Password:    cfg.ValkeyPassword,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}
	cached := store.NewCached(st, client, cfg.CacheTTL)
	if err := cached.Ping(ctx); err != nil {
		_ = cached.Close()
		return nil, err
	}
	log.Info().Str("addr", cfg.ValkeyAddr).Dur("ttl", cfg.CacheTTL).Msg("valkey cache enabled")
	return cached, nil
}
