package main

import (
	"cashtrackr-server/src/api"
	"cashtrackr-server/src/config"
	"cashtrackr-server/src/db"
	"cashtrackr-server/src/db/memdb"
	"cashtrackr-server/src/mail"
	"cashtrackr-server/src/services"
	"cashtrackr-server/src/util"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	store "cashtrackr-server/src/db/sql"
)

// memoryDatabaseURL selects the in-memory store for local runs.
const memoryDatabaseURL = "memory"

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openStore(ctx context.Context, cfg config.Config) (api.Store, func(), error) {
	if cfg.DatabaseURL == memoryDatabaseURL {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		return memdb.New(), func() {}, nil
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store.NewStore(pool), pool.Close, nil
}

func mailTransport(cfg config.Config) mail.Transport {
	if cfg.Mail.Host == "" {
		log.Info().Msg("SMTP_HOST not set, emails are written to the log")
		return mail.LogTransport{}
	}
	return mail.SMTPTransport{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("DB connection failed")
	}
	defer closeStore()

	tokens := util.NewSessionTokens(cfg.JWTSecret, cfg.SessionTTL)
	mailer := mail.NewMailer(mailTransport(cfg), cfg.Mail.From, cfg.FrontendURL)
	accounts := services.NewAccountService(st, util.NewBcryptHasher(cfg.BcryptCost), tokens, mailer, util.GenerateCode)

	// Router
	router := api.NewRouter(api.Deps{
		Store:          st,
		Accounts:       accounts,
		Tokens:         tokens,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("API server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
