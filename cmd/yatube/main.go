package main

import (
	"crypto/sha256"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	logrustash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/sirupsen/logrus"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/media"
	"yatube/internal/metrics"
	"yatube/internal/store"
	"yatube/internal/web"
)

var logger = logrus.New()

func initLogger(cfg *config.Config) {
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using warn")
	}
	logger.SetLevel(level)

	if cfg.LogstashAddr == "" {
		return
	}
	conn, err := net.Dial("tcp", cfg.LogstashAddr)
	if err != nil {
		logger.WithError(err).WithField("addr", cfg.LogstashAddr).Warn("Logstash unreachable, logging to stdout only")
		return
	}
	logger.AddHook(logrustash.New(conn, logrustash.DefaultFormatter(logrus.Fields{"type": "yatube"})))
}

func seedAdmin(cfg *config.Config, st *store.Store) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	if _, err := st.Users.EnsureStaff(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}
	logger.WithField("username", cfg.AdminUsername).Info("Staff account ready")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	initLogger(cfg)

	db, err := store.Open(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Database unavailable")
	}
	if err := store.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Migration failed")
	}
	st := store.New(db)
	if err := seedAdmin(cfg, st); err != nil {
		logger.WithError(err).Fatal("Failed to seed staff account")
	}

	files, err := media.New(cfg.MediaRoot)
	if err != nil {
		logger.WithError(err).Fatal("Media root unavailable")
	}

	// securecookie wants a 32 or 64 byte hash key
	key := sha256.Sum256([]byte(cfg.SessionKey))
	srv, err := web.New(web.Options{
		Store:         st,
		Media:         files,
		Cache:         cache.New(),
		IndexCacheTTL: cfg.IndexCacheTTL,
		SessionKey:    key[:],
		Logger:        logger,
		Metrics:       metrics.New(),
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build server")
	}

	httpServer := &http.Server{
		Addr:         cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithField("addr", cfg.Port).Warn("Server starting")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server stopped")
	}
}
