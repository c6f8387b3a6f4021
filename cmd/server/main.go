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

	_ "time/tzdata"

	"boutique/internal/config"
	"boutique/internal/infra"
	"boutique/internal/realtime"
	"boutique/internal/repository"
	"boutique/internal/router"
	"boutique/internal/service"
	"boutique/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in development, JSON in production
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.BusinessTimezone).Msg("invalid business timezone")
	}
	cal := service.NewCalendar(loc, time.Now)

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Background work lives for the whole process and stops on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	mailCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	dispatcher := worker.NewDispatcher(rdb)
	dispatcher.Handle(worker.JobNotification, worker.NewNotificationWorker(mailer, mailCB, rdb))
	dispatcher.Handle(worker.JobAudit, worker.NewAuditWorker(repository.NewAuditRepository(db), rdb))
	dispatcher.Start(ctx, cfg.WorkerPoolSize)

	worker.StartReminderCron(ctx, worker.ReminderCronConfig{
		Payables:   repository.NewPayableRepository(db),
		Locker:     infra.NewLocker(rdb),
		Queue:      dispatcher,
		Recipients: cfg.FinanceRecipients(),
		Interval:   cfg.ReminderInterval,
		WindowDays: cfg.PayableDueWindowDays,
		Location:   loc,
	})

	hub := realtime.NewHub()
	go hub.Run(ctx)

	r := router.New(cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Queue:    dispatcher,
		Hub:      hub,
		MailCB:   mailCB,
		Calendar: cal,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("boutique backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
