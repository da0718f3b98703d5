package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scribes/internal/clients/mongo"
	"scribes/internal/config"
	"scribes/internal/logger"
	"scribes/internal/services/auth"
	"scribes/internal/services/notes"
	"scribes/internal/services/reminders"

	"github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Create bootstrap logger for early errors
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if cfg.PyroscopeServerAddress != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "scribes",
			ServerAddress:   cfg.PyroscopeServerAddress,
		})
		if err != nil {
			logg.Warn("pyroscope disabled", "err", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	store, err := mongo.Connect(ctx, cfg, logg)
	if err != nil {
		logg.Error("mongo connect", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", store.DB().Name(), "transactions", store.SupportsTransactions())

	usersRepo, err := mongo.NewUsersRepo(ctx, store)
	if err != nil {
		logg.Error("users repository", "err", err)
		os.Exit(1)
	}
	notesRepo, err := mongo.NewNotesRepo(ctx, store)
	if err != nil {
		logg.Error("notes repository", "err", err)
		os.Exit(1)
	}
	remindersRepo, err := mongo.NewRemindersRepo(ctx, store)
	if err != nil {
		logg.Error("reminders repository", "err", err)
		os.Exit(1)
	}

	hub := notes.NewHub(cfg.WSOutboxBuffer)
	notesSvc := notes.NewService(notesRepo, hub, logg, notes.Options{SearchMinQueryLen: cfg.SearchMinQueryLen})
	manager := reminders.NewManager(remindersRepo, notesSvc, store, logg, reminders.Options{MaxDaysAhead: cfg.ReminderMaxDaysAhead})
	authSvc := auth.NewService(usersRepo, cfg, logg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := hub.RegisterMetrics(reg); err != nil {
		logg.Error("hub metrics", "err", err)
		os.Exit(1)
	}
	sweeper := reminders.NewSweeper(manager, reminders.LogNotifier{Log: logg, Notes: notesSvc},
		time.Duration(cfg.ReminderSweepIntervalSec)*time.Second, logg, reg)

	logg.Info("starting Scribes", "port", cfg.AppPort)

	app := setupRouter(cfg, routerDeps{
		Store:     store,
		Auth:      authSvc,
		Notes:     notesSvc,
		Reminders: manager,
		Hub:       hub,
		Registry:  reg,
	})
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return sweeper.Run(ctx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return store.Close(shutdownCtx)
	})

	// Wait and exit
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}
