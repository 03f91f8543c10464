package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samandr77/crm/internal/api"
	"github.com/samandr77/crm/internal/app"
	"github.com/samandr77/crm/pkg/config"
	"github.com/samandr77/crm/pkg/job"
	"github.com/samandr77/crm/pkg/logger"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.3 init -g internal/api/handler.go -d ../../ -o ../../docs

const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	ShutdownTimeout = 10 * time.Second
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New(".env")
	panicOnErr("load config", err)

	_, err = logger.New(cfg.LogLevel)
	panicOnErr("create logger", err)

	a, err := app.New(ctx, cfg)
	panicOnErr("assemble application", err)
	defer a.Close()

	err = a.Migrate(ctx)
	panicOnErr("up migrations", err)

	created, err := a.Bootstrap(ctx)
	panicOnErr("bootstrap", err)

	if created {
		slog.WarnContext(ctx, "default admin created, change its password", "email", cfg.Bootstrap.AdminEmail)
	}

	jobs := job.NewScheduler().
		Register("refresh backlog gauges", cfg.BacklogInterval, a.Service.RefreshBacklog).
		TryRegister(cfg.LoginMaxFailed > 0, "clean login attempts", cfg.LoginWindow, a.Service.CleanLoginAttempts)
	jobs.Start(ctx)

	handler := api.NewHandler(a.Service, a.Tokens)
	mw := api.NewMiddleware(a.Tokens, a.Service, cfg.CORSAllowedOrigins)

	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("listen and serve: %s", err)
		}
	}()

	slog.InfoContext(ctx, "service started", "port", cfg.HTTPPort, "db", cfg.DBDriver, "mail", cfg.Mail.Transport)

	wg.Add(1)

	go func() {
		defer wg.Done()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
		sig := <-ch

		slog.InfoContext(ctx, "got OS signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, ShutdownTimeout)
		defer shutdownCancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			slog.ErrorContext(ctx, "server shutdown", "error", err)
		}

		cancel()
	}()

	wg.Wait()
	jobs.Wait()
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %s", msg, err)
	}
}
