package httpserver

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

	"github.com/velic0/game-telemetry/internal/jsonlog"
)

type ServeConfig struct {
	Port           int
	RequestTimeout time.Duration
}

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully. onShutdown runs before the listener closes so background
// workers drain first.
func Serve(cfg ServeConfig, logger *jsonlog.Logger, handler http.Handler, onShutdown func(context.Context) error) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           http.TimeoutHandler(handler, cfg.RequestTimeout, "request timed out"),
		IdleTimeout:       60 * time.Second,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		ErrorLog:          log.New(logger, "", 0),
	}

	shutdownError := make(chan error, 1)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		logger.Info("shutting down server", jsonlog.Fields{
			"signal": s.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if onShutdown != nil {
			if err := onShutdown(ctx); err != nil {
				logger.Error(err, jsonlog.Fields{
					"component": "shutdown_hook",
				})
			}
		}

		shutdownError <- srv.Shutdown(ctx)
	}()

	logger.Info("starting server", jsonlog.Fields{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownError; err != nil {
		return err
	}

	logger.Info("stopped server", jsonlog.Fields{
		"addr": srv.Addr,
	})

	return nil
}
