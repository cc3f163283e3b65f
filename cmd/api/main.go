package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/minimalist-ai/backend/internal/bootstrap"
	"github.com/zhouzirui/minimalist-ai/backend/internal/config"
	"github.com/zhouzirui/minimalist-ai/backend/internal/handler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize conversation store: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(app.Chat),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chat backend listening on %s (store=%s)", srv.Addr, cfg.Store.Driver)
	if err := runServer(ctx, srv, cfg.Server.ShutdownTimeout, app.Close); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// runServer serves until ctx is done or the listener fails, then shuts the
// server down and runs onShutdown within the same grace period.
func runServer(ctx context.Context, srv *http.Server, grace time.Duration, onShutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Println("shutting down")
	case serveErr = <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if serveErr == nil {
		_ = srv.Shutdown(shutdownCtx)
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	if onShutdown != nil {
		if err := onShutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
	return serveErr
}
