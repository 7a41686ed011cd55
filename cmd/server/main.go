package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tictacmatch/internal/api"
	"tictacmatch/internal/broadcast"
	"tictacmatch/internal/config"
	"tictacmatch/internal/dispatch"
	"tictacmatch/internal/geo"
	"tictacmatch/internal/observability"
	"tictacmatch/internal/session"
	"tictacmatch/internal/web"
	"tictacmatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Initialize layers
	hub := broadcast.NewHub(logger.Named("hub"))
	sessions := session.NewManager(hub, logger.Named("session"))
	dispatcher := dispatch.New(sessions, logger.Named("dispatch"))
	locator := geo.NewClient(cfg.Geo, logger.Named("geo"))

	// Setup routes
	mux := http.NewServeMux()
	web.NewHandler("tictacmatch", cfg.Server.StaticDir).RegisterRoutes(mux)
	api.NewHandler(locator, sessions, logger.Named("api")).RegisterRoutes(mux)
	ws.NewHandler(hub, dispatcher, cfg.WebSocket, logger.Named("ws")).RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.CORSMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		// Hijacked websocket connections are not closed by Shutdown.
		hub.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped", zap.Int("users_at_shutdown", sessions.UserCount()))
}
