package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/minilid/internal/database"
	"github.com/vedran77/minilid/internal/logger"
	postgresrepo "github.com/vedran77/minilid/internal/repository/postgres"
	"github.com/vedran77/minilid/internal/service"
	"github.com/vedran77/minilid/internal/transport/http/handlers"
	"github.com/vedran77/minilid/internal/transport/http/middleware"
	"github.com/vedran77/minilid/internal/transport/ws"
)

const shutdownTimeout = 10 * time.Second

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Logger
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateOnStart {
		db, err := database.OpenSQL(ctx, cfg)
		if err != nil {
			return err
		}
		err = database.Migrate(ctx, db, log)
		db.Close()
		if err != nil {
			return err
		}
	}

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Infow("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	jobRepo := postgresrepo.NewJobRepo(pool)
	applicationRepo := postgresrepo.NewApplicationRepo(pool)
	channelRepo := postgresrepo.NewChannelRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	interviewRepo := postgresrepo.NewInterviewRepo(pool)

	// Services
	guard := service.NewAccessGuard(channelRepo, applicationRepo)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	applicationService := service.NewApplicationService(applicationRepo, jobRepo)
	channelService := service.NewChannelService(channelRepo, applicationRepo, jobRepo, messageRepo, guard, log)
	channelService.SetRateLimiter(middleware.NewKeyedLimiter(cfg.MessageRatePerSecond, cfg.MessageRateBurst, cfg.MessageRateIdle))
	interviewService := service.NewInterviewService(interviewRepo, jobRepo, channelService, log)

	// WebSocket
	hub := ws.NewHub(guard, channelService, log)
	channelService.SetNotifier(ws.NewHubNotifier(hub))

	// Handlers
	h := routeHandlers{
		auth:         handlers.NewAuthHandler(authService, log),
		applications: handlers.NewApplicationHandler(applicationService, cfg.JWTSecret, log),
		channels:     handlers.NewChannelHandler(channelService, cfg.JWTSecret, log),
		interviews:   handlers.NewInterviewHandler(interviewService, cfg.JWTSecret, log),
		ws:           ws.ServeWS(ctx, hub, cfg.JWTSecret),
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.Chain(newRouter(h),
			middleware.RequestID,
			middleware.AccessLog(log),
			middleware.Recover(log),
			middleware.CORS,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Infow("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Infow("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
