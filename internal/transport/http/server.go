package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsechat/internal/config"
	"pulsechat/internal/database"
	"pulsechat/internal/handler"
	"pulsechat/internal/queue"
	"pulsechat/internal/redis"
	"pulsechat/internal/repository"
	"pulsechat/internal/service"
	"pulsechat/internal/worker"
)

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	// The account event stream is best-effort: if Redis is down we still
	// serve identity traffic, just without audit events.
	var publisher queue.Publisher
	var auditManager *worker.Manager
	if err := redisClient.Ping(context.Background()); err != nil {
		log.Printf("Redis unavailable, account events disabled: %v", err)
	} else {
		publisher = queue.NewPublisher(redisClient.Client)

		consumer := queue.NewConsumer(redisClient.Client)
		auditRepo := repository.NewAuditRepository(db)
		auditManager = worker.NewManager(consumer, worker.NewHandler(auditRepo), worker.ManagerConfig{
			WorkerCount: cfg.AuditWorkerCount,
		})
		if err := auditManager.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start audit workers: %w", err)
		}
		defer auditManager.Stop()
	}

	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(userRepo, publisher)
	friendService := service.NewFriendService(userRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:   handler.NewAuthHandler(userService),
		UserHandler:   handler.NewUserHandler(userService),
		FriendHandler: handler.NewFriendHandler(friendService),
		Resolver:      userService,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
