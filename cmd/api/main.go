package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	v1 "go-recruitchat/cmd/api/router/v1"
	"go-recruitchat/internal/config"
	cacheAdapter "go-recruitchat/internal/infrastructure/cache/adapter"
	"go-recruitchat/internal/infrastructure/database"
	"go-recruitchat/internal/infrastructure/identity"
	"go-recruitchat/internal/infrastructure/idgen"
	"go-recruitchat/internal/infrastructure/logging"
	queueAdapter "go-recruitchat/internal/infrastructure/queue/adapter"
	"go-recruitchat/internal/infrastructure/realtime"
	"go-recruitchat/internal/infrastructure/telemetry"
	"go-recruitchat/internal/pkg/chat/application/arena"
	"go-recruitchat/internal/pkg/chat/application/buffer"
	"go-recruitchat/internal/pkg/chat/application/task"
	"go-recruitchat/internal/pkg/chat/application/usecase"
	repoAdapter "go-recruitchat/internal/pkg/chat/persistence/repository/adapter"
	"go-recruitchat/internal/pkg/chat/presentation/controller"
	chathttp "go-recruitchat/internal/pkg/chat/presentation/http"
)

const (
	exitRuntime = 1
	exitConfig  = 2

	shutdownTimeout = 10 * time.Second
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup always executes.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return exitConfig
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	slog.SetDefault(logger)

	if err := serve(cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		return exitRuntime
	}
	return 0
}

func serve(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Telemetry
	tel, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	// 2. Postgres
	dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(dbCtx, cfg.DBURL, database.WithMaxConns(int32(cfg.DBMaxConns)))
	cancel()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// 3. Redis cache and background queue
	redisCache, err := cacheAdapter.NewRedisAdapter(ctx, cfg.RedisURL, cacheAdapter.WithNamespace(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() { _ = redisCache.Close() }()

	queueClient, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("asynq client: %w", err)
	}
	defer func() { _ = queueClient.Close() }()

	queueServer, err := queueAdapter.NewAsynqServer(queueAdapter.ServerConfig{
		RedisURL:    cfg.RedisURL,
		Concurrency: cfg.AsynqConcurrency,
		Queues:      cfg.AsynqQueues,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("asynq server: %w", err)
	}

	ids, err := idgen.NewSnowflake(int64(cfg.SnowflakeNode))
	if err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	// 4. Conversation core
	repo := repoAdapter.NewPgConversationRepository(pool)
	store := usecase.NewStore(repo, cfg.StoreTimeout)
	router := realtime.NewRouter()
	buf := buffer.New()
	locks := arena.New()
	transcripts := usecase.NewTranscriptCache(redisCache, cfg.TranscriptTTL, logger)

	task.RegisterConversationClosedTask(queueServer, usecase.NewWarmTranscriptUseCase(store, transcripts), logger)

	deps := chathttp.Deps{
		Router:      router,
		Verifier:    identity.NewJWTVerifier([]byte(cfg.JWTSecret)),
		Logger:      logger,
		Join:        usecase.NewJoinConversationUseCase(store, router, buf, locks, logger),
		Send:        usecase.NewSendMessageUseCase(router, buf, locks, ids, cfg.MaxContentLength),
		Leave:       usecase.NewLeaveConversationUseCase(router, locks),
		Close:       usecase.NewCloseConversationUseCase(store, router, buf, locks, task.NewPublisher(queueClient), logger),
		Get:         usecase.NewGetConversationUseCase(store, buf, transcripts),
		ReadTimeout: cfg.ReadTimeout,
		SendBuffer:  cfg.SendBuffer,
	}

	// 5. HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(cfg.ServiceName))
	checks := map[string]controller.Pinger{"postgres": repo, "redis": redisCache}
	if err := v1.RegisterRoutes(engine, deps, checks); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := queueServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("asynq server: %w", err)
		}
	}()

	// 6. Wait for stop or error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	case runErr = <-errChan:
	}
	stop()

	// 7. Final cleanup. Hijacked websockets are not tracked by Shutdown.
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	router.Close()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	<-workerDone
	if n := buf.Conversations(); n > 0 {
		logger.Warn("unflushed conversations discarded at shutdown", "conversations", n)
	}
	logger.Info("program stopped cleanly")
	return runErr
}
