package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tixify/config"
	"tixify/internal/auth"
	"tixify/internal/cache"
	"tixify/internal/database"
	"tixify/internal/handler"
	"tixify/internal/issuance"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/repository"
	"tixify/internal/service"
	"tixify/internal/worker"
	"tixify/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	authn, err := auth.NewAuthenticator(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal("Invalid auth config", zap.Error(err))
	}
	signer, err := issuance.NewSigner(cfg.Issuance.QRSecret)
	if err != nil {
		log.Fatal("Invalid issuance config", zap.Error(err))
	}

	issuanceQueue, reconciliationQueue, err := newQueues(rdb, &cfg.Issuance)
	if err != nil {
		log.Fatal("Failed to initialize queues", zap.Error(err))
	}

	// repositories
	eventRepo := repository.NewEventRepository(pool)
	tierRepo := repository.NewTierRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewCheckInAuditRepository(pool)

	// redis
	inventory := cache.NewRedisTierInventory(rdb)
	lock := cache.NewRedisCheckoutLock(rdb)

	// services
	eventService := service.NewEventService(eventRepo, tierRepo, inventory)
	tierService := service.NewTierService(pool, tierRepo, eventRepo, inventory)
	checkoutService := service.NewCheckoutService(pool, eventRepo, tierRepo, ticketRepo, inventory, lock, signer,
		issuanceQueue, reconciliationQueue, service.CheckoutOptions{
			Timeout: cfg.Server.CheckoutTimeout,
			LockTTL: cfg.Server.CheckoutLockTTL,
		})
	ticketService := service.NewTicketService(pool, ticketRepo, eventRepo, tierRepo, auditRepo, signer,
		issuance.NewRenderer(cfg.Issuance.QRSize), issuance.NewSMTPMailer(&cfg.SMTP), issuanceQueue)

	// workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	workers := []worker.Worker{
		worker.NewIssuanceWorker(ticketService, issuanceQueue, cfg.Issuance.Workers, cfg.Issuance.MaxRetryCount),
		worker.NewReconciliationWorker(reconciliationQueue),
	}
	for _, w := range workers {
		if err := w.Start(workerCtx); err != nil {
			log.Fatal("Failed to start worker", zap.Error(err))
		}
	}

	gin.SetMode(cfg.Server.GinMode)
	router := handler.NewRouter(authn, handler.Services{
		Events:         eventService,
		Tiers:          tierService,
		Checkout:       checkoutService,
		Tickets:        ticketService,
		Reconciliation: reconciliationQueue,
	}, gin.Recovery(), handler.RequestLogger())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("queue_backend", cfg.Issuance.QueueBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, cleaning up...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", zap.Error(err))
	}

	// 先停 HTTP 再停 worker，已排入的寄送工作在 redis 模式下會留在 PEL
	cancelWorkers()
	for _, w := range workers {
		w.Wait()
	}
	log.Info("Shutdown complete")
}

func newQueues(rdb *redis.Client, cfg *config.IssuanceConfig) (queue.Queue[model.IssuanceJob], queue.Queue[model.ReconciliationCase], error) {
	switch cfg.QueueBackend {
	case "memory":
		return queue.NewMemoryQueue[model.IssuanceJob](cfg.QueueBuffer),
			queue.NewMemoryQueue[model.ReconciliationCase](cfg.QueueBuffer), nil
	case "redis":
		hostname, _ := os.Hostname()
		issuanceQueue, err := queue.NewRedisStreamQueue[model.IssuanceJob](rdb, queue.IssuanceStream, queue.StreamOptions{
			Consumer:      hostname,
			MaxDeliveries: cfg.MaxRetryCount,
			MaxLen:        100000,
		})
		if err != nil {
			return nil, nil, err
		}
		// 對帳佇列也是給營運查詢的紀錄，保留比較少但不能太快被修剪
		reconciliationQueue, err := queue.NewRedisStreamQueue[model.ReconciliationCase](rdb, queue.ReconciliationStream, queue.StreamOptions{
			Consumer:      hostname,
			MaxDeliveries: cfg.MaxRetryCount,
			MaxLen:        10000,
		})
		if err != nil {
			return nil, nil, err
		}
		return issuanceQueue, reconciliationQueue, nil
	default:
		return nil, nil, errors.New("unknown queue backend: " + cfg.QueueBackend)
	}
}
