package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	ledgerauth "github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/auth"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/mysql"
	ledgerredis "github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/redis"
	ledgerconsumer "github.com/wyfcoding/tokenledger/internal/ledger/interfaces/consumer"
	httpserver "github.com/wyfcoding/tokenledger/internal/ledger/interfaces/http"
	"github.com/wyfcoding/tokenledger/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

var (
	configPath = flag.String("config", "configs/ledger/config.toml", "config file path")
	owner      = flag.String("owner", "ledger.owner", "ledger owner principal, approves symbol creation")
)

func main() {
	flag.Parse()

	// 1. 配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	logCfg := &logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)

	// 4. 数据库
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&domain.TokenStats{},
			&domain.AccountBalance{},
			&domain.VestingGrant{},
			&domain.LedgerEntry{},
			&mysql.VestingCounter{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka & Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)

	// 6. Redis
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
	}

	// 7. 仓储
	tokenRepo := mysql.NewGormTokenRepository(db.RawDB())
	balanceRepo := mysql.NewGormBalanceRepository(db.RawDB())
	grantRepo := mysql.NewGormVestingGrantRepository(db.RawDB())
	entryRepo := mysql.NewGormLedgerEntryRepository(db.RawDB())
	txm := mysql.NewTransactionManager(db.RawDB())
	publisher := outbox.NewPublisher(outboxMgr)

	var balanceCache domain.BalanceCache
	if redisCache != nil {
		balanceCache = ledgerredis.NewBalanceCache(redisCache.GetClient())
	}

	// 8. 应用服务
	authorizer := ledgerauth.NewActorAuthorizer()
	commandSvc := application.NewLedgerCommands(
		tokenRepo, balanceRepo, grantRepo, entryRepo,
		txm, authorizer, domain.SystemClock{}, publisher, *owner, logger.Logger,
	)
	querySvc := application.NewLedgerQueries(
		tokenRepo, balanceRepo, grantRepo, entryRepo, balanceCache, logger.Logger,
	)

	// 9. 投影消费者
	projectionHandler := ledgerconsumer.NewBalanceProjectionHandler(querySvc, logger.Logger)
	projectionTopics := []string{
		domain.TokensIssuedEventType,
		domain.TransferredEventType,
		domain.VestingGrantedEventType,
		domain.VestingUnlockedEventType,
	}
	for _, topic := range projectionTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "ledger-projection-group"
		}
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		consumer.Start(context.Background(), 1, projectionHandler.Handle)
	}

	// 10. 接口层
	grpcSrv := grpc.NewServer()
	reflection.Register(grpcSrv)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if redisCache != nil {
		limiter := ratelimit.NewRedisLimiter(redisCache.GetClient())
		limit := ratelimit.Limit{Rate: 100, Period: time.Second, Burst: 200}
		r.Use(httpserver.RateLimitMiddleware(limiter, limit, logger.Logger))
	}
	httpHandler := httpserver.NewHandler(commandSvc, querySvc)
	httpHandler.RegisterRoutes(r.Group("/api"))
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// 11. 启动
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		slog.Info("gRPC server starting", "addr", addr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server := &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
