package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	v1Grpc "github.com/DRSN-tech/ferreteria-backend/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/ferreteria-backend/internal/delivery/v1/http"
	"github.com/DRSN-tech/ferreteria-backend/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/ferreteria-backend/internal/infrastructure/minio"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	s3Repo "github.com/DRSN-tech/ferreteria-backend/internal/repository/minio"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/ferreteria-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/ferreteria-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/sqlite"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/clients"
	"github.com/DRSN-tech/ferreteria-backend/pkg/closer"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/DRSN-tech/ferreteria-backend/pkg/postgres"
	"github.com/DRSN-tech/ferreteria-backend/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 15 * time.Second
)

// App — собранный сервис: HTTP API, gRPC health, outbox-воркер и фоновые задачи.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	httpSrv  *v1Http.Server
	grpcSrv  *v1Grpc.GRPCServer
	health   *v1Grpc.HealthReporter
	worker   *kafka.OutboxWorker
	sessions *scanner.Manager

	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewApp подключается ко всем хранилищам и собирает зависимости.
// При ошибке уже открытые ресурсы закрываются.
func NewApp(cfg *config.Config, logger logger.Logger) (_ *App, err error) {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	a := &App{
		cfg:      cfg,
		logger:   logger,
		closer:   closer.NewCloser(2 * time.Second),
		bgCtx:    bgCtx,
		bgCancel: bgCancel,
	}
	defer func() {
		if err != nil {
			bgCancel()
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = a.closer.Close(ctx)
		}
	}()

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := initPGDB(startCtx, logger, cfg)
	if err != nil {
		return nil, err
	}
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	trManager, err := tr.NewManager(db.Pool)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.NewProductConverter())
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.NewOutboxEventConverter())

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(startCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return nil, e.Wrap("failed to initialize MinIO bucket", err)
	}
	imagesInfra := minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient, cfg.Minio), cfg.Minio, logger, bgCtx)

	redisClient := clients.NewRedisClient(cfg.Redis)
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })
	if err := redisClient.Ping(startCtx); err != nil {
		return nil, e.Wrap("failed to connect to redis", err)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.NewProductConverter(), cfg.Redis, logger)

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })
	if err := producer.EnsureTopic(5 * time.Second); err != nil {
		// брокер может подняться позже, outbox дождётся
		logger.Warnf("kafka topic check failed: %v", err)
	}

	m := metrics.New()

	productUC := usecase.NewProductUC(productRepo, outboxRepo, cacheRepo, imagesInfra, trManager, m, logger)

	decoder, err := scanner.NewZXingDecoder(scanner.DefaultFormats...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.sessions = scanner.NewManager(decoder, scanner.SessionOptions{
		Threshold:       cfg.Scanner.ConfirmThreshold,
		FramesPerSecond: cfg.Scanner.FramesPerSecond,
		Burst:           cfg.Scanner.FrameBurst,
	}, cfg.Scanner.IdleTimeout, logger)
	scanUC := usecase.NewScanUC(a.sessions, decoder, productUC, cfg.Scanner.MaxFrameSize, m, logger)

	var localUC usecase.LocalProductUC
	if cfg.Local.Path != "" {
		localRepo, err := sqlite.Open(startCtx, cfg.Local.Path)
		if err != nil {
			return nil, e.Wrap("failed to open local store", err)
		}
		a.closer.Add("local store", func(context.Context) error { return localRepo.Close() })
		localUC = usecase.NewLocalProductUC(localRepo, logger)
		logger.Infof("local store enabled: %s", cfg.Local.Path)
	}

	a.worker = kafka.NewOutboxWorker(outboxRepo, logger, producer, m, cfg.Outbox, db.Dsn)

	a.closer.Add("image cleanup", imagesInfra.WaitForCleanup)
	a.closer.Add("cache writes", productUC.WaitForBackground)
	a.closer.Add("outbox worker", func(context.Context) error {
		a.worker.Stop()
		return nil
	})
	a.closer.Add("scan sessions", a.sessions.Close)

	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)
	a.health = v1Grpc.NewHealthReporter(a.grpcSrv.Health(), db, cfg.Grpc.HealthInterval, logger)
	a.closer.Add("gRPC server", a.grpcSrv.Stop)

	r := chi.NewRouter()
	v1Http.NewRouter(r, logger).Init(v1Http.Deps{
		ProductUC:    productUC,
		ScanUC:       scanUC,
		LocalUC:      localUC,
		Metrics:      m,
		MaxFrameSize: cfg.Scanner.MaxFrameSize,
		SwaggerURL:   cfg.Http.SwaggerURL,
	})
	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.closer.Add("HTTP server", a.httpSrv.Stop)

	return a, nil
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала или фатальной ошибки.
func (a *App) Run() error {
	a.worker.Start(a.bgCtx)
	go a.sessions.Run(a.bgCtx)
	go a.health.Run(a.bgCtx)

	errCh := make(chan error, 2)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			errCh <- e.Wrap("gRPC server failed", err)
		}
	}()
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- e.Wrap("HTTP server failed", err)
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	// === Корректное завершение ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.bgCancel()
	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
