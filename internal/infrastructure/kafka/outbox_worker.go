package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/jitter"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// OutboxWorker переносит события из outbox_events в Kafka.
// Просыпается по NOTIFY outbox_pending и по таймеру на случай потерянных уведомлений.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	metrics   *metrics.Metrics
	cfg       *cfg.OutboxCfg
	stop      chan struct{}
	wake      chan struct{}
	wg        sync.WaitGroup
	dbConnStr string
	backoff   jitter.Backoff
}

// NewOutboxWorker создаёт воркер. Пустой dbConnStr отключает LISTEN, остаётся опрос по таймеру.
func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	metrics *metrics.Metrics,
	cfg *cfg.OutboxCfg,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger.With("component", "outbox_worker"),
		producer:  producer,
		metrics:   metrics,
		cfg:       cfg,
		stop:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
		dbConnStr: dbConnStr,
		backoff:   jitter.Backoff{Base: 2 * time.Second, Max: 30 * time.Second, Factor: jitter.DefaultJitter},
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	if w.dbConnStr == "" {
		return
	}

	// Запускаем слушатель уведомлений
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Wake просит воркер обработать очередь, не дожидаясь таймера.
func (w *OutboxWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-w.wake:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+pgdb.OutboxChannel); err != nil {
			conn.Close(ctx)
			conn = nil
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", pgdb.OutboxChannel)
		return nil
	}

	defer func() {
		if conn != nil {
			conn.Close(context.Background())
		}
	}()

	for attempt := 0; ; {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		if conn == nil {
			if err := connect(); err != nil {
				w.logger.Warnf("LISTEN connect failed: %v", err)
				if !w.backoff.Sleep(w.stop, attempt) {
					return
				}
				attempt++
				continue
			}
			attempt = 0
		}

		waitCtx, cancel := context.WithTimeout(ctx, w.cfg.PollInterval)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			conn.Close(ctx)
			conn = nil
			continue
		}

		if notif != nil && notif.Channel == pgdb.OutboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.Wake()
		}
	}
}

// processBatch публикует одну пачку. hasMore — пачка была полной и прошла без ошибок.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	failed := false
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			failed = true
			w.metrics.Outbox(metrics.ResultRetry)
			if isRetryableError(err) {
				w.logger.Warnf("event %s: %v", event.EventID, err)
			} else {
				w.logger.Errorf(err, "event %s", event.EventID)
			}

			if err := w.repo.MarkAsRetry(ctx, event.ID, w.cfg.MaxRetries); err != nil {
				w.logger.Warnf("mark retry failed: %v", err)
			}
			continue
		}

		w.metrics.Outbox(metrics.ResultPublished)
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return !failed && len(events) == w.cfg.BatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	req := usecase.NewWriteRawMessageReq(event.Barcode, event.EventType, event.Payload)
	if err := w.producer.WriteRawMessage(ctx, req); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary Kafka failure, will retry", err)
		}
		return e.Wrap("Permanent Kafka failure", err)
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
