package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOutbox struct {
	mu        sync.Mutex
	events    map[int64]*usecase.OutboxEvent
	order     []int64
	processed []int64
	retried   []int64
}

func newMemOutbox(events ...*usecase.OutboxEvent) *memOutbox {
	m := &memOutbox{events: map[int64]*usecase.OutboxEvent{}}
	for _, ev := range events {
		ev.Status = usecase.Pending
		m.events[ev.ID] = ev
		m.order = append(m.order, ev.ID)
	}
	return m
}

func (m *memOutbox) Create(_ context.Context, ev *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = int64(len(m.order) + 1)
	ev.Status = usecase.Pending
	m.events[ev.ID] = ev
	m.order = append(m.order, ev.ID)
	return ev, nil
}

func (m *memOutbox) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*usecase.OutboxEvent
	for _, id := range m.order {
		ev := m.events[id]
		if ev.Status != usecase.Pending {
			continue
		}
		ev.Status = usecase.Processing
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memOutbox) MarkAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[id].Status = usecase.Processed
	m.processed = append(m.processed, id)
	return nil
}

func (m *memOutbox) MarkAsRetry(_ context.Context, id int64, maxRetries int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := m.events[id]
	ev.Attempts++
	if ev.Attempts >= maxRetries {
		ev.Status = usecase.Failed
	} else {
		ev.Status = usecase.Pending
	}
	m.retried = append(m.retried, id)
	return nil
}

func (m *memOutbox) status(id int64) usecase.OutboxStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].Status
}

type fakeProducer struct {
	mu    sync.Mutex
	fails int
	err   error
	sent  []*usecase.WriteRawMessageReq
}

func (p *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fails > 0 {
		p.fails--
		return p.err
	}
	p.sent = append(p.sent, req)
	return nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func event(id int64, barcode string) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:        id,
		EventID:   "ev-" + barcode,
		EventType: usecase.ProductRegistered,
		Barcode:   barcode,
		Payload:   []byte(barcode),
	}
}

func newTestWorker(repo usecase.OutboxRepository, producer usecase.MessageProducer, batch, maxRetries int) *OutboxWorker {
	return NewOutboxWorker(repo, logger.NewNopLogger(), producer, metrics.New(), &cfg.OutboxCfg{
		BatchSize:    batch,
		PollInterval: 20 * time.Millisecond,
		MaxRetries:   maxRetries,
	}, "")
}

func TestProcessBatchPublishesWithBarcodeKey(t *testing.T) {
	repo := newMemOutbox(event(1, "7501"), event(2, "7502"))
	producer := &fakeProducer{}
	w := newTestWorker(repo, producer, 10, 3)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)

	require.Len(t, producer.sent, 2)
	assert.Equal(t, "7501", producer.sent[0].Key)
	assert.Equal(t, usecase.ProductRegistered, producer.sent[0].EventType)
	assert.Equal(t, []int64{1, 2}, repo.processed)
	assert.Equal(t, usecase.Processed, repo.status(1))
}

func TestProcessBatchFullBatchReportsMore(t *testing.T) {
	repo := newMemOutbox(event(1, "a"), event(2, "b"), event(3, "c"))
	w := newTestWorker(repo, &fakeProducer{}, 2, 3)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, hasMore)

	hasMore, err = w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, repo.processed, 3)
}

func TestProcessBatchFailureGoesBackToPending(t *testing.T) {
	repo := newMemOutbox(event(1, "7501"))
	producer := &fakeProducer{fails: 1, err: errors.New("dial tcp: connection refused")}
	w := newTestWorker(repo, producer, 1, 3)

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore, "failed batch must not spin")
	assert.Equal(t, []int64{1}, repo.retried)
	assert.Equal(t, usecase.Pending, repo.status(1))

	_, err = w.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, usecase.Processed, repo.status(1))
}

func TestProcessBatchGivesUpAfterMaxRetries(t *testing.T) {
	repo := newMemOutbox(event(1, "7501"))
	producer := &fakeProducer{fails: 10, err: errors.New("message too large")}
	w := newTestWorker(repo, producer, 5, 2)

	for i := 0; i < 3; i++ {
		_, err := w.processBatch(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, usecase.Failed, repo.status(1))
	assert.Len(t, repo.retried, 2)
	assert.Zero(t, producer.count())
}

func TestWorkerPollsWithoutListener(t *testing.T) {
	repo := newMemOutbox()
	producer := &fakeProducer{}
	w := newTestWorker(repo, producer, 10, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	_, err := repo.Create(ctx, event(0, "7501"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return producer.count() == 1 }, time.Second, 5*time.Millisecond)
	w.Stop()
}

func TestWorkerWake(t *testing.T) {
	repo := newMemOutbox()
	producer := &fakeProducer{}
	w := newTestWorker(repo, producer, 10, 3)
	w.cfg.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	_, err := repo.Create(ctx, event(0, "7501"))
	require.NoError(t, err)
	w.Wake()

	assert.Eventually(t, func() bool { return producer.count() == 1 }, time.Second, 5*time.Millisecond)
	w.Stop()
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp 127.0.0.1:9092: i/o timeout")))
	assert.True(t, isRetryableError(errors.New("Broker Not Available")))
	assert.False(t, isRetryableError(errors.New("message too large")))
	assert.False(t, isRetryableError(nil))
}

func TestNewMessageHeaders(t *testing.T) {
	msg := NewMessage(usecase.NewWriteRawMessageReq("7501", usecase.ProductDeleted, []byte("x")))
	assert.Equal(t, []byte("7501"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, eventTypeHeader, msg.Headers[0].Key)
	assert.Equal(t, "product.deleted", string(msg.Headers[0].Value))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(logger.NewNopLogger(), &cfg.KafkaCfg{Topic: "products"})
	assert.Error(t, err)
}
