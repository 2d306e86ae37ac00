package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/google/uuid"
)

// Manager держит не больше одной активной сессии на клиента.
type Manager struct {
	decoder     Decoder
	opts        SessionOptions
	idleTimeout time.Duration
	logger      logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byClient map[string]string
	now      func() time.Time
}

func NewManager(decoder Decoder, opts SessionOptions, idleTimeout time.Duration, logger logger.Logger) *Manager {
	return &Manager{
		decoder:     decoder,
		opts:        opts,
		idleTimeout: idleTimeout,
		logger:      logger.With("component", "scan_sessions"),
		sessions:    make(map[string]*Session),
		byClient:    make(map[string]string),
		now:         time.Now,
	}
}

// Start открывает сессию для clientID, предварительно останавливая предыдущую.
func (m *Manager) Start(clientID string, capture CaptureRequest) (*Session, error) {
	const op = "Manager.Start"

	opts := m.opts
	opts.Capture = capture

	sess, err := NewSession(uuid.NewString(), clientID, m.decoder, opts)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	sess.now = m.now
	sess.startedAt = m.now()
	sess.lastSeen = sess.startedAt

	m.mu.Lock()
	var previous *Session
	if prevID, ok := m.byClient[clientID]; ok {
		previous = m.sessions[prevID]
		delete(m.sessions, prevID)
	}
	m.sessions[sess.ID()] = sess
	m.byClient[clientID] = sess.ID()
	m.mu.Unlock()

	if previous != nil {
		if err := previous.Stop(); err != nil {
			m.logger.Warnf("%s: failed to release previous session %s: %v", op, previous.ID(), err)
		}
		m.logger.Debugf("%s: released previous session %s of client %s", op, previous.ID(), clientID)
	}

	return sess, nil
}

// Get возвращает активную сессию.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, e.ErrSessionNotFound
	}

	return sess, nil
}

// Stop останавливает и забывает сессию.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		m.forget(sess)
	}
	m.mu.Unlock()

	if !ok {
		return e.ErrSessionNotFound
	}

	return sess.Stop()
}

// Active — число живых сессий.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap останавливает сессии, простаивающие дольше idleTimeout, и возвращает их число.
func (m *Manager) Reap() int {
	if m.idleTimeout <= 0 {
		return 0
	}

	deadline := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []*Session
	for _, sess := range m.sessions {
		if sess.LastSeen().Before(deadline) {
			expired = append(expired, sess)
			m.forget(sess)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		if err := sess.Stop(); err != nil {
			m.logger.Warnf("failed to stop idle session %s: %v", sess.ID(), err)
		}
	}

	return len(expired)
}

// Run периодически вызывает Reap до отмены ctx.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Infof("reaped %d idle scan session(s)", n)
			}
		}
	}
}

// Close останавливает все сессии.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	clear(m.sessions)
	clear(m.byClient)
	m.mu.Unlock()

	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sess.Stop(); err != nil {
			m.logger.Warnf("failed to stop session %s: %v", sess.ID(), err)
		}
	}

	return nil
}

// forget вызывается под m.mu.
func (m *Manager) forget(sess *Session) {
	delete(m.sessions, sess.ID())
	if m.byClient[sess.ClientID()] == sess.ID() {
		delete(m.byClient, sess.ClientID())
	}
}
