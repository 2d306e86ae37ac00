package scanner

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"golang.org/x/time/rate"
)

// SessionOptions — настройки сессии сканирования.
type SessionOptions struct {
	Threshold       int
	FramesPerSecond float64 // <= 0 — без ограничения
	Burst           int
	Capture         CaptureRequest
}

// Attempt — результат одной попытки распознавания.
type Attempt struct {
	SessionID string
	State     State
	Code      string // код из этого кадра, "" если нет
	Hits      int
	Confirmed string // только на подтвердившем кадре
}

// Session — сканирование одного клиента: декодер, дебаунсер и лимит кадров.
type Session struct {
	id       string
	clientID string
	capture  CaptureRequest
	decoder  Decoder

	mu        sync.Mutex
	debouncer *Debouncer
	limiter   *rate.Limiter
	source    Source
	closed    bool
	startedAt time.Time
	lastSeen  time.Time
	now       func() time.Time
}

// NewSession создаёт сессию сразу в состоянии Scanning.
func NewSession(id, clientID string, decoder Decoder, opts SessionOptions) (*Session, error) {
	if decoder == nil {
		return nil, e.ErrDecoderUnavailable
	}

	capture, err := opts.Capture.Normalize()
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.FramesPerSecond > 0 {
		limit = rate.Limit(opts.FramesPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	s := &Session{
		id:        id,
		clientID:  clientID,
		capture:   capture,
		decoder:   decoder,
		debouncer: NewDebouncer(opts.Threshold),
		limiter:   rate.NewLimiter(limit, burst),
		now:       time.Now,
	}
	s.startedAt = s.now()
	s.lastSeen = s.startedAt

	if err := s.debouncer.Start(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) ClientID() string {
	return s.clientID
}

func (s *Session) Capture() CaptureRequest {
	return s.capture
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debouncer.State()
}

func (s *Session) Threshold() int {
	return s.debouncer.Threshold()
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Attach передаёт сессии источник кадров, Stop его закроет.
func (s *Session) Attach(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = src
}

// Submit выполняет одну попытку. После подтверждения кадры не декодируются до Restart.
func (s *Session) Submit(ctx context.Context, img image.Image) (*Attempt, error) {
	const op = "Session.Submit"

	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, e.Wrap(op, e.ErrSessionClosed)
	}
	if !s.limiter.Allow() {
		return nil, e.Wrap(op, e.ErrFrameRateExceeded)
	}
	s.lastSeen = s.now()

	attempt := &Attempt{SessionID: s.id, State: s.debouncer.State()}
	if attempt.State != StateScanning {
		return attempt, nil
	}

	code, ok, err := s.decoder.Decode(img)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !ok {
		return attempt, nil
	}

	obs := s.debouncer.Observe(code)
	attempt.Code = code
	attempt.Hits = obs.Hits
	attempt.State = s.debouncer.State()
	if obs.Confirmed {
		attempt.Confirmed = code
	}

	return attempt, nil
}

// Restart возобновляет сканирование после подтверждения.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return e.ErrSessionClosed
	}
	s.lastSeen = s.now()
	return s.debouncer.Restart()
}

// Reject отменяет подтверждение code, результат которого не удалось получить.
func (s *Session) Reject(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.debouncer.Reject(code)
}

// Stop освобождает сессию и источник. Повторный вызов безопасен.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.debouncer.Stop()

	if s.source != nil {
		err := s.source.Close()
		s.source = nil
		return err
	}

	return nil
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
