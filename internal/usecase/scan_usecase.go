package usecase

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
)

// ScanUseCase связывает сессии сканирования с поиском товаров.
type ScanUseCase struct {
	sessions     *scanner.Manager
	decoder      scanner.Decoder
	products     ProductUC
	maxFrameSize int64
	metrics      *metrics.Metrics
	logger       logger.Logger
}

func NewScanUC(
	sessions *scanner.Manager,
	decoder scanner.Decoder,
	products ProductUC,
	maxFrameSize int64,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		sessions:     sessions,
		decoder:      decoder,
		products:     products,
		maxFrameSize: maxFrameSize,
		metrics:      metrics,
		logger:       logger,
	}
}

// StartSession открывает сессию. Камера доступна только в защищённом контексте;
// предыдущая сессия того же клиента освобождается.
func (s *ScanUseCase) StartSession(ctx context.Context, req *StartSessionReq) (*SessionInfo, error) {
	const op = "ScanUseCase.StartSession"

	if err := scanner.CheckSecureContext(req.Scheme, req.Host); err != nil {
		return nil, e.Wrap(op, err)
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return nil, e.Wrap(op, e.ErrClientIDRequired)
	}

	sess, err := s.sessions.Start(clientID, scanner.CaptureRequest{FacingMode: req.FacingMode})
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	s.metrics.SetActiveSessions(s.sessions.Active())

	s.logger.Debugf("%s: session %s opened for client %s", op, sess.ID(), clientID)
	return NewSessionInfo(sess), nil
}

// SubmitFrame выполняет одну попытку распознавания. При подтверждении кода товар
// ищется сразу, и результат возвращается вместе с попыткой.
func (s *ScanUseCase) SubmitFrame(ctx context.Context, sessionID string, frame []byte) (*FrameRes, error) {
	const op = "ScanUseCase.SubmitFrame"

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	img, err := s.decodeFrame(frame)
	if err != nil {
		s.metrics.Frame(metrics.ResultRejected)
		return nil, e.Wrap(op, err)
	}

	attempt, err := sess.Submit(ctx, img)
	if err != nil {
		if errors.Is(err, e.ErrFrameRateExceeded) || errors.Is(err, e.ErrSessionClosed) {
			s.metrics.Frame(metrics.ResultRejected)
		}
		return nil, e.Wrap(op, err)
	}

	if attempt.Code == "" {
		s.metrics.Frame(metrics.ResultEmpty)
	} else {
		s.metrics.Frame(metrics.ResultDecoded)
	}

	res := &FrameRes{Attempt: attempt}
	if attempt.Confirmed == "" {
		return res, nil
	}

	s.metrics.Confirmed()
	res.Result, err = s.products.ResolveBarcode(ctx, attempt.Confirmed)
	if err != nil {
		// код не считается подтверждённым, пока товар не найден или не признан отсутствующим
		if sess.Reject(attempt.Confirmed) {
			s.logger.Warnf("%s: confirmation of %s in session %s rolled back: %v", op, attempt.Confirmed, sess.ID(), err)
		}
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// Restart возобновляет сканирование после подтверждения.
func (s *ScanUseCase) Restart(ctx context.Context, sessionID string) (*SessionInfo, error) {
	const op = "ScanUseCase.Restart"

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := sess.Restart(); err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewSessionInfo(sess), nil
}

// Stop закрывает сессию и освобождает источник кадров.
func (s *ScanUseCase) Stop(ctx context.Context, sessionID string) error {
	const op = "ScanUseCase.Stop"

	if err := s.sessions.Stop(sessionID); err != nil {
		return e.Wrap(op, err)
	}
	s.metrics.SetActiveSessions(s.sessions.Active())

	return nil
}

// ScanStill распознаёт код на одном снимке, без подтверждения несколькими кадрами.
func (s *ScanUseCase) ScanStill(ctx context.Context, frame []byte) (*ScanResult, error) {
	const op = "ScanUseCase.ScanStill"

	if s.decoder == nil {
		return nil, e.Wrap(op, e.ErrDecoderUnavailable)
	}

	img, err := s.decodeFrame(frame)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	code, ok, err := s.decoder.Decode(img)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if !ok {
		return nil, e.Wrap(op, e.ErrNoCodeFound)
	}

	res, err := s.products.ResolveBarcode(ctx, code)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

func (s *ScanUseCase) decodeFrame(frame []byte) (image.Image, error) {
	if s.maxFrameSize > 0 && int64(len(frame)) > s.maxFrameSize {
		return nil, e.ErrFrameTooLarge
	}

	return scanner.DecodeFrame(frame)
}
