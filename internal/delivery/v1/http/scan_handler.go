package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const clientIDHeader = "X-Client-ID"

type ScanHandler struct {
	scanUsecase  usecase.ScanUC
	maxFrameSize int64
	logger       logger.Logger
}

func NewScanHandler(scanUsecase usecase.ScanUC, maxFrameSize int64, logger logger.Logger) *ScanHandler {
	return &ScanHandler{scanUsecase: scanUsecase, maxFrameSize: maxFrameSize, logger: logger}
}

// startSession открывает сессию сканирования. Повторный старт того же клиента закрывает предыдущую.
//
//	@Summary	Старт сканирования
//	@Tags		scan
//	@Accept		json
//	@Produce	json
//	@Param		request	body		StartSessionRequest	false	"client_id и facing_mode (environment|user)"
//	@Success	201		{object}	SessionDTO
//	@Failure	400		{object}	ErrorResponse
//	@Failure	403		{object}	ErrorResponse
//	@Router		/scan/sessions [post]
func (s *ScanHandler) startSession(w http.ResponseWriter, r *http.Request) {
	var body StartSessionRequest
	if r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, fmt.Errorf("%w: %w", e.ErrStatusBadRequest, err))
			return
		}
	}

	clientID := strings.TrimSpace(body.ClientID)
	if clientID == "" {
		clientID = strings.TrimSpace(r.Header.Get(clientIDHeader))
	}

	info, err := s.scanUsecase.StartSession(r.Context(), &usecase.StartSessionReq{
		ClientID:   clientID,
		Scheme:     requestScheme(r),
		Host:       r.Host,
		FacingMode: body.FacingMode,
	})
	if err != nil {
		logHandlerError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, NewSessionDTO(info))
}

// submitFrame
//
//	@Summary		Кадр с камеры
//	@Description	Тело — изображение (jpeg, png, gif, webp) либо multipart с полем frame.
//	@Tags			scan
//	@Accept			image/jpeg,image/png,image/webp,multipart/form-data
//	@Produce		json
//	@Param			id	path		string	true	"ID сессии"
//	@Success		200	{object}	FrameDTO
//	@Failure		404	{object}	ErrorResponse
//	@Failure		413	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse
//	@Router			/scan/sessions/{id}/frames [post]
func (s *ScanHandler) submitFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := readFrame(r, s.maxFrameSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := s.scanUsecase.SubmitFrame(r.Context(), chi.URLParam(r, "id"), frame)
	if err != nil {
		logHandlerError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewFrameDTO(res))
}

// restartSession
//
//	@Summary	Продолжить сканирование после подтверждения
//	@Tags		scan
//	@Produce	json
//	@Param		id	path		string	true	"ID сессии"
//	@Success	200	{object}	SessionDTO
//	@Router		/scan/sessions/{id}/restart [post]
func (s *ScanHandler) restartSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.scanUsecase.Restart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		logHandlerError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewSessionDTO(info))
}

// stopSession
//
//	@Summary	Остановить сканирование
//	@Tags		scan
//	@Param		id	path	string	true	"ID сессии"
//	@Success	204
//	@Router		/scan/sessions/{id} [delete]
func (s *ScanHandler) stopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.scanUsecase.Stop(r.Context(), chi.URLParam(r, "id")); err != nil {
		logHandlerError(s.logger, err)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// scanStill
//
//	@Summary	Распознать код на снимке
//	@Tags		scan
//	@Accept		image/jpeg,image/png,image/webp,multipart/form-data
//	@Produce	json
//	@Success	200	{object}	ScanResultDTO
//	@Failure	422	{object}	ErrorResponse
//	@Router		/scan/still [post]
func (s *ScanHandler) scanStill(w http.ResponseWriter, r *http.Request) {
	frame, err := readFrame(r, s.maxFrameSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := s.scanUsecase.ScanStill(r.Context(), frame)
	if err != nil {
		logHandlerError(s.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewScanResultDTO(res))
}
