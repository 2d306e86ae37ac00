package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ProductMetadata struct {
	Barcode string
	Name    string
	Price   int64
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// errorStatuses проверяется по порядку, первое совпадение побеждает.
var errorStatuses = []struct {
	err  error
	code int
}{
	{e.ErrStatusBadRequest, http.StatusBadRequest},
	{e.ErrExpectedMultipart, http.StatusBadRequest},
	{e.ErrMissingFields, http.StatusBadRequest},
	{e.ErrBarcodeRequired, http.StatusBadRequest},
	{e.ErrClientIDRequired, http.StatusBadRequest},
	{e.ErrInvalidPrice, http.StatusBadRequest},
	{e.ErrPricePrecision, http.StatusBadRequest},
	{e.ErrInvalidID, http.StatusBadRequest},
	{e.ErrInvalidPaging, http.StatusBadRequest},
	{e.ErrInvalidFrame, http.StatusBadRequest},
	{e.ErrUnknownFacingMode, http.StatusBadRequest},

	{e.ErrInsecureContext, http.StatusForbidden},

	{e.ErrProductNotFound, http.StatusNotFound},
	{e.ErrSessionNotFound, http.StatusNotFound},

	{e.ErrDuplicateBarcode, http.StatusConflict},
	{e.ErrRegistrationInProgress, http.StatusConflict},
	{e.ErrSessionClosed, http.StatusConflict},
	{e.ErrInvalidTransition, http.StatusConflict},

	{e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{e.ErrFrameTooLarge, http.StatusRequestEntityTooLarge},
	{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{e.ErrNoCodeFound, http.StatusUnprocessableEntity},
	{e.ErrFrameRateExceeded, http.StatusTooManyRequests},

	{e.ErrLookupFailed, http.StatusBadGateway},

	{e.ErrCameraUnavailable, http.StatusServiceUnavailable},
	{e.ErrDecoderUnavailable, http.StatusServiceUnavailable},
	{e.ErrLocalStoreDisabled, http.StatusServiceUnavailable},
}

// ToHTTPResponse переводит ошибку в HTTP-статус и безопасное для клиента сообщение.
func ToHTTPResponse(err error) (int, string) {
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.code, es.err.Error()
		}
	}

	return http.StatusInternalServerError, e.ErrInternalServerError.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToCents переводит значение формы вида "599.99", "600" или "0" в сентаво.
func parsePriceToCents(s string) (int64, error) {
	return domain.ParsePrice(s)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrStatusBadRequest, err))
	}

	return nil
}

func parseProductForm(r *http.Request) (*ProductMetadata, error) {
	barcode := strings.TrimSpace(r.FormValue("barcode"))
	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := r.FormValue("price")

	if barcode == "" || name == "" || strings.TrimSpace(priceStr) == "" {
		return nil, e.Wrap(fmt.Sprintf("barcode: %q, name: %q, price: %q", barcode, name, priceStr), e.ErrMissingFields)
	}

	priceCents, err := parsePriceToCents(priceStr)
	if err != nil {
		return nil, err
	}

	return &ProductMetadata{
		Barcode: barcode,
		Name:    name,
		Price:   priceCents,
	}, nil
}

// parseImage читает необязательный файл из поля field. Отсутствие файла — (nil, nil).
func parseImage(r *http.Request, field string) (*usecase.ProductImage, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}

	data, mimeType, err := readFile(files[0], usecase.MaxImageSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), files[0].Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if fh.Size > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}

// readFrame достаёт кадр из тела запроса: multipart-поле "frame" либо сырое изображение.
func readFrame(r *http.Request, maxSize int64) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := ensureMultipartForm(r, maxSize); err != nil {
			return nil, err
		}
		files := r.MultipartForm.File["frame"]
		if len(files) == 0 {
			return nil, e.Wrap("frame", e.ErrMissingFields)
		}
		data, _, err := readFile(files[0], maxSize)
		if err != nil && errors.Is(err, e.ErrFileTooLarge) {
			return nil, e.ErrFrameTooLarge
		}
		return data, err
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxSize+1))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %w", e.ErrStatusBadRequest, err))
	}
	if int64(len(data)) > maxSize {
		return nil, e.ErrFrameTooLarge
	}
	if len(data) == 0 {
		return nil, e.Wrap("frame", e.ErrMissingFields)
	}

	return data, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidID
	}
	return id, nil
}

// parsePaging читает limit/offset. Пустые значения оставляют нули, остальное решает usecase.
func parsePaging(r *http.Request) (*usecase.ListProductsReq, error) {
	req := &usecase.ListProductsReq{}

	q := r.URL.Query()
	for name, dst := range map[string]*int{"limit": &req.Limit, "offset": &req.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, e.Wrap(name, e.ErrInvalidPaging)
		}
		*dst = v
	}

	return req, nil
}

// requestScheme учитывает TLS-терминацию на прокси.
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
