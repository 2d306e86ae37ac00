package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.ErrMissingFields, http.StatusBadRequest},
		{e.Wrap("op", e.ErrInvalidPrice), http.StatusBadRequest},
		{e.ErrInsecureContext, http.StatusForbidden},
		{e.Wrap("a", e.Wrap("b", e.ErrProductNotFound)), http.StatusNotFound},
		{e.ErrSessionNotFound, http.StatusNotFound},
		{e.ErrDuplicateBarcode, http.StatusConflict},
		{e.ErrRegistrationInProgress, http.StatusConflict},
		{e.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{e.ErrFrameTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: image/gif", e.ErrUnsupportedMediaType), http.StatusUnsupportedMediaType},
		{e.ErrNoCodeFound, http.StatusUnprocessableEntity},
		{e.ErrFrameRateExceeded, http.StatusTooManyRequests},
		{fmt.Errorf("%w: %w", e.ErrLookupFailed, errors.New("conn refused")), http.StatusBadGateway},
		{e.ErrDecoderUnavailable, http.StatusServiceUnavailable},
		{e.ErrCameraUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, _ := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestToHTTPResponseHidesInternals(t *testing.T) {
	code, msg := ToHTTPResponse(errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, e.ErrInternalServerError.Error(), msg)

	_, msg = ToHTTPResponse(e.Wrap("ScanUseCase.StartSession", e.ErrInsecureContext))
	assert.Contains(t, msg, "use HTTPS/localhost")
}

func TestParsePriceToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  error
	}{
		{"12.50", 1250, nil},
		{"600", 60000, nil},
		{"0", 0, nil},
		{" 0.99 ", 99, nil},
		{"12.500", 1250, nil},
		{"12.345", 0, e.ErrPricePrecision},
		{"-1", 0, e.ErrInvalidPrice},
		{"abc", 0, e.ErrInvalidPrice},
		{"1000000001", 0, e.ErrInvalidPrice},
		{"", 0, e.ErrMissingFields},
	}

	for _, tt := range tests {
		got, err := parsePriceToCents(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRequestScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "http", requestScheme(r))

	r.Header.Set("X-Forwarded-Proto", "HTTPS, http")
	assert.Equal(t, "https", requestScheme(r))
}

func TestParsePaging(t *testing.T) {
	req, err := parsePaging(httptest.NewRequest(http.MethodGet, "/?limit=10&offset=20", nil))
	require.NoError(t, err)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, 20, req.Offset)

	_, err = parsePaging(httptest.NewRequest(http.MethodGet, "/?limit=x", nil))
	assert.ErrorIs(t, err, e.ErrInvalidPaging)

	_, err = parsePaging(httptest.NewRequest(http.MethodGet, "/?offset=-1", nil))
	assert.ErrorIs(t, err, e.ErrInvalidPaging)
}
