package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSession(t *testing.T, srv *testServer, host, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions", strings.NewReader(body))
	req.Host = host
	req.Header.Set("Content-Type", "application/json")
	return srv.do(req)
}

func TestStartSessionInsecureContext(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	rec := startSession(t, srv, "shop.example.com", `{"client_id":"till-1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "use HTTPS/localhost")
}

func TestStartSessionBehindTLSProxy(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions", strings.NewReader(`{"client_id":"till-1"}`))
	req.Host = "shop.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, http.StatusCreated, srv.do(req).Code)
}

func TestStartSessionValidation(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	assert.Equal(t, http.StatusBadRequest, startSession(t, srv, "localhost:8080", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, startSession(t, srv, "localhost:8080", `{"client_id":"a","facing_mode":"sideways"}`).Code)
	assert.Equal(t, http.StatusBadRequest, startSession(t, srv, "localhost:8080", `{not json`).Code)
}

func TestStartSessionClientIDHeader(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions", nil)
	req.Host = "127.0.0.1:8080"
	req.Header.Set(clientIDHeader, "till-2")

	rec := srv.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "scanning", got.State)
	assert.Equal(t, "environment", got.FacingMode)
	assert.Equal(t, 3, got.Threshold)
}

func TestScanSessionConfirmsAndResolves(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC(hammer()))

	rec := startSession(t, srv, "localhost", `{"client_id":"till-1","facing_mode":"user"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sess SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	frame := pngBytes(t)
	submit := func() FrameDTO {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/frames", bytes.NewReader(frame))
		req.Header.Set("Content-Type", "image/png")
		rec := srv.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got FrameDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	first := submit()
	assert.Equal(t, "7501", first.Code)
	assert.Empty(t, first.Confirmed)
	assert.Nil(t, first.Result)

	submit()
	third := submit()
	assert.Equal(t, "7501", third.Confirmed)
	assert.Equal(t, "confirmed", third.State)
	require.NotNil(t, third.Result)
	assert.True(t, third.Result.Found)
	assert.Equal(t, "Martillo de acero", third.Result.Product.Name)

	// после подтверждения кадры не декодируются
	fourth := submit()
	assert.Empty(t, fourth.Confirmed)
	assert.Nil(t, fourth.Result)

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/restart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var restarted SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restarted))
	assert.Equal(t, "scanning", restarted.State)

	rec = srv.do(httptest.NewRequest(http.MethodDelete, "/api/v1/scan/sessions/"+sess.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/frames", bytes.NewReader(frame))
	assert.Equal(t, http.StatusNotFound, srv.do(req).Code)
}

func TestSubmitFrameMultipart(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	rec := startSession(t, srv, "localhost", `{"client_id":"till-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	body, ct := multipartBody(t, nil, map[string][]byte{"frame": pngBytes(t)})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/frames", body)
	req.Header.Set("Content-Type", ct)

	rec = srv.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got FrameDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Hits)
}

func TestSubmitFrameErrors(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	rec := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/nope/frames", bytes.NewReader(pngBytes(t))))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = startSession(t, srv, "localhost", `{"client_id":"till-1"}`)
	var sess SessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/frames", strings.NewReader("not an image")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte{1}, 1<<20+1)
	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/scan/sessions/"+sess.ID+"/frames", bytes.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestScanStill(t *testing.T) {
	srv := newTestServer(t, newFakeProductUC())

	rec := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/scan/still", bytes.NewReader(pngBytes(t))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got ScanResultDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Found)
	assert.Equal(t, "7501", got.Barcode)
	assert.Equal(t, "/register?barcode=7501", got.RegisterURL)
}
