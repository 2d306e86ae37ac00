package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOCAL_STORE_PATH", "")
	t.Setenv("SCAN_CONFIRM_THRESHOLD", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func qrFrame(t *testing.T, dir, name, code string) string {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(code, gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	writePNG(t, path, matrix)
	return path
}

func blankFrame(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 60, 60))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	path := filepath.Join(dir, name)
	writePNG(t, path, img)
	return path
}

func TestLocalCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "store.db")

	out, err := run(t, "--db", db, "local", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No products")

	out, err = run(t, "--db", db, "local", "put", "7501", "--name", "Martillo de acero", "--price", "125.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 7501")

	_, err = run(t, "--db", db, "local", "put", "7502", "--name", "Mazo", "--price", "80")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "local", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Martillo de acero")
	assert.Contains(t, out, "125.50")
	assert.Contains(t, out, "80.00")
	assert.Less(t, bytes.Index([]byte(out), []byte("7501")), bytes.Index([]byte(out), []byte("7502")))

	out, err = run(t, "--db", db, "local", "get", "7502")
	require.NoError(t, err)
	assert.Contains(t, out, "Mazo")

	out, err = run(t, "--db", db, "local", "delete", "7502")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 7502")

	_, err = run(t, "--db", db, "local", "get", "7502")
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	_, err = run(t, "--db", db, "local", "clear")
	assert.Error(t, err)

	out, err = run(t, "--db", db, "local", "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	out, err = run(t, "--db", db, "local", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No products")
}

func TestLocalPutValidation(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")

	_, err := run(t, "--db", db, "local", "put", "7501", "--name", "Martillo", "--price", "1.999")
	assert.ErrorIs(t, err, e.ErrPricePrecision)

	_, err = run(t, "--db", db, "local", "put", "7501", "--name", "Martillo", "--price=-1")
	assert.ErrorIs(t, err, e.ErrInvalidPrice)

	_, err = run(t, "--db", db, "local", "put", "7501", "--price", "10")
	assert.Error(t, err)

	notImage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("just text"), 0o644))
	_, err = run(t, "--db", db, "local", "put", "7501", "--name", "Martillo", "--price", "10", "--image", notImage)
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestLocalPutWithImage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")
	img := blankFrame(t, dir, "photo.png")

	_, err := run(t, "--db", db, "local", "put", "7501", "--name", "Martillo", "--price", "10", "--image", img)
	require.NoError(t, err)

	out, err := run(t, "--db", db, "local", "get", "7501")
	require.NoError(t, err)
	assert.Contains(t, out, "image/png")
}

func TestScanConfirmsAndLooksUp(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "store.db")
	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.Mkdir(frames, 0o755))

	blankFrame(t, frames, "00.png")
	qrFrame(t, frames, "01.png", "7501")
	qrFrame(t, frames, "02.png", "7501")
	blankFrame(t, frames, "03.png")
	qrFrame(t, frames, "04.png", "7501")

	out, err := run(t, "--db", db, "scan", "--dir", frames, "--threshold", "3", "--formats", "qr_code", "--lookup", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Confirmed: 7501")
	assert.Contains(t, out, "frame 5:")
	assert.Contains(t, out, "/register?barcode=7501")

	_, err = run(t, "--db", db, "local", "put", "7501", "--name", "Martillo de acero", "--price", "125.50")
	require.NoError(t, err)

	out, err = run(t, "--db", db, "scan", "--dir", frames, "--threshold", "3", "--formats", "qr_code", "--lookup")
	require.NoError(t, err)
	assert.Contains(t, out, "Martillo de acero")
	assert.NotContains(t, out, "frame 1:")
}

func TestScanNotConfirmed(t *testing.T) {
	dir := t.TempDir()
	a := qrFrame(t, dir, "a.png", "7501")
	b := blankFrame(t, dir, "b.png")

	_, err := run(t, "scan", "--threshold", "3", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no barcode confirmed")
}

func TestScanStill(t *testing.T) {
	dir := t.TempDir()
	a := qrFrame(t, dir, "a.png", "7501")
	b := blankFrame(t, dir, "b.png")

	out, err := run(t, "scan", "--still", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "a.png")
	assert.Contains(t, out, "7501")

	_, err = run(t, "scan", "--still", b)
	assert.ErrorIs(t, err, e.ErrNoCodeFound)
}

func TestScanArguments(t *testing.T) {
	dir := t.TempDir()
	a := qrFrame(t, dir, "a.png", "7501")

	_, err := run(t, "scan")
	assert.Error(t, err)

	_, err = run(t, "scan", "--dir", dir, a)
	assert.Error(t, err)

	_, err = run(t, "scan", "--formats", "pdf_417", a)
	assert.Error(t, err)

	_, err = run(t, "scan", filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, e.ErrCameraUnavailable)
}
