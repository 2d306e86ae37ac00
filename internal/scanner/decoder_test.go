package scanner

import (
	"testing"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZXingDecoderReadsQRCode(t *testing.T) {
	matrix, err := qrcode.NewQRCodeWriter().Encode("7750182000017", gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)

	dec, err := NewZXingDecoder(DefaultFormats...)
	require.NoError(t, err)

	code, ok, err := dec.Decode(matrix)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7750182000017", code)
}

func TestZXingDecoderReadsCode128FromPNGFrame(t *testing.T) {
	matrix, err := oned.NewCode128Writer().Encode("FER-00042", gozxing.BarcodeFormat_CODE_128, 400, 120, nil)
	require.NoError(t, err)

	img, err := DecodeFrame(pngBytes(t, matrix))
	require.NoError(t, err)

	dec, err := NewZXingDecoder(FormatCode128)
	require.NoError(t, err)

	code, ok, err := dec.Decode(img)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FER-00042", code)
}

func TestZXingDecoderBlankImage(t *testing.T) {
	dec, err := NewZXingDecoder(DefaultFormats...)
	require.NoError(t, err)

	code, ok, err := dec.Decode(blankImage())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, code)
}

func TestNewZXingDecoderValidation(t *testing.T) {
	_, err := NewZXingDecoder()
	assert.ErrorIs(t, err, e.ErrDecoderUnavailable)

	_, err = NewZXingDecoder("pdf_417")
	assert.ErrorIs(t, err, e.ErrDecoderUnavailable)
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("EAN_13, qr_code,,")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatEAN13, FormatQR}, formats)

	_, err = ParseFormats("aztec")
	assert.Error(t, err)
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	_, err := DecodeFrame([]byte("not an image"))
	assert.ErrorIs(t, err, e.ErrInvalidFrame)

	_, err = DecodeFrame(nil)
	assert.ErrorIs(t, err, e.ErrInvalidFrame)
}
