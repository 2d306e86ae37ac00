package scanner

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	_ "golang.org/x/image/webp"
)

// Decoder извлекает штрихкод из кадра. ok=false, если читаемого кода нет.
type Decoder interface {
	Decode(img image.Image) (code string, ok bool, err error)
}

// Format — символика, которую понимает ZXingDecoder.
type Format string

const (
	FormatEAN13   Format = "ean_13"
	FormatEAN8    Format = "ean_8"
	FormatUPCA    Format = "upc_a"
	FormatUPCE    Format = "upc_e"
	FormatCode128 Format = "code_128"
	FormatQR      Format = "qr_code"
)

// DefaultFormats — розничные символики и QR.
var DefaultFormats = []Format{FormatEAN13, FormatEAN8, FormatUPCA, FormatUPCE, FormatCode128, FormatQR}

var readerFactories = map[Format]func() gozxing.Reader{
	FormatEAN13:   func() gozxing.Reader { return oned.NewEAN13Reader() },
	FormatEAN8:    func() gozxing.Reader { return oned.NewEAN8Reader() },
	FormatUPCA:    func() gozxing.Reader { return oned.NewUPCAReader() },
	FormatUPCE:    func() gozxing.Reader { return oned.NewUPCEReader() },
	FormatCode128: func() gozxing.Reader { return oned.NewCode128Reader() },
	FormatQR:      func() gozxing.Reader { return qrcode.NewQRCodeReader() },
}

// ZXingDecoder по очереди пробует настроенные ридеры gozxing. Ридеры создаются на каждый
// вызов, поэтому один декодер используют все сессии.
type ZXingDecoder struct {
	formats []Format
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewZXingDecoder возвращает e.ErrDecoderUnavailable, если форматы не заданы.
func NewZXingDecoder(formats ...Format) (*ZXingDecoder, error) {
	if len(formats) == 0 {
		return nil, e.ErrDecoderUnavailable
	}

	for _, f := range formats {
		if _, ok := readerFactories[f]; !ok {
			return nil, fmt.Errorf("%w: unknown format %q", e.ErrDecoderUnavailable, f)
		}
	}

	return &ZXingDecoder{
		formats: formats,
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}, nil
}

// ParseFormats разбирает список через запятую, например "ean_13,qr_code".
func ParseFormats(list string) ([]Format, error) {
	var formats []Format
	for _, raw := range strings.Split(list, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(raw)))
		if f == "" {
			continue
		}
		if _, ok := readerFactories[f]; !ok {
			return nil, fmt.Errorf("unknown barcode format %q", raw)
		}
		formats = append(formats, f)
	}

	return formats, nil
}

func (z *ZXingDecoder) Decode(img image.Image) (string, bool, error) {
	if img == nil || img.Bounds().Empty() {
		return "", false, e.ErrInvalidFrame
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false, e.Wrap("ZXingDecoder.Decode", e.ErrInvalidFrame)
	}

	for _, f := range z.formats {
		reader := readerFactories[f]()
		result, err := reader.Decode(bmp, z.hints)
		if err != nil || result == nil {
			// NotFound, Format и Checksum означают «не эта символика»
			continue
		}

		if text := strings.TrimSpace(result.GetText()); text != "" {
			return text, true, nil
		}
	}

	return "", false, nil
}

// DecodeFrame декодирует JPEG, PNG, GIF или WebP.
func DecodeFrame(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, e.ErrInvalidFrame
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidFrame, err)
	}

	return img, nil
}
