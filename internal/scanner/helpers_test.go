package scanner

import (
	"bytes"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubDecoder returns the codes queued in order, then "no code".
type stubDecoder struct {
	mu    sync.Mutex
	codes []string
	calls int
	err   error
}

func (s *stubDecoder) Decode(img image.Image) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", false, s.err
	}
	if len(s.codes) == 0 {
		return "", false, nil
	}
	code := s.codes[0]
	s.codes = s.codes[1:]
	return code, code != "", nil
}

func repeat(code string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = code
	}
	return out
}

func blankImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

