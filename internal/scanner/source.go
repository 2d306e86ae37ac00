package scanner

import (
	"context"
	"fmt"
	"image"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
)

// Source отдаёт кадры, пока не вернёт io.EOF.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	Close() error
}

const (
	FacingEnvironment = "environment" // тыловая камера
	FacingUser        = "user"
)

// CaptureRequest — как клиент хочет открыть камеру.
type CaptureRequest struct {
	FacingMode string
}

// Normalize подставляет тыловую камеру по умолчанию и отклоняет неизвестные режимы.
func (r CaptureRequest) Normalize() (CaptureRequest, error) {
	switch strings.ToLower(strings.TrimSpace(r.FacingMode)) {
	case "", FacingEnvironment:
		return CaptureRequest{FacingMode: FacingEnvironment}, nil
	case FacingUser:
		return CaptureRequest{FacingMode: FacingUser}, nil
	default:
		return r, fmt.Errorf("%w: %q", e.ErrUnknownFacingMode, r.FacingMode)
	}
}

var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// CheckSecureContext разрешает камеру только по https или с loopback-хоста.
func CheckSecureContext(scheme, host string) error {
	if strings.EqualFold(scheme, "https") {
		return nil
	}

	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.Trim(strings.ToLower(hostname), "[]")

	if loopbackHosts[hostname] {
		return nil
	}

	return e.ErrInsecureContext
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// FileSource читает снимки, по одному на кадр.
type FileSource struct {
	mu     sync.Mutex
	paths  []string
	next   int
	closed bool
}

// OpenFiles сразу возвращает e.ErrCameraUnavailable, если путь недоступен.
func OpenFiles(paths ...string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images given", e.ErrCameraUnavailable)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrCameraUnavailable, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", e.ErrCameraUnavailable, p)
		}
	}

	return &FileSource{paths: paths}, nil
}

// OpenDir открывает все изображения каталога dir в порядке имён.
func OpenDir(dir string) (*FileSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrCameraUnavailable, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return OpenFiles(paths...)
}

// Paths возвращает кадры в порядке чтения.
func (f *FileSource) Paths() []string {
	return append([]string(nil), f.paths...)
}

func (f *FileSource) Next(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.closed || f.next >= len(f.paths) {
		f.mu.Unlock()
		return nil, io.EOF
	}
	path := f.paths[f.next]
	f.next++
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrCameraUnavailable, err)
	}

	img, err := DecodeFrame(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return img, nil
}

func (f *FileSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
