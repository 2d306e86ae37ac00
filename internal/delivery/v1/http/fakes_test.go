package http

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/recommend"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeProductUC struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	lookupErr error
	images    map[int64]*domain.Image
	deleted   []int64
	listReq   *usecase.ListProductsReq
}

func newFakeProductUC(products ...*domain.Product) *fakeProductUC {
	f := &fakeProductUC{products: map[string]*domain.Product{}, images: map[int64]*domain.Image{}}
	for _, p := range products {
		f.products[p.Barcode] = p
	}
	return f
}

func (f *fakeProductUC) byID(id int64) *domain.Product {
	for _, p := range f.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakeProductUC) LookupByBarcode(_ context.Context, barcode string) (*usecase.LookupRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return usecase.NewLookupRes(f.products[barcode]), nil
}

func (f *fakeProductUC) ResolveBarcode(ctx context.Context, barcode string) (*usecase.ScanResult, error) {
	res, err := f.LookupByBarcode(ctx, barcode)
	if err != nil {
		return nil, e.Wrap("fake", err)
	}
	if !res.Found {
		return usecase.NewNotFoundScanResult(barcode), nil
	}
	return usecase.NewFoundScanResult(res.Product, f.recommendations(res.Product)), nil
}

func (f *fakeProductUC) recommendations(p *domain.Product) []recommend.Recommendation {
	all := make([]domain.Product, 0, len(f.products))
	for _, other := range f.products {
		all = append(all, *other)
	}
	return recommend.ForProduct(*p, all)
}

func (f *fakeProductUC) Recommendations(_ context.Context, id int64) ([]recommend.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID(id)
	if p == nil {
		return nil, e.ErrProductNotFound
	}
	return f.recommendations(p), nil
}

func (f *fakeProductUC) RegisterProduct(_ context.Context, req *usecase.RegisterProductReq) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.Image == nil {
		return nil, e.ErrMissingFields
	}
	if err := usecase.ValidateImage(req.Image); err != nil {
		return nil, err
	}
	if _, ok := f.products[req.Barcode]; ok {
		return nil, e.Wrap("fake", e.ErrDuplicateBarcode)
	}
	p := domain.NewProduct(req.Barcode, req.Name, req.Price, "products/x.png", req.Image.MimeType)
	p.ID = int64(len(f.products) + 1)
	p.CreatedAt = time.Now()
	f.products[p.Barcode] = p
	return p, nil
}

func (f *fakeProductUC) ListProducts(_ context.Context, req *usecase.ListProductsReq) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listReq = req
	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p := f.byID(id); p != nil {
		return p, nil
	}
	return nil, e.Wrap("fake", e.ErrProductNotFound)
}

func (f *fakeProductUC) GetProductImage(_ context.Context, id int64) (*domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if img, ok := f.images[id]; ok {
		return img, nil
	}
	return nil, e.ErrProductNotFound
}

func (f *fakeProductUC) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID(id)
	if p == nil {
		return e.ErrProductNotFound
	}
	delete(f.products, p.Barcode)
	f.deleted = append(f.deleted, id)
	return nil
}

type fixedDecoder struct{ code string }

func (d fixedDecoder) Decode(image.Image) (string, bool, error) {
	return d.code, d.code != "", nil
}

type memLocal struct {
	mu       sync.Mutex
	products map[string]domain.LocalProduct
}

func (m *memLocal) Get(_ context.Context, barcode string) (*domain.LocalProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[barcode]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &p, nil
}

func (m *memLocal) Put(_ context.Context, p *domain.LocalProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.Barcode] = *p
	return nil
}

func (m *memLocal) GetAll(_ context.Context) ([]domain.LocalProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LocalProduct, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memLocal) Delete(_ context.Context, barcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[barcode]; !ok {
		return e.ErrProductNotFound
	}
	delete(m.products, barcode)
	return nil
}

func (m *memLocal) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = map[string]domain.LocalProduct{}
	return nil
}

type testServer struct {
	handler  http.Handler
	products *fakeProductUC
	metrics  *metrics.Metrics
}

type serverOption func(*Deps)

func withLocal(uc usecase.LocalProductUC) serverOption {
	return func(d *Deps) { d.LocalUC = uc }
}

func newTestServer(t *testing.T, products *fakeProductUC, opts ...serverOption) *testServer {
	t.Helper()

	log := logger.NewNopLogger()
	m := metrics.New()
	decoder := fixedDecoder{code: "7501"}
	sessions := scanner.NewManager(decoder, scanner.SessionOptions{Threshold: 3}, time.Minute, log)

	deps := Deps{
		ProductUC:    products,
		ScanUC:       usecase.NewScanUC(sessions, decoder, products, 1<<20, m, log),
		Metrics:      m,
		MaxFrameSize: 1 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := chi.NewRouter()
	NewRouter(r, log).Init(deps)

	return &testServer{handler: r, products: products, metrics: m}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody собирает форму; files — имя поля -> содержимое.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func hammer() *domain.Product {
	return &domain.Product{ID: 1, Barcode: "7501", Name: "Martillo de acero", Price: 12550, ImageKey: "products/m.png", ImageType: "image/png"}
}

func mallet() *domain.Product {
	return &domain.Product{ID: 2, Barcode: "7502", Name: "Martillo de goma", Price: 9000}
}
