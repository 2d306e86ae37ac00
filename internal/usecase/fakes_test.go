package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("connection refused")

type fakeProductRepo struct {
	mu             sync.Mutex
	products       []domain.Product
	nextID         int64
	byBarcodeCalls int
	getErr         error
	block          chan struct{}
}

func newFakeProductRepo(products ...domain.Product) *fakeProductRepo {
	r := &fakeProductRepo{}
	for _, p := range products {
		r.add(p)
	}
	return r
}

// add must be called with r.mu held or before the repo is shared.
func (r *fakeProductRepo) add(p domain.Product) *domain.Product {
	r.nextID++
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.nextID) * time.Minute)
	}
	r.products = append(r.products, p)
	cp := p
	return &cp
}

func (r *fakeProductRepo) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.products {
		if existing.Barcode == p.Barcode {
			return nil, e.ErrDuplicateBarcode
		}
	}
	return r.add(*p), nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, e.ErrProductNotFound
}

// GetByBarcode reads the row first and then waits on block, like a slow query whose
// snapshot was taken before later writes.
func (r *fakeProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	r.mu.Lock()
	r.byBarcodeCalls++
	block, getErr := r.block, r.getErr
	var found *domain.Product
	for _, p := range r.products {
		if p.Barcode == barcode {
			cp := p
			found = &cp
		}
	}
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if getErr != nil {
		return nil, getErr
	}
	if found == nil {
		return nil, e.ErrProductNotFound
	}
	return found, nil
}

func (r *fakeProductRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byBarcodeCalls
}

func (r *fakeProductRepo) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getErr = err
}

func (r *fakeProductRepo) ExistsByBarcode(ctx context.Context, barcode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Barcode == barcode {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	all, _ := r.ListAll(ctx)
	if offset >= len(all) {
		return []domain.Product{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

// ListAll returns the catalog newest first.
func (r *fakeProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Product, 0, len(r.products))
	for i := len(r.products) - 1; i >= 0; i-- {
		out = append(out, r.products[i])
	}
	return out, nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ID == id {
			r.products = append(r.products[:i:i], r.products[i+1:]...)
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (r *fakeProductRepo) snapshot() ([]domain.Product, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Product(nil), r.products...), r.nextID
}

func (r *fakeProductRepo) restore(products []domain.Product, nextID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products, r.nextID = products, nextID
}

type fakeCache struct {
	mu      sync.Mutex
	items   map[string]*domain.Product
	deleted []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*domain.Product)}
}

func (c *fakeCache) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.items[barcode], nil
}

func (c *fakeCache) SetProduct(ctx context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.Barcode] = p
	return nil
}

func (c *fakeCache) DeleteProduct(ctx context.Context, barcode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, barcode)
	c.deleted = append(c.deleted, barcode)
	return nil
}

func (c *fakeCache) get(barcode string) *domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[barcode]
}

type fakeImages struct {
	mu        sync.Mutex
	uploaded  map[string]*ProductImage
	cleaned   []string
	uploadErr error
}

func newFakeImages() *fakeImages {
	return &fakeImages{uploaded: make(map[string]*ProductImage)}
}

func (f *fakeImages) UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	key := "products/" + req.Name + ".webp"
	f.uploaded[key] = req.Image
	return NewUploadImageRes(key), nil
}

func (f *fakeImages) GetImage(ctx context.Context, key string) (*domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	img, ok := f.uploaded[key]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return domain.NewImage("", "product-images", key, img.Data, img.MimeType), nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

type fakeOutbox struct {
	mu        sync.Mutex
	events    []*OutboxEvent
	createErr error
}

func (o *fakeOutbox) Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.createErr != nil {
		return nil, o.createErr
	}
	event.ID = int64(len(o.events) + 1)
	o.events = append(o.events, event)
	return event, nil
}

func (o *fakeOutbox) GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutbox) MarkAsProcessed(ctx context.Context, id int64) error {
	return nil
}

func (o *fakeOutbox) MarkAsRetry(ctx context.Context, id int64, maxRetries int) error {
	return nil
}

func (o *fakeOutbox) snapshot() []*OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*OutboxEvent(nil), o.events...)
}

func (o *fakeOutbox) restore(events []*OutboxEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = events
}

// fakeTr rolls the fake stores back when fn fails.
type fakeTr struct {
	repo   *fakeProductRepo
	outbox *fakeOutbox
}

func (f *fakeTr) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	products, nextID := f.repo.snapshot()
	events := f.outbox.snapshot()

	if err := fn(ctx); err != nil {
		f.repo.restore(products, nextID)
		f.outbox.restore(events)
		return err
	}
	return nil
}

type fixture struct {
	uc     *ProductUseCase
	repo   *fakeProductRepo
	cache  *fakeCache
	images *fakeImages
	outbox *fakeOutbox
}

func newFixture(products ...domain.Product) *fixture {
	f := &fixture{
		repo:   newFakeProductRepo(products...),
		cache:  newFakeCache(),
		images: newFakeImages(),
		outbox: &fakeOutbox{},
	}
	f.uc = NewProductUC(
		f.repo, f.outbox, f.cache, f.images,
		&fakeTr{repo: f.repo, outbox: f.outbox},
		metrics.New(), logger.NewNopLogger(),
	)
	return f
}

func (f *fixture) waitBackground(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.uc.WaitForBackground(ctx))
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func webpImage(size int) *ProductImage {
	data := bytes.Repeat([]byte{0x1}, size)
	return NewProductImage(data, "image/webp", int64(size), "photo.webp")
}
