package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/jitter"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu          sync.Mutex
	objects     map[string]*domain.Image
	deleteFails int
	deletes     int
}

func (f *fakeRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[image.ObjectKey] = image
	return image.ObjectKey, nil
}

func (f *fakeRepo) Get(ctx context.Context, key string) (*domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.objects[key]
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return img, nil
}

func (f *fakeRepo) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteFails > 0 {
		f.deleteFails--
		return errors.New("connection reset")
	}
	delete(f.objects, key)
	return nil
}

func newInfra(repo *fakeRepo, retries int) *MinioInfrastructure {
	m := NewMinioInfrastructure(repo, &cfg.MinIOCfg{BucketName: "product-images", CleanupRetries: retries}, logger.NewNopLogger(), context.Background())
	m.backoff = jitter.Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond}
	return m
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "products/martillo-de-acero-abc.webp", ObjectKey("Martillo de acero", "abc", "webp"))
	assert.Equal(t, "products/product-abc.png", ObjectKey("¡!", "abc", "png"))
}

func TestUploadAndGetImage(t *testing.T) {
	repo := &fakeRepo{objects: map[string]*domain.Image{}}
	m := newInfra(repo, 3)
	ctx := context.Background()

	res, err := m.UploadImage(ctx, usecase.NewUploadImageReq("Cinta Métrica", usecase.NewProductImage([]byte("img"), "image/webp", 3, "c.webp")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.ImageKey, "products/cinta-metrica-"), res.ImageKey)
	assert.True(t, strings.HasSuffix(res.ImageKey, ".webp"), res.ImageKey)

	img, err := m.GetImage(ctx, res.ImageKey)
	require.NoError(t, err)
	assert.Equal(t, "product-images", img.Bucket)
	assert.Equal(t, []byte("img"), img.Bytes)

	_, err = m.UploadImage(ctx, usecase.NewUploadImageReq("x", usecase.NewProductImage([]byte("x"), "image/gif", 1, "x.gif")))
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestCleanupRetriesWithBackoff(t *testing.T) {
	repo := &fakeRepo{objects: map[string]*domain.Image{"a": {}, "b": {}}, deleteFails: 2}
	m := newInfra(repo, 3)

	m.CleanupImages([]string{"a", "b"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.WaitForCleanup(ctx))

	assert.Empty(t, repo.objects)
	assert.Equal(t, 4, repo.deletes)
}

func TestCleanupGivesUp(t *testing.T) {
	repo := &fakeRepo{objects: map[string]*domain.Image{"a": {}}, deleteFails: 100}
	m := newInfra(repo, 2)

	m.CleanupImages([]string{"a"})
	m.CleanupImages(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.WaitForCleanup(ctx))

	assert.Equal(t, 2, repo.deletes)
	assert.Contains(t, repo.objects, "a")
}
