package minio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/cfg"
	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/infrastructure"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/jitter"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	keyPrefix      = "products"
	cleanupTimeout = 30 * time.Second
)

// MinioInfrastructure управляет загрузкой, чтением и очисткой изображений товаров.
type MinioInfrastructure struct {
	minioRepo   usecase.ImageRepository
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	backoff     jitter.Backoff
}

func NewMinioInfrastructure(minioRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		minioRepo:   minioRepo,
		cfg:         cfg,
		logger:      logger.With("component", "image_cleanup"),
		shutdownCtx: shutdownCtx,
		backoff:     jitter.Backoff{Base: time.Second, Max: 8 * time.Second, Factor: jitter.DefaultJitter},
	}
}

// UploadImage сохраняет изображение под ключом products/<slug(name)>-<uuid>.<ext>.
func (m *MinioInfrastructure) UploadImage(ctx context.Context, req *usecase.UploadImageReq) (*usecase.UploadImageRes, error) {
	const op = "MinioInfrastructure.UploadImage"

	ext, err := infrastructure.GetExtensionFromMIME(req.Image.MimeType)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("invalid mime type %s for %s: %w", req.Image.MimeType, req.Image.Name, err))
	}

	imageID := uuid.NewString()
	objKey := ObjectKey(req.Name, imageID, ext)
	image := domain.NewImage(imageID, m.cfg.BucketName, objKey, req.Image.Data, req.Image.MimeType)

	key, err := m.minioRepo.Upload(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("upload %s failed: %w", req.Image.Name, err))
	}

	return usecase.NewUploadImageRes(key), nil
}

func (m *MinioInfrastructure) GetImage(ctx context.Context, key string) (*domain.Image, error) {
	const op = "MinioInfrastructure.GetImage"

	image, err := m.minioRepo.Get(ctx, key)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return image, nil
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done() // сигнализируем завершение компенсации
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: Cleaning up %d uploaded key(s)", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	attempts := max(m.cfg.CleanupRetries, 1)
	for _, key := range keys {
		for attempt := 0; attempt < attempts; attempt++ {
			err := m.minioRepo.Delete(ctx, key)
			if err == nil {
				break // Успешно удалено
			}

			if attempt == attempts-1 {
				m.logger.Errorf(err, "%s: giving up on key=%s after %d attempts", op, key, attempts)
				break
			}

			if !m.backoff.Sleep(ctx.Done(), attempt) {
				m.logger.Warnf("cleanup interrupted by shutdown during backoff, key=%v", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения всех фоновых задач очистки с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

// ObjectKey строит ключ объекта из названия товара.
func ObjectKey(name, id, ext string) string {
	s := slug.Make(name)
	if s == "" {
		s = "product"
	}

	return fmt.Sprintf("%s/%s-%s.%s", keyPrefix, s, id, ext)
}
