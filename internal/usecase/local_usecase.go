package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
)

// LocalProductUseCase работает с локальным хранилищем. С удалённым каталогом не синхронизируется.
type LocalProductUseCase struct {
	repo   LocalProductRepository
	logger logger.Logger
	now    func() time.Time
}

func NewLocalProductUC(repo LocalProductRepository, logger logger.Logger) *LocalProductUseCase {
	return &LocalProductUseCase{repo: repo, logger: logger, now: time.Now}
}

func (l *LocalProductUseCase) Get(ctx context.Context, barcode string) (*domain.LocalProduct, error) {
	const op = "LocalProductUseCase.Get"

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, e.Wrap(op, e.ErrBarcodeRequired)
	}

	product, err := l.repo.Get(ctx, barcode)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// Put вставляет или заменяет товар по штрихкоду.
func (l *LocalProductUseCase) Put(ctx context.Context, product *domain.LocalProduct) error {
	const op = "LocalProductUseCase.Put"

	product.Barcode = strings.TrimSpace(product.Barcode)
	product.Name = strings.TrimSpace(product.Name)
	if product.Barcode == "" || product.Name == "" {
		return e.Wrap(op, e.ErrMissingFields)
	}
	if product.Price < 0 {
		return e.Wrap(op, e.ErrInvalidPrice)
	}
	if len(product.Image) > 0 {
		img := NewProductImage(product.Image, product.ImageType, int64(len(product.Image)), product.Barcode)
		if err := ValidateImage(img); err != nil {
			return e.Wrap(op, err)
		}
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = l.now().UTC()
	}

	if err := l.repo.Put(ctx, product); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (l *LocalProductUseCase) List(ctx context.Context) ([]domain.LocalProduct, error) {
	const op = "LocalProductUseCase.List"

	products, err := l.repo.GetAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

func (l *LocalProductUseCase) Delete(ctx context.Context, barcode string) error {
	const op = "LocalProductUseCase.Delete"

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return e.Wrap(op, e.ErrBarcodeRequired)
	}

	if err := l.repo.Delete(ctx, barcode); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

func (l *LocalProductUseCase) Clear(ctx context.Context) error {
	const op = "LocalProductUseCase.Clear"

	if err := l.repo.Clear(ctx); err != nil {
		return e.Wrap(op, err)
	}

	l.logger.Infof("local store cleared")
	return nil
}
