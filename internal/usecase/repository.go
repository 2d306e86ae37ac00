package usecase

import (
	"context"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
)

// ProductRepository — каталог товаров. Get* возвращают e.ErrProductNotFound при отсутствии записи.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	ExistsByBarcode(ctx context.Context, barcode string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id int64) (*domain.Product, error)
}

// CacheRepository — кэш товаров по штрихкоду. Промах — (nil, nil).
type CacheRepository interface {
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, barcode string) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Get(ctx context.Context, key string) (*domain.Image, error)
	Delete(ctx context.Context, key string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsRetry(ctx context.Context, id int64, maxRetries int) error
}

// LocalProductRepository — локальное хранилище, ключ — штрихкод.
type LocalProductRepository interface {
	Get(ctx context.Context, barcode string) (*domain.LocalProduct, error)
	Put(ctx context.Context, product *domain.LocalProduct) error
	GetAll(ctx context.Context) ([]domain.LocalProduct, error)
	Delete(ctx context.Context, barcode string) error
	Clear(ctx context.Context) error
}
