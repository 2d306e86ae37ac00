package usecase

import (
	"context"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/recommend"
)

type ProductUC interface {
	LookupByBarcode(ctx context.Context, barcode string) (*LookupRes, error)
	ResolveBarcode(ctx context.Context, barcode string) (*ScanResult, error)
	Recommendations(ctx context.Context, id int64) ([]recommend.Recommendation, error)
	RegisterProduct(ctx context.Context, req *RegisterProductReq) (*domain.Product, error)
	ListProducts(ctx context.Context, req *ListProductsReq) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductImage(ctx context.Context, id int64) (*domain.Image, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ScanUC interface {
	StartSession(ctx context.Context, req *StartSessionReq) (*SessionInfo, error)
	SubmitFrame(ctx context.Context, sessionID string, frame []byte) (*FrameRes, error)
	Restart(ctx context.Context, sessionID string) (*SessionInfo, error)
	Stop(ctx context.Context, sessionID string) error
	ScanStill(ctx context.Context, frame []byte) (*ScanResult, error)
}

type LocalProductUC interface {
	Get(ctx context.Context, barcode string) (*domain.LocalProduct, error)
	Put(ctx context.Context, product *domain.LocalProduct) error
	List(ctx context.Context) ([]domain.LocalProduct, error)
	Delete(ctx context.Context, barcode string) error
	Clear(ctx context.Context) error
}
