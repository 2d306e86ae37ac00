package usecase

import (
	"context"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
)

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (*UploadImageRes, error)
	GetImage(ctx context.Context, key string) (*domain.Image, error)
	CleanupImages(keys []string)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
