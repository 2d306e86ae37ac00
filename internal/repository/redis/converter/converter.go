package converter

import "github.com/DRSN-tech/ferreteria-backend/internal/domain"

type ProductConverter interface {
	ToRedisModel(entity *domain.Product) *ProductRedisModel
	ToEntity(model *ProductRedisModel) *domain.Product
}

type productConverter struct{}

func NewProductConverter() ProductConverter {
	return productConverter{}
}

func (productConverter) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:        entity.ID,
		Barcode:   entity.Barcode,
		Name:      entity.Name,
		Price:     entity.Price,
		ImageKey:  entity.ImageKey,
		ImageType: entity.ImageType,
		CreatedAt: entity.CreatedAt,
	}
}

func (productConverter) ToEntity(model *ProductRedisModel) *domain.Product {
	return &domain.Product{
		ID:        model.ID,
		Barcode:   model.Barcode,
		Name:      model.Name,
		Price:     model.Price,
		ImageKey:  model.ImageKey,
		ImageType: model.ImageType,
		CreatedAt: model.CreatedAt,
	}
}
