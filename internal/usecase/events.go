package usecase

import (
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewProductEvent собирает outbox-событие о товаре. Payload — protobuf Struct.
func NewProductEvent(eventType OutboxEventType, product *domain.Product) (*OutboxEvent, error) {
	now := time.Now().UTC()
	eventID := uuid.NewString()

	payload, err := structpb.NewStruct(map[string]interface{}{
		"event_id":    eventID,
		"event_type":  string(eventType),
		"occurred_at": now.Format(time.RFC3339Nano),
		"product": map[string]interface{}{
			"id":          product.ID,
			"barcode":     product.Barcode,
			"name":        product.Name,
			"price":       domain.FormatPrice(product.Price),
			"price_cents": product.Price,
			"image_key":   product.ImageKey,
			"image_type":  product.ImageType,
			"created_at":  product.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, err
	}

	data, err := proto.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: product.ID,
		Barcode:   product.Barcode,
		Payload:   data,
		Status:    Pending,
		CreatedAt: now,
	}, nil
}
