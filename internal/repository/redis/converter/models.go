package converter

import "time"

type ProductRedisModel struct {
	ID        int64     `json:"id"`
	Barcode   string    `json:"barcode"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	ImageKey  string    `json:"image_key"`
	ImageType string    `json:"image_type"`
	CreatedAt time.Time `json:"created_at"`
}
