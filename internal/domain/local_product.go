package domain

import "time"

// LocalProduct — товар локального офлайн-хранилища, ключ — штрихкод.
type LocalProduct struct {
	Barcode   string
	Name      string
	Price     int64
	Image     []byte
	ImageType string
	CreatedAt time.Time
}
