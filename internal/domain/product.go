package domain

import (
	"strings"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// MaxPrice — верхняя граница цены, в песо.
const MaxPrice = 1_000_000_000

// Product описывает товар каталога
type Product struct {
	ID        int64
	Barcode   string
	Name      string
	Price     int64 // Цена хранится в сентаво
	ImageKey  string
	ImageType string
	CreatedAt time.Time
}

func NewProduct(barcode string, name string, price int64, imageKey string, imageType string) *Product {
	return &Product{
		Barcode:   barcode,
		Name:      name,
		Price:     price,
		ImageKey:  imageKey,
		ImageType: imageType,
	}
}

// FormatPrice переводит цену из сентаво в строку вида "12.50".
func FormatPrice(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParsePrice переводит строку вида "599.99", "600" или "0" в сентаво.
// Отрицательные, нечисловые и слишком большие значения — ErrInvalidPrice,
// больше двух значащих знаков после запятой — ErrPricePrecision.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrMissingFields
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(MaxPrice)) {
		return 0, e.ErrInvalidPrice
	}

	// "12.500" допустимо
	if !d.Equal(d.Truncate(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Shift(2).IntPart(), nil
}
