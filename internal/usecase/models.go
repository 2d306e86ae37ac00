package usecase

import (
	"net/url"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/recommend"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
)

// MaxImageSize — максимальный размер изображения товара (2 MiB).
const MaxImageSize = 2 << 20

// PRODUCT USECASE

// RegisterProductReq — запрос на регистрацию нового товара.
type RegisterProductReq struct {
	Barcode string
	Name    string
	Price   int64 // в сентаво
	Image   *ProductImage
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/webp)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// LookupRes — результат поиска по штрихкоду. Отсутствие товара не является ошибкой.
type LookupRes struct {
	Found   bool
	Product *domain.Product
}

// ScanResult — итог сканирования: найденный товар с рекомендациями либо ссылка на регистрацию.
type ScanResult struct {
	Barcode         string
	Found           bool
	Product         *domain.Product
	Recommendations []recommend.Recommendation
	RegisterURL     string
}

// ListProductsReq — постраничный запрос каталога.
type ListProductsReq struct {
	Limit  int
	Offset int
}

// SCAN USECASE

// StartSessionReq — запрос на открытие сессии сканирования.
type StartSessionReq struct {
	ClientID   string
	Scheme     string
	Host       string
	FacingMode string
}

// SessionInfo — состояние сессии для клиента.
type SessionInfo struct {
	ID         string
	State      scanner.State
	FacingMode string
	Threshold  int
	StartedAt  time.Time
}

// FrameRes — результат обработки одного кадра. Result заполнен только при подтверждении кода.
type FrameRes struct {
	Attempt *scanner.Attempt
	Result  *ScanResult
}

// INFRASTRUCTURE

// UploadImageReq — запрос на загрузку изображения товара.
type UploadImageReq struct {
	Name  string
	Image *ProductImage
}

// UploadImageRes — ключ загруженного объекта в MinIO.
type UploadImageRes struct {
	ImageKey string
}

// WriteRawMessageReq — готовое к отправке событие.
type WriteRawMessageReq struct {
	Key       string
	EventType OutboxEventType
	Payload   []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	Failed     OutboxStatus = "failed"
)

type OutboxEventType string

const (
	ProductRegistered OutboxEventType = "product.registered"
	ProductDeleted    OutboxEventType = "product.deleted"
)

// OutboxEvent — событие о товаре, которое воркер публикует в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Barcode     string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewLookupRes(product *domain.Product) *LookupRes {
	return &LookupRes{Found: product != nil, Product: product}
}

func NewFoundScanResult(product *domain.Product, recs []recommend.Recommendation) *ScanResult {
	return &ScanResult{
		Barcode:         product.Barcode,
		Found:           true,
		Product:         product,
		Recommendations: recs,
	}
}

func NewNotFoundScanResult(barcode string) *ScanResult {
	return &ScanResult{
		Barcode:     barcode,
		RegisterURL: RegisterURL(barcode),
	}
}

// RegisterURL строит ссылку на форму регистрации с предзаполненным штрихкодом.
func RegisterURL(barcode string) string {
	return "/register?barcode=" + url.QueryEscape(barcode)
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewRegisterProductReq(barcode, name string, price int64, image *ProductImage) *RegisterProductReq {
	return &RegisterProductReq{
		Barcode: barcode,
		Name:    name,
		Price:   price,
		Image:   image,
	}
}

func NewUploadImageReq(name string, image *ProductImage) *UploadImageReq {
	return &UploadImageReq{Name: name, Image: image}
}

func NewUploadImageRes(key string) *UploadImageRes {
	return &UploadImageRes{ImageKey: key}
}

func NewWriteRawMessageReq(key string, eventType OutboxEventType, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{Key: key, EventType: eventType, Payload: payload}
}

func NewSessionInfo(sess *scanner.Session) *SessionInfo {
	return &SessionInfo{
		ID:         sess.ID(),
		State:      sess.State(),
		FacingMode: sess.Capture().FacingMode,
		Threshold:  sess.Threshold(),
		StartedAt:  sess.StartedAt(),
	}
}
