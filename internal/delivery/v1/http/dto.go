package http

import (
	"strconv"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/recommend"
	"github.com/DRSN-tech/ferreteria-backend/internal/scanner"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
)

type ProductDTO struct {
	ID         int64     `json:"id"`
	Barcode    string    `json:"barcode"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	PriceCents int64     `json:"price_cents"`
	ImageURL   string    `json:"image_url,omitempty"`
	ImageType  string    `json:"image_type,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type RecommendationDTO struct {
	Product ProductDTO `json:"product"`
	Score   int        `json:"score"`
}

type ScanResultDTO struct {
	Barcode         string              `json:"barcode"`
	Found           bool                `json:"found"`
	Product         *ProductDTO         `json:"product,omitempty"`
	Recommendations []RecommendationDTO `json:"recommendations,omitempty"`
	RegisterURL     string              `json:"register_url,omitempty"`
}

// NotFoundResponse — ответ на поиск неизвестного штрихкода.
type NotFoundResponse struct {
	ErrorResponse
	Barcode     string `json:"barcode"`
	RegisterURL string `json:"register_url"`
}

type SessionDTO struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	FacingMode string    `json:"facing_mode"`
	Threshold  int       `json:"threshold"`
	StartedAt  time.Time `json:"started_at"`
}

type FrameDTO struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Code      string         `json:"code,omitempty"`
	Hits      int            `json:"hits"`
	Confirmed string         `json:"confirmed,omitempty"`
	Result    *ScanResultDTO `json:"result,omitempty"`
}

type StartSessionRequest struct {
	ClientID   string `json:"client_id"`
	FacingMode string `json:"facing_mode"`
}

type LocalProductDTO struct {
	Barcode    string    `json:"barcode"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	PriceCents int64     `json:"price_cents"`
	ImageType  string    `json:"image_type,omitempty"`
	HasImage   bool      `json:"has_image"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewProductDTO(p *domain.Product) ProductDTO {
	dto := ProductDTO{
		ID:         p.ID,
		Barcode:    p.Barcode,
		Name:       p.Name,
		Price:      domain.FormatPrice(p.Price),
		PriceCents: p.Price,
		ImageType:  p.ImageType,
		CreatedAt:  p.CreatedAt,
	}
	if p.ImageKey != "" {
		dto.ImageURL = "/api/v1/products/" + strconv.FormatInt(p.ID, 10) + "/image"
	}
	return dto
}

func NewProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, NewProductDTO(&products[i]))
	}
	return out
}

func NewRecommendationDTOs(recs []recommend.Recommendation) []RecommendationDTO {
	out := make([]RecommendationDTO, 0, len(recs))
	for i := range recs {
		out = append(out, RecommendationDTO{Product: NewProductDTO(&recs[i].Product), Score: recs[i].Score})
	}
	return out
}

func NewScanResultDTO(res *usecase.ScanResult) *ScanResultDTO {
	if res == nil {
		return nil
	}

	dto := &ScanResultDTO{
		Barcode:     res.Barcode,
		Found:       res.Found,
		RegisterURL: res.RegisterURL,
	}
	if res.Product != nil {
		p := NewProductDTO(res.Product)
		dto.Product = &p
		dto.Recommendations = NewRecommendationDTOs(res.Recommendations)
	}
	return dto
}

func NewSessionDTO(info *usecase.SessionInfo) SessionDTO {
	return SessionDTO{
		ID:         info.ID,
		State:      info.State.String(),
		FacingMode: info.FacingMode,
		Threshold:  info.Threshold,
		StartedAt:  info.StartedAt,
	}
}

func NewFrameDTO(res *usecase.FrameRes) FrameDTO {
	var attempt scanner.Attempt
	if res.Attempt != nil {
		attempt = *res.Attempt
	}

	return FrameDTO{
		SessionID: attempt.SessionID,
		State:     attempt.State.String(),
		Code:      attempt.Code,
		Hits:      attempt.Hits,
		Confirmed: attempt.Confirmed,
		Result:    NewScanResultDTO(res.Result),
	}
}

func NewLocalProductDTO(p *domain.LocalProduct) LocalProductDTO {
	return LocalProductDTO{
		Barcode:    p.Barcode,
		Name:       p.Name,
		Price:      domain.FormatPrice(p.Price),
		PriceCents: p.Price,
		ImageType:  p.ImageType,
		HasImage:   len(p.Image) > 0,
		CreatedAt:  p.CreatedAt,
	}
}

func NewLocalProductDTOs(products []domain.LocalProduct) []LocalProductDTO {
	out := make([]LocalProductDTO, 0, len(products))
	for i := range products {
		out = append(out, NewLocalProductDTO(&products[i]))
	}
	return out
}
