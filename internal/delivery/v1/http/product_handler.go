package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// registerNewProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Создаёт товар с изображением. Уже зарегистрированный штрихкод — 409.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			barcode	formData	string		true	"Штрихкод"
//	@Param			name	formData	string		true	"Название товара"
//	@Param			price	formData	number		true	"Цена, не более 2 знаков после запятой"
//	@Param			image	formData	file		true	"Изображение (jpeg, png, webp; до 2MB)"
//	@Success		201		{object}	ProductDTO
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Router			/products [post]
func (p *ProductHandler) registerNewProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = usecase.MaxImageSize + 1<<20
		maxMemory           = 4 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	image, err := parseImage(r, "image")
	if err != nil {
		p.logger.Warnf("image rejected: %s", err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.RegisterProduct(r.Context(), usecase.NewRegisterProductReq(prMeta.Barcode, prMeta.Name, prMeta.Price, image))
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, NewProductDTO(product))
}

// lookupByBarcode
//
//	@Summary	Поиск товара по штрихкоду
//	@Tags		products
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод"
//	@Success	200		{object}	ScanResultDTO
//	@Failure	404		{object}	NotFoundResponse
//	@Failure	502		{object}	ErrorResponse
//	@Router		/products/barcode/{barcode} [get]
func (p *ProductHandler) lookupByBarcode(w http.ResponseWriter, r *http.Request) {
	res, err := p.productUsecase.ResolveBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	if !res.Found {
		WriteSuccess(w, http.StatusNotFound, NotFoundResponse{
			ErrorResponse: *NewErrorResponse(http.StatusNotFound, e.ErrProductNotFound.Error()),
			Barcode:       res.Barcode,
			RegisterURL:   res.RegisterURL,
		})
		return
	}

	WriteSuccess(w, http.StatusOK, NewScanResultDTO(res))
}

// listProducts
//
//	@Summary	Каталог, новые товары первыми
//	@Tags		products
//	@Produce	json
//	@Param		limit	query		int	false	"1..100, по умолчанию 50"
//	@Param		offset	query		int	false	"Смещение"
//	@Success	200		{array}		ProductDTO
//	@Failure	400		{object}	ErrorResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, err := parsePaging(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	products, err := p.productUsecase.ListProducts(r.Context(), req)
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductDTOs(products))
}

// getProduct
//
//	@Summary	Товар по id
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID"
//	@Success	200	{object}	ProductDTO
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductDTO(product))
}

// getProductImage отдаёт изображение товара как есть.
//
//	@Summary	Изображение товара
//	@Tags		products
//	@Produce	image/jpeg,image/png,image/webp
//	@Param		id	path	int	true	"ID"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id}/image [get]
func (p *ProductHandler) getProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	image, err := p.productUsecase.GetProductImage(r.Context(), id)
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Bytes)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(image.Bytes)
}

// getRecommendations
//
//	@Summary	Похожие товары
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID"
//	@Success	200	{array}		RecommendationDTO
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id}/recommendations [get]
func (p *ProductHandler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	recs, err := p.productUsecase.Recommendations(r.Context(), id)
	if err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewRecommendationDTOs(recs))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Param		id	path	int	true	"ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logError(err)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logError пишет 5xx как ошибки, остальное как предупреждения.
func (p *ProductHandler) logError(err error) {
	logHandlerError(p.logger, err)
}

func logHandlerError(log logger.Logger, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError && !errors.Is(err, e.ErrLocalStoreDisabled) {
		log.Errorf(err, "request failed with %d", code)
		return
	}
	log.Warnf("%d: %s", code, err.Error())
}
