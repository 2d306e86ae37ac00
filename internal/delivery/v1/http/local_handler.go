package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// LocalHandler обслуживает локальное хранилище. Без него все маршруты отвечают 503.
type LocalHandler struct {
	localUsecase usecase.LocalProductUC
	logger       logger.Logger
}

func NewLocalHandler(localUsecase usecase.LocalProductUC, logger logger.Logger) *LocalHandler {
	return &LocalHandler{localUsecase: localUsecase, logger: logger}
}

// enabled отвечает 503, если локальное хранилище не настроено.
func (l *LocalHandler) enabled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.localUsecase == nil {
			WriteError(w, e.ErrLocalStoreDisabled)
			return
		}
		next.ServeHTTP(w, r)
	})
}

//	@Summary	Локальные товары
//	@Tags		local
//	@Produce	json
//	@Success	200	{array}		LocalProductDTO
//	@Failure	503	{object}	ErrorResponse
//	@Router		/local/products [get]
func (l *LocalHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := l.localUsecase.List(r.Context())
	if err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewLocalProductDTOs(products))
}

//	@Summary	Локальный товар по штрихкоду
//	@Tags		local
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод"
//	@Success	200		{object}	LocalProductDTO
//	@Failure	404		{object}	ErrorResponse
//	@Router		/local/products/{barcode} [get]
func (l *LocalHandler) get(w http.ResponseWriter, r *http.Request) {
	product, err := l.localUsecase.Get(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewLocalProductDTO(product))
}

func (l *LocalHandler) image(w http.ResponseWriter, r *http.Request) {
	product, err := l.localUsecase.Get(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}
	if len(product.Image) == 0 {
		WriteError(w, e.ErrProductNotFound)
		return
	}

	w.Header().Set("Content-Type", product.ImageType)
	w.Header().Set("Content-Length", strconv.Itoa(len(product.Image)))
	w.WriteHeader(http.StatusOK)
	w.Write(product.Image)
}

// put
//
//	@Summary	Добавить или заменить локальный товар
//	@Tags		local
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		barcode	path		string	true	"Штрихкод"
//	@Param		name	formData	string	true	"Название товара"
//	@Param		price	formData	number	true	"Цена"
//	@Param		image	formData	file	false	"Изображение"
//	@Success	200		{object}	LocalProductDTO
//	@Router		/local/products/{barcode} [put]
func (l *LocalHandler) put(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxImageSize+1<<20)

	if err := ensureMultipartForm(r, 4<<20); err != nil {
		WriteError(w, err)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		WriteError(w, e.Wrap("name", e.ErrMissingFields))
		return
	}

	price, err := parsePriceToCents(r.FormValue("price"))
	if err != nil {
		WriteError(w, err)
		return
	}

	product := &domain.LocalProduct{
		Barcode: chi.URLParam(r, "barcode"),
		Name:    name,
		Price:   price,
	}

	image, err := parseImage(r, "image")
	if err != nil {
		WriteError(w, err)
		return
	}
	if image != nil {
		product.Image = image.Data
		product.ImageType = image.MimeType
	}

	if err := l.localUsecase.Put(r.Context(), product); err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewLocalProductDTO(product))
}

//	@Summary	Удалить локальный товар
//	@Tags		local
//	@Param		barcode	path	string	true	"Штрихкод"
//	@Success	204
//	@Router		/local/products/{barcode} [delete]
func (l *LocalHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := l.localUsecase.Delete(r.Context(), chi.URLParam(r, "barcode")); err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

//	@Summary	Очистить локальное хранилище
//	@Tags		local
//	@Success	204
//	@Router		/local/products [delete]
func (l *LocalHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := l.localUsecase.Clear(r.Context()); err != nil {
		logHandlerError(l.logger, err)
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
