package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/recommend"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/DRSN-tech/ferreteria-backend/pkg/tr"
	"golang.org/x/sync/singleflight"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 100
	cacheWriteTimeout = 500 * time.Millisecond
	lookupTimeout     = 5 * time.Second
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// ProductUseCase реализует поиск, регистрацию и каталог товаров.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	imagesInfra ImagesInfra
	trManager   tr.Manager
	metrics     *metrics.Metrics
	logger      logger.Logger

	lookups singleflight.Group

	mu          sync.Mutex
	registering map[string]struct{}
	// cacheGen растёт при каждом удалении товара с этим штрихкодом
	cacheGen map[string]uint64

	bg sync.WaitGroup
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	imagesInfra ImagesInfra,
	trManager tr.Manager,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		imagesInfra: imagesInfra,
		trManager:   trManager,
		metrics:     metrics,
		logger:      logger,
		registering: make(map[string]struct{}),
		cacheGen:    make(map[string]uint64),
	}
}

// LookupByBarcode ищет товар по штрихкоду. Отсутствие товара — Found=false без ошибки,
// сбой хранилища — ошибка, оборачивающая e.ErrLookupFailed.
func (p *ProductUseCase) LookupByBarcode(ctx context.Context, barcode string) (*LookupRes, error) {
	const op = "ProductUseCase.LookupByBarcode"

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, e.Wrap(op, e.ErrBarcodeRequired)
	}

	// Одновременные запросы одного штрихкода выполняются один раз.
	// Общий запрос не наследует отмену контекста того, кто его начал.
	ch := p.lookups.DoChan(barcode, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return p.lookup(sharedCtx, barcode)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, e.Wrap(op, ctx.Err())
	}
	if res.Err != nil {
		p.metrics.Lookup(metrics.ResultError)
		return nil, e.Wrap(op, res.Err)
	}

	product := res.Val.(*domain.Product)
	if product == nil {
		p.metrics.Lookup(metrics.ResultNotFound)
	} else {
		p.metrics.Lookup(metrics.ResultFound)
	}

	return NewLookupRes(product), nil
}

// ResolveBarcode находит товар и строит рекомендации, либо возвращает ссылку на регистрацию.
func (p *ProductUseCase) ResolveBarcode(ctx context.Context, barcode string) (*ScanResult, error) {
	const op = "ProductUseCase.ResolveBarcode"

	res, err := p.LookupByBarcode(ctx, barcode)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !res.Found {
		return NewNotFoundScanResult(strings.TrimSpace(barcode)), nil
	}

	recs, err := p.recommendFor(ctx, res.Product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewFoundScanResult(res.Product, recs), nil
}

// Recommendations возвращает до recommend.Limit похожих товаров.
func (p *ProductUseCase) Recommendations(ctx context.Context, id int64) ([]recommend.Recommendation, error) {
	const op = "ProductUseCase.Recommendations"

	product, err := p.GetProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	recs, err := p.recommendFor(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return recs, nil
}

// RegisterProduct регистрирует новый товар с изображением.
// Существующая запись с тем же штрихкодом никогда не изменяется.
func (p *ProductUseCase) RegisterProduct(ctx context.Context, req *RegisterProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.RegisterProduct"

	// Валидация данных
	if err := p.validateRegistration(req); err != nil {
		p.metrics.Registration(metrics.ResultInvalid)
		return nil, e.Wrap(op, err)
	}
	barcode := strings.TrimSpace(req.Barcode)
	name := strings.TrimSpace(req.Name)

	release, err := p.acquire(barcode)
	if err != nil {
		p.metrics.Registration(metrics.ResultDuplicate)
		return nil, e.Wrap(op, err)
	}
	defer release()

	var (
		created  *domain.Product
		imageKey string
	)
	err = p.trManager.Do(ctx, func(ctx context.Context) error {
		exists, err := p.productRepo.ExistsByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if exists {
			return e.ErrDuplicateBarcode
		}

		// Сохранение изображения в MinIO
		uploaded, err := p.imagesInfra.UploadImage(ctx, NewUploadImageReq(name, req.Image))
		if err != nil {
			return err
		}
		imageKey = uploaded.ImageKey

		created, err = p.productRepo.Create(ctx, domain.NewProduct(barcode, name, req.Price, imageKey, req.Image.MimeType))
		if err != nil {
			return err
		}

		event, err := NewProductEvent(ProductRegistered, created)
		if err != nil {
			return err
		}

		_, err = p.outboxRepo.Create(ctx, event)
		return err
	})
	if err != nil {
		// Транзакция откатилась, загруженное изображение больше никому не принадлежит
		if imageKey != "" {
			p.logger.Warnf("Cleaning up orphaned image after registration failure. barcode: %s, error: %v", barcode, err)
			p.imagesInfra.CleanupImages([]string{imageKey})
		}

		if errors.Is(err, e.ErrDuplicateBarcode) {
			p.metrics.Registration(metrics.ResultDuplicate)
		} else {
			p.metrics.Registration(metrics.ResultError)
		}
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша возможной устаревшей записи
	if err := p.cacheRepo.DeleteProduct(ctx, barcode); err != nil {
		p.logger.Warnf("Failed to invalidate cached product: %v", e.Wrap(op, err))
	}

	p.metrics.Registration(metrics.ResultCreated)
	p.logger.Infof("product registered: id=%d barcode=%s", created.ID, created.Barcode)
	return created, nil
}

// ListProducts возвращает страницу каталога, новые товары первыми.
func (p *ProductUseCase) ListProducts(ctx context.Context, req *ListProductsReq) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit || req.Offset < 0 {
		return nil, e.Wrap(op, e.ErrInvalidPaging)
	}

	products, err := p.productRepo.List(ctx, limit, req.Offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

func (p *ProductUseCase) GetProductImage(ctx context.Context, id int64) (*domain.Image, error) {
	const op = "ProductUseCase.GetProductImage"

	product, err := p.GetProduct(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	image, err := p.imagesInfra.GetImage(ctx, product.ImageKey)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return image, nil
}

// DeleteProduct удаляет товар, публикует событие и убирает изображение.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	if id <= 0 {
		return e.Wrap(op, e.ErrInvalidID)
	}

	var deleted *domain.Product
	err := p.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = p.productRepo.Delete(ctx, id)
		if err != nil {
			return err
		}

		event, err := NewProductEvent(ProductDeleted, deleted)
		if err != nil {
			return err
		}

		_, err = p.outboxRepo.Create(ctx, event)
		return err
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	p.bumpCacheGen(deleted.Barcode)
	if err := p.cacheRepo.DeleteProduct(ctx, deleted.Barcode); err != nil {
		p.logger.Warnf("Failed to invalidate cached product: %v", e.Wrap(op, err))
	}

	if deleted.ImageKey != "" {
		p.imagesInfra.CleanupImages([]string{deleted.ImageKey})
	}

	p.logger.Infof("product deleted: id=%d barcode=%s", deleted.ID, deleted.Barcode)
	return nil
}

// WaitForBackground ожидает фоновые записи в кэш.
func (p *ProductUseCase) WaitForBackground(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("product cache writes timeout during shutdown: %w", ctx.Err())
	}
}

// lookup читает кэш, затем PostgreSQL. Промах кэша или его сбой не являются ошибкой.
func (p *ProductUseCase) lookup(ctx context.Context, barcode string) (*domain.Product, error) {
	cached, err := p.cacheRepo.GetProduct(ctx, barcode)
	switch {
	case err != nil:
		p.metrics.Cache(metrics.ResultError)
		p.logger.Warnf("Product cache read failed, falling back to database: %v", err)
	case cached != nil:
		p.metrics.Cache(metrics.ResultHit)
		return cached, nil
	default:
		p.metrics.Cache(metrics.ResultMiss)
	}

	gen := p.cacheGeneration(barcode)
	product, err := p.productRepo.GetByBarcode(ctx, barcode)
	if errors.Is(err, e.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", e.ErrLookupFailed, err)
	}

	p.cacheInBackground(product, gen)
	return product, nil
}

// cacheInBackground кладёт товар в кэш, не задерживая ответ. Если товар удалили после
// чтения из базы (поколение сменилось), запись из кэша убирается.
func (p *ProductUseCase) cacheInBackground(product *domain.Product, gen uint64) {
	p.bg.Add(1)
	go func() {
		defer p.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if p.cacheGeneration(product.Barcode) != gen {
			return
		}
		if err := p.cacheRepo.SetProduct(ctx, product); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", err)
			return
		}
		if p.cacheGeneration(product.Barcode) != gen {
			if err := p.cacheRepo.DeleteProduct(ctx, product.Barcode); err != nil {
				p.logger.Warnf("Failed to drop stale cached product: %v", err)
			}
		}
	}()
}

func (p *ProductUseCase) cacheGeneration(barcode string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cacheGen[barcode]
}

func (p *ProductUseCase) bumpCacheGen(barcode string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cacheGen[barcode]++
}

func (p *ProductUseCase) recommendFor(ctx context.Context, product *domain.Product) ([]recommend.Recommendation, error) {
	all, err := p.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return recommend.ForProduct(*product, all), nil
}

// acquire запрещает параллельную регистрацию одного штрихкода.
func (p *ProductUseCase) acquire(barcode string) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.registering[barcode]; busy {
		return nil, e.ErrRegistrationInProgress
	}
	p.registering[barcode] = struct{}{}

	return func() {
		p.mu.Lock()
		delete(p.registering, barcode)
		p.mu.Unlock()
	}, nil
}

// validateRegistration проверяет корректность входных данных запроса на регистрацию.
func (p *ProductUseCase) validateRegistration(req *RegisterProductReq) error {
	if req == nil || strings.TrimSpace(req.Barcode) == "" || strings.TrimSpace(req.Name) == "" ||
		req.Image == nil || len(req.Image.Data) == 0 {
		return e.ErrMissingFields
	}

	if req.Price < 0 {
		return e.ErrInvalidPrice
	}

	return ValidateImage(req.Image)
}

// ValidateImage проверяет тип и размер изображения товара.
func ValidateImage(image *ProductImage) error {
	if int64(len(image.Data)) > MaxImageSize || image.Size > MaxImageSize {
		return e.ErrFileTooLarge
	}

	if !allowedImageTypes[strings.ToLower(image.MimeType)] {
		return fmt.Errorf("%w: %s", e.ErrUnsupportedMediaType, image.MimeType)
	}

	return nil
}
