package http

import (
	"net/http"

	_ "github.com/DRSN-tech/ferreteria-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/ferreteria-backend/internal/metrics"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

// Deps — зависимости маршрутов. LocalUC может быть nil, тогда /local отвечает 503.
type Deps struct {
	ProductUC    usecase.ProductUC
	ScanUC       usecase.ScanUC
	LocalUC      usecase.LocalProductUC
	Metrics      *metrics.Metrics
	MaxFrameSize int64
	SwaggerURL   string
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(deps Deps) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(requestLogger(r.logger))
	if deps.Metrics != nil {
		r.router.Use(observe(deps.Metrics))
		r.router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	swaggerURL := deps.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(swaggerURL), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerProductRoutes(v1, NewProductHandler(deps.ProductUC, r.logger))
		registerScanRoutes(v1, NewScanHandler(deps.ScanUC, deps.MaxFrameSize, r.logger))
		registerLocalRoutes(v1, NewLocalHandler(deps.LocalUC, r.logger))
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.registerNewProduct)
		pr.Get("/barcode/{barcode}", prHandler.lookupByBarcode)
		pr.Route("/{id}", func(item chi.Router) {
			item.Get("/", prHandler.getProduct)
			item.Delete("/", prHandler.deleteProduct)
			item.Get("/image", prHandler.getProductImage)
			item.Get("/recommendations", prHandler.getRecommendations)
		})
	})
}

func registerScanRoutes(router chi.Router, scanHandler *ScanHandler) {
	router.Route("/scan", func(sc chi.Router) {
		sc.Post("/still", scanHandler.scanStill)
		sc.Route("/sessions", func(ss chi.Router) {
			ss.Post("/", scanHandler.startSession)
			ss.Post("/{id}/frames", scanHandler.submitFrame)
			ss.Post("/{id}/restart", scanHandler.restartSession)
			ss.Delete("/{id}", scanHandler.stopSession)
		})
	})
}

func registerLocalRoutes(router chi.Router, localHandler *LocalHandler) {
	router.Route("/local/products", func(lp chi.Router) {
		lp.Use(localHandler.enabled)
		lp.Get("/", localHandler.list)
		lp.Delete("/", localHandler.clear)
		lp.Get("/{barcode}", localHandler.get)
		lp.Get("/{barcode}/image", localHandler.image)
		lp.Put("/{barcode}", localHandler.put)
		lp.Delete("/{barcode}", localHandler.delete)
	})
}
