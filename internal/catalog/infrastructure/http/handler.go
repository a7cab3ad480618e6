package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/httpapi"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("catalog-http"),
	}
}

// Routes is the public, unauthenticated product surface.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
	return r
}

// AdminRoutes carries the catalog mutations; mounted behind the admin gate.
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listAll)
	r.Post("/", h.createProduct)
	r.Put("/{productID}", h.updateProduct)
	r.Get("/low-stock", h.lowStock)
	return r
}

type productResp struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	IsActive    bool            `json:"is_active"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	products, err := h.service.ListActive(ctx, r.URL.Query().Get("category"))
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toProductResps(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	p, err := h.service.Get(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminListProducts")
	defer span.End()

	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	products, err := h.service.ListAll(ctx, includeInactive)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toProductResps(products))
}

type createProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	p, err := h.service.Create(ctx, application.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, toProductResp(p))
}

type updateProductReq struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	IsActive    *bool            `json:"is_active"`
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	p, err := h.service.UpdateProduct(ctx, chi.URLParam(r, "productID"), application.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		IsActive:    req.IsActive,
	})
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toProductResp(p))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "LowStockProducts")
	defer span.End()

	threshold := 5
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			threshold = v
		}
	}
	products, err := h.service.ListLowStock(ctx, threshold)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toProductResps(products))
}

func toProductResp(p domain.Product) productResp {
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    string(p.Category),
		IsActive:    p.IsActive,
	}
}

func toProductResps(products []domain.Product) []productResp {
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return out
}
