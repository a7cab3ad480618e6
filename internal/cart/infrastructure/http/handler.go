package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/leavalz/Natural-Triade-Shop/internal/cart/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/httpapi"
	"github.com/leavalz/Natural-Triade-Shop/pkg/auth"
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
		tracer:  otel.Tracer("cart-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/items", h.addItem)
	r.Get("/", h.viewCart)
	r.Put("/items/{itemID}", h.updateItem)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Delete("/", h.clearCart)
	return r
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

type lineResp struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductPrice    decimal.Decimal `json:"product_price"`
	ProductImageURL string          `json:"product_image_url"`
	Quantity        int             `json:"quantity"`
	PriceAtAddition decimal.Decimal `json:"price_at_addition"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
}

type summaryResp struct {
	Items      []lineResp      `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	ItemsCount int             `json:"items_count"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddCartItem")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	line, err := h.service.Add(ctx, id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, toLineResp(line))
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ViewCart")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	summary, err := h.service.View(ctx, id.UserID)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}

	resp := summaryResp{
		Items:      make([]lineResp, 0, len(summary.Items)),
		Subtotal:   summary.Subtotal,
		Tax:        summary.Tax,
		Total:      summary.Total,
		ItemsCount: len(summary.Items),
	}
	for _, lv := range summary.Items {
		resp.Items = append(resp.Items, toLineResp(lv))
	}
	httpapi.JSON(w, http.StatusOK, resp)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateCartItem")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	var req updateItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	line, err := h.service.Update(ctx, id.UserID, chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toLineResp(line))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCartItem")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	if err := h.service.Remove(ctx, id.UserID, chi.URLParam(r, "itemID")); err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCart")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	if err := h.service.Clear(ctx, id.UserID); err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toLineResp(lv domain.LineView) lineResp {
	return lineResp{
		ID:              lv.ID,
		ProductID:       lv.ProductID,
		ProductName:     lv.ProductName,
		ProductPrice:    lv.ProductPrice,
		ProductImageURL: lv.ProductImageURL,
		Quantity:        lv.Quantity,
		PriceAtAddition: lv.PriceAtAddition,
		Subtotal:        lv.PriceAtAddition.Mul(decimal.NewFromInt(int64(lv.Quantity))).Round(2),
		CreatedAt:       lv.CreatedAt,
	}
}
