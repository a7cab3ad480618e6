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

	"github.com/leavalz/Natural-Triade-Shop/internal/httpapi"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
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
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createOrder)
	r.Get("/", h.listMyOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Put("/{orderID}/cancel", h.cancelOrder)
	return r
}

type createOrderReq struct {
	ShippingAddress    string `json:"shipping_address"`
	ShippingCity       string `json:"shipping_city"`
	ShippingPostalCode string `json:"shipping_postal_code"`
	ContactEmail       string `json:"contact_email"`
	ContactPhone       string `json:"contact_phone"`
}

// OrderResponse is shared with the admin handler, which renders the same
// shape for its listing and status endpoints.
type OrderResponse struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	ShippingAddress    string          `json:"shipping_address"`
	ShippingCity       string          `json:"shipping_city"`
	ShippingPostalCode string          `json:"shipping_postal_code,omitempty"`
	ContactEmail       string          `json:"contact_email"`
	ContactPhone       string          `json:"contact_phone,omitempty"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	PaymentIntentID    string          `json:"payment_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	PaidAt             *time.Time      `json:"paid_at"`
	ShippedAt          *time.Time      `json:"shipped_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	Items              []ItemResponse  `json:"items"`
}

type ItemResponse struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description,omitempty"`
	ProductImageURL    string          `json:"product_image_url,omitempty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Quantity           int             `json:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal"`
}

type orderSummaryResp struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	ItemsCount int             `json:"items_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.ShippingAddress == "" || req.ShippingCity == "" || req.ContactEmail == "" {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "shipping address, city and contact email are required"})
		return
	}

	o, err := h.service.Create(ctx, id.UserID, domain.ShippingInfo{
		Address:    req.ShippingAddress,
		City:       req.ShippingCity,
		PostalCode: req.ShippingPostalCode,
		Email:      req.ContactEmail,
		Phone:      req.ContactPhone,
	})
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusCreated, NewOrderResponse(o))
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListMyOrders")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	orders, err := h.service.ListMine(ctx, id.UserID)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}

	out := make([]orderSummaryResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderSummaryResp{
			ID:         o.ID,
			Status:     string(o.Status),
			Total:      o.Total,
			ItemsCount: len(o.Items),
			CreatedAt:  o.CreatedAt,
		})
	}
	httpapi.JSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	o, err := h.service.Get(ctx, id.UserID, chi.URLParam(r, "orderID"))
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, NewOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelOrder")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	o, err := h.service.Cancel(ctx, id.UserID, chi.URLParam(r, "orderID"))
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, NewOrderResponse(o))
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemResponse{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			ProductImageURL:    it.ProductImageURL,
			UnitPrice:          it.UnitPrice,
			Quantity:           it.Quantity,
			Subtotal:           it.Subtotal,
		})
	}
	return OrderResponse{
		ID:                 o.ID,
		UserID:             o.UserID,
		Subtotal:           o.Subtotal,
		Tax:                o.Tax,
		Total:              o.Total,
		Status:             string(o.Status),
		ShippingAddress:    o.Shipping.Address,
		ShippingCity:       o.Shipping.City,
		ShippingPostalCode: o.Shipping.PostalCode,
		ContactEmail:       o.Shipping.Email,
		ContactPhone:       o.Shipping.Phone,
		PaymentMethod:      o.PaymentMethod,
		PaymentIntentID:    o.PaymentIntentID,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
		PaidAt:             o.PaidAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CancelledAt:        o.CancelledAt,
		Items:              items,
	}
}
