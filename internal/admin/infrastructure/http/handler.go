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

	"github.com/leavalz/Natural-Triade-Shop/internal/admin/application"
	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/httpapi"
	orderapp "github.com/leavalz/Natural-Triade-Shop/internal/order/application"
	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	orderhttp "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/http"
)

type Handler struct {
	log       *slog.Logger
	dashboard *application.Service
	orders    *orderapp.Service
	tracer    trace.Tracer
}

func NewHandler(log *slog.Logger, dashboard *application.Service, orders *orderapp.Service) *Handler {
	return &Handler{
		log:       log,
		dashboard: dashboard,
		orders:    orders,
		tracer:    otel.Tracer("admin-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/dashboard", h.getDashboard)
	r.Get("/orders", h.listOrders)
	r.Put("/orders/{orderID}/status", h.updateOrderStatus)
	return r
}

type metricsResp struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int64           `json:"total_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	PaidOrders        int64           `json:"paid_orders"`
	CompletedOrders   int64           `json:"completed_orders"`
	CancelledOrders   int64           `json:"cancelled_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type topProductResp struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type lowStockResp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	Category string `json:"category"`
}

type dashboardResp struct {
	Metrics      metricsResp               `json:"metrics"`
	TopProducts  []topProductResp          `json:"top_products"`
	RecentOrders []orderhttp.OrderResponse `json:"recent_orders"`
	LowStock     []lowStockResp            `json:"low_stock_products"`
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminDashboard")
	defer span.End()

	d, err := h.dashboard.Dashboard(ctx)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, toDashboardResp(d))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminListOrders")
	defer span.End()

	q := r.URL.Query()
	f := orderapp.ListFilter{UserID: q.Get("user_id")}
	if raw := q.Get("status"); raw != "" {
		status, err := orderdomain.ParseStatus(raw)
		if err != nil {
			httpapi.Error(w, h.log, err)
			return
		}
		f.Status = &status
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = v
	}

	orders, err := h.orders.List(ctx, f)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}

	out := make([]orderhttp.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderhttp.NewOrderResponse(o))
	}
	httpapi.JSON(w, http.StatusOK, out)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminUpdateOrderStatus")
	defer span.End()

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	o, err := h.orders.SetStatus(ctx, chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, orderhttp.NewOrderResponse(o))
}

func toDashboardResp(d application.Dashboard) dashboardResp {
	resp := dashboardResp{
		Metrics: metricsResp{
			TotalRevenue:      d.Metrics.TotalRevenue,
			TotalOrders:       d.Metrics.TotalOrders,
			PendingOrders:     d.Metrics.PendingOrders,
			PaidOrders:        d.Metrics.PaidOrders,
			CompletedOrders:   d.Metrics.CompletedOrders,
			CancelledOrders:   d.Metrics.CancelledOrders,
			AverageOrderValue: d.Metrics.AverageOrderValue,
		},
		TopProducts:  make([]topProductResp, 0, len(d.TopProducts)),
		RecentOrders: make([]orderhttp.OrderResponse, 0, len(d.RecentOrders)),
		LowStock:     make([]lowStockResp, 0, len(d.LowStock)),
	}
	for _, tp := range d.TopProducts {
		resp.TopProducts = append(resp.TopProducts, topProductResp{
			ProductID:    tp.ProductID,
			ProductName:  tp.ProductName,
			QuantitySold: tp.QuantitySold,
			Revenue:      tp.Revenue,
		})
	}
	for _, o := range d.RecentOrders {
		resp.RecentOrders = append(resp.RecentOrders, orderhttp.NewOrderResponse(o))
	}
	for _, p := range d.LowStock {
		resp.LowStock = append(resp.LowStock, toLowStockResp(p))
	}
	return resp
}

func toLowStockResp(p catalogdomain.Product) lowStockResp {
	return lowStockResp{
		ID:       p.ID,
		Name:     p.Name,
		Stock:    p.Stock,
		Category: string(p.Category),
	}
}
