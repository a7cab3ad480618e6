package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/leavalz/Natural-Triade-Shop/internal/httpapi"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/application"
	"github.com/leavalz/Natural-Triade-Shop/pkg/auth"
)

// maxWebhookBody bounds what the receiver will buffer; Stripe events are
// far below this.
const maxWebhookBody = 1 << 20

type Handler struct {
	log            *slog.Logger
	service        *application.Service
	publishableKey string
	currency       string
	tracer         trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, publishableKey, currency string) *Handler {
	return &Handler{
		log:            log,
		service:        service,
		publishableKey: publishableKey,
		currency:       currency,
		tracer:         otel.Tracer("payment-http"),
	}
}

// Routes mixes authenticated and public endpoints on purpose: Stripe calls
// the webhook with its own signature rather than a user session, and the
// config endpoint only exposes the publishable key.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.With(auth.Middleware).Post("/create-payment-intent", h.createIntent)
	r.Post("/webhook", h.webhook)
	r.Get("/config", h.config)
	return r
}

type createIntentReq struct {
	OrderID string `json:"order_id"`
}

type intentResp struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	OrderID         string `json:"order_id"`
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePaymentIntent")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	var req createIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	resp, err := h.service.CreateOrReuseIntent(ctx, id.UserID, req.OrderID)
	if err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, intentResp{
		ClientSecret:    resp.ClientSecret,
		PaymentIntentID: resp.PaymentIntentID,
		Amount:          resp.Amount,
		Currency:        resp.Currency,
		OrderID:         resp.OrderID,
	})
}

// webhook hands the exact raw body to signature verification; re-serializing
// the JSON would break the signature.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "StripeWebhook")
	defer span.End()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpapi.JSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	if err := h.service.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature")); err != nil {
		httpapi.Error(w, h.log, err)
		return
	}
	httpapi.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) config(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, http.StatusOK, map[string]string{
		"publishable_key": h.publishableKey,
		"currency":        h.currency,
	})
}
