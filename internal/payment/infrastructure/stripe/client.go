package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/leavalz/Natural-Triade-Shop/internal/payment/application"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
)

// Client implements the Processor port against the Stripe API.
type Client struct {
	log           *slog.Logger
	api           *client.API
	webhookSecret string
}

func NewClient(log *slog.Logger, secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{log: log, api: api, webhookSecret: webhookSecret}
}

func (c *Client) CreateIntent(ctx context.Context, req application.CreateIntentRequest) (domain.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:      stripe.Params{Context: ctx},
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return domain.Intent{}, &domain.ProcessorError{Op: "create intent", Err: err}
	}
	return toIntent(pi), nil
}

func (c *Client) RetrieveIntent(ctx context.Context, id string) (domain.Intent, error) {
	pi, err := c.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return domain.Intent{}, domain.ErrIntentNotFound
		}
		return domain.Intent{}, &domain.ProcessorError{Op: "retrieve intent", Err: err}
	}
	return toIntent(pi), nil
}

// VerifyWebhook checks the signature against the exact raw body and reduces
// the event to the reconciler's tagged union. Event types outside the known
// set come back as EventIgnored rather than an error.
func (c *Client) VerifyWebhook(payload []byte, signature string) (domain.Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, c.webhookSecret)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := domain.Event{ID: ev.ID, Kind: domain.EventIgnored}
	switch string(ev.Type) {
	case string(domain.EventSucceeded), string(domain.EventFailed), string(domain.EventCanceled):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return domain.Event{}, fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		out.Kind = domain.EventKind(ev.Type)
		out.IntentID = pi.ID
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) domain.Intent {
	return domain.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       domain.IntentStatus(pi.Status),
	}
}
