package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
	"github.com/leavalz/Natural-Triade-Shop/pkg/tracing"
)

const methodStripe = "stripe"

type Service struct {
	log       *slog.Logger
	orders    OrderStore
	processor Processor
	dedup     Deduper
	currency  string
	now       func() time.Time
}

func NewService(log *slog.Logger, orders OrderStore, processor Processor, dedup Deduper, currency string) *Service {
	return &Service{
		log:       log,
		orders:    orders,
		processor: processor,
		dedup:     dedup,
		currency:  currency,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type IntentResponse struct {
	ClientSecret    string
	PaymentIntentID string
	Amount          int64
	Currency        string
	OrderID         string
}

// CreateOrReuseIntent returns a client secret the frontend can confirm. If
// the order already holds an intent that the processor still reports as
// collectable, that intent is returned unchanged; the order never has more
// than one live intent.
func (s *Service) CreateOrReuseIntent(ctx context.Context, userID, orderID string) (IntentResponse, error) {
	o, err := s.orders.ByIDForUser(ctx, orderID, userID)
	if err != nil {
		return IntentResponse{}, err
	}
	if o.Status != orderdomain.StatusPending {
		return IntentResponse{}, fmt.Errorf("%w: status %q", domain.ErrInvalidOrderState, o.Status)
	}

	if o.PaymentIntentID != "" {
		existing, err := s.processor.RetrieveIntent(ctx, o.PaymentIntentID)
		if err == nil && existing.Status.Reusable() {
			return response(existing, o.ID), nil
		}
		if err != nil && !errors.Is(err, domain.ErrIntentNotFound) {
			s.log.Warn("stale intent lookup failed, creating a new one",
				"order_id", o.ID, "payment_intent_id", o.PaymentIntentID, "err", err)
		}
	}

	intent, err := s.processor.CreateIntent(ctx, CreateIntentRequest{
		Amount:      domain.MinorUnits(o.Total, s.currency),
		Currency:    s.currency,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Description: fmt.Sprintf("Orden #%s - Natural Triade", o.ID),
	})
	if err != nil {
		return IntentResponse{}, err
	}

	if err := s.orders.SetPaymentIntent(ctx, o.ID, intent.ID, methodStripe); err != nil {
		return IntentResponse{}, err
	}
	s.log.Info("payment intent created", "order_id", o.ID, "payment_intent_id", intent.ID, "amount", intent.Amount)
	return response(intent, o.ID), nil
}

// HandleWebhook applies a processor notification to local order state.
// Signature failures reject the request; everything else that cannot be
// matched to an order is acknowledged and dropped, because the processor
// redelivers on non-2xx and may legitimately reference intents this dataset
// no longer knows.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return domain.ErrInvalidSignature
	}
	event, err := s.processor.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	if s.dedup != nil && event.ID != "" {
		seen, err := s.dedup.Seen(ctx, event.ID)
		if err != nil {
			s.log.Warn("webhook dedup check failed", "event_id", event.ID, "err", err)
		} else if seen {
			s.log.Info("duplicate webhook skipped", "event_id", event.ID)
			return nil
		}
	}

	if err := s.applyEvent(ctx, event); err != nil {
		return err
	}

	// Marked only after the event applied: a transient failure above returns
	// 5xx, the processor redelivers, and the retry must not be skipped.
	if s.dedup != nil && event.ID != "" {
		if err := s.dedup.Mark(ctx, event.ID); err != nil {
			s.log.Warn("webhook dedup mark failed", "event_id", event.ID, "err", err)
		}
	}
	return nil
}

func (s *Service) applyEvent(ctx context.Context, event domain.Event) error {
	switch event.Kind {
	case domain.EventSucceeded:
		return s.applySucceeded(ctx, event)
	case domain.EventFailed:
		// Deliberate no-op: the order stays pending so the user can retry.
		s.logIntentEvent(ctx, event, "payment failed")
		return nil
	case domain.EventCanceled:
		s.logIntentEvent(ctx, event, "payment intent canceled")
		return nil
	default:
		s.log.Debug("webhook event ignored", "event_id", event.ID)
		return nil
	}
}

func (s *Service) applySucceeded(ctx context.Context, event domain.Event) error {
	o, err := s.orders.ByPaymentIntent(ctx, event.IntentID)
	if err != nil {
		if errors.Is(err, orderdomain.ErrOrderNotFound) {
			s.log.Info("webhook for unknown payment intent ignored", "payment_intent_id", event.IntentID)
			return nil
		}
		return err
	}

	body, err := json.Marshal(orderdomain.OrderPaid{OrderID: o.ID, PaymentIntentID: event.IntentID})
	if err != nil {
		return err
	}

	updated, err := s.orders.MarkPaid(ctx, o.ID, s.now(), orderdomain.EventOrderPaid, body, tracing.Traceparent(ctx))
	if err != nil {
		return err
	}
	if updated {
		s.log.Info("order marked paid", "order_id", o.ID, "payment_intent_id", event.IntentID)
	} else {
		s.log.Info("payment succeeded for order no longer pending", "order_id", o.ID, "status", o.Status)
	}
	return nil
}

func (s *Service) logIntentEvent(ctx context.Context, event domain.Event, msg string) {
	o, err := s.orders.ByPaymentIntent(ctx, event.IntentID)
	if err != nil {
		s.log.Info(msg+" for unknown payment intent", "payment_intent_id", event.IntentID)
		return
	}
	s.log.Warn(msg, "order_id", o.ID, "payment_intent_id", event.IntentID, "reason", event.FailureMessage)
}

func response(in domain.Intent, orderID string) IntentResponse {
	return IntentResponse{
		ClientSecret:    in.ClientSecret,
		PaymentIntentID: in.ID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		OrderID:         orderID,
	}
}
