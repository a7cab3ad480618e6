package application

import (
	"context"
	"time"

	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
)

// OrderStore is the slice of order persistence the reconciler needs. All
// mutations are transactional and guarded so duplicate or out-of-order
// webhook deliveries cannot corrupt order state.
type OrderStore interface {
	ByIDForUser(ctx context.Context, orderID, userID string) (orderdomain.Order, error)
	// ByPaymentIntent returns orderdomain.ErrOrderNotFound when no order
	// references the intent; webhook handling treats that as a silent skip.
	ByPaymentIntent(ctx context.Context, intentID string) (orderdomain.Order, error)
	// SetPaymentIntent records the intent against the order, guarded on the
	// order still being pending. Returns domain.ErrInvalidOrderState when a
	// concurrent transition (typically a webhook) got there first.
	SetPaymentIntent(ctx context.Context, orderID, intentID, method string) error
	// MarkPaid flips a pending order to paid and stamps paid_at, writing the
	// outbox event in the same transaction. It reports false without error
	// when the order had already left pending.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time, eventType string, payload []byte, traceparent string) (bool, error)
}

type CreateIntentRequest struct {
	Amount      int64
	Currency    string
	OrderID     string
	UserID      string
	Description string
}

// Processor is the external payment provider capability.
type Processor interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (domain.Intent, error)
	// RetrieveIntent returns domain.ErrIntentNotFound for unknown ids.
	RetrieveIntent(ctx context.Context, id string) (domain.Intent, error)
	// VerifyWebhook checks the signature against the exact raw payload and
	// decodes the event. Returns domain.ErrInvalidSignature on any mismatch.
	VerifyWebhook(payload []byte, signature string) (domain.Event, error)
}

// Deduper short-circuits webhook deliveries already processed. Ids are marked
// only after the event applied cleanly, so a delivery that failed mid-flight
// is still picked up on redelivery. Failures are advisory; the SQL guards
// stay authoritative.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
