package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/payment/domain"
)

type fakeOrderStore struct {
	orders map[string]orderdomain.Order // by order id

	intentSet        map[string]string // order id -> intent id
	paidMarked       []string          // order ids MarkPaid flipped
	failMarkPaidOnce bool
}

func newFakeOrderStore(orders ...orderdomain.Order) *fakeOrderStore {
	f := &fakeOrderStore{
		orders:    map[string]orderdomain.Order{},
		intentSet: map[string]string{},
	}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrderStore) ByIDForUser(_ context.Context, orderID, userID string) (orderdomain.Order, error) {
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return orderdomain.Order{}, orderdomain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) ByPaymentIntent(_ context.Context, intentID string) (orderdomain.Order, error) {
	for _, o := range f.orders {
		if o.PaymentIntentID == intentID {
			return o, nil
		}
	}
	return orderdomain.Order{}, orderdomain.ErrOrderNotFound
}

func (f *fakeOrderStore) SetPaymentIntent(_ context.Context, orderID, intentID, method string) error {
	o, ok := f.orders[orderID]
	if !ok || o.Status != orderdomain.StatusPending {
		return domain.ErrInvalidOrderState
	}
	o.PaymentIntentID = intentID
	o.PaymentMethod = method
	f.orders[orderID] = o
	f.intentSet[orderID] = intentID
	return nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, orderID string, paidAt time.Time, _ string, _ []byte, _ string) (bool, error) {
	if f.failMarkPaidOnce {
		f.failMarkPaidOnce = false
		return false, errors.New("connection reset")
	}
	o, ok := f.orders[orderID]
	if !ok {
		return false, orderdomain.ErrOrderNotFound
	}
	if o.Status != orderdomain.StatusPending {
		return false, nil
	}
	o.Status = orderdomain.StatusPaid
	o.PaidAt = &paidAt
	f.orders[orderID] = o
	f.paidMarked = append(f.paidMarked, orderID)
	return true, nil
}

type fakeProcessor struct {
	intents  map[string]domain.Intent // by intent id
	created  []CreateIntentRequest
	event    domain.Event
	verify   error
	onCreate func()
}

func (f *fakeProcessor) CreateIntent(_ context.Context, req CreateIntentRequest) (domain.Intent, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.created = append(f.created, req)
	intent := domain.Intent{
		ID:           "pi_new",
		ClientSecret: "pi_new_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       domain.IntentRequiresPaymentMethod,
	}
	return intent, nil
}

func (f *fakeProcessor) RetrieveIntent(_ context.Context, id string) (domain.Intent, error) {
	intent, ok := f.intents[id]
	if !ok {
		return domain.Intent{}, domain.ErrIntentNotFound
	}
	return intent, nil
}

func (f *fakeProcessor) VerifyWebhook(_ []byte, _ string) (domain.Event, error) {
	if f.verify != nil {
		return domain.Event{}, f.verify
	}
	return f.event, nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) Seen(_ context.Context, eventID string) (bool, error) {
	return f.seen[eventID], nil
}

func (f *fakeDeduper) Mark(_ context.Context, eventID string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	f.seen[eventID] = true
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testService(orders OrderStore, processor Processor, dedup Deduper) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(log, orders, processor, dedup, "clp")
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func pendingOrder(id, userID string, total string) orderdomain.Order {
	return orderdomain.Order{ID: id, UserID: userID, Status: orderdomain.StatusPending, Total: dec(total)}
}

func TestCreateIntentChargesZeroDecimalFaceValue(t *testing.T) {
	store := newFakeOrderStore(pendingOrder("o1", "u1", "21420"))
	proc := &fakeProcessor{}
	svc := testService(store, proc, nil)

	resp, err := svc.CreateOrReuseIntent(context.Background(), "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "pi_new", resp.PaymentIntentID)
	assert.Equal(t, int64(21420), resp.Amount, "clp is zero-decimal: no cent multiplication")
	assert.Equal(t, "clp", resp.Currency)
	assert.Equal(t, "pi_new", store.intentSet["o1"])

	require.Len(t, proc.created, 1)
	assert.Equal(t, "o1", proc.created[0].OrderID)
	assert.Equal(t, "u1", proc.created[0].UserID)
}

func TestCreateIntentReusesCollectableIntent(t *testing.T) {
	o := pendingOrder("o1", "u1", "21420")
	o.PaymentIntentID = "pi_old"
	store := newFakeOrderStore(o)
	proc := &fakeProcessor{intents: map[string]domain.Intent{
		"pi_old": {ID: "pi_old", ClientSecret: "pi_old_secret", Amount: 21420, Currency: "clp", Status: domain.IntentRequiresPaymentMethod},
	}}
	svc := testService(store, proc, nil)

	resp, err := svc.CreateOrReuseIntent(context.Background(), "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "pi_old", resp.PaymentIntentID)
	assert.Empty(t, proc.created, "a collectable intent must not be recreated")
}

func TestCreateIntentReplacesDeadIntent(t *testing.T) {
	o := pendingOrder("o1", "u1", "21420")
	o.PaymentIntentID = "pi_old"
	store := newFakeOrderStore(o)
	proc := &fakeProcessor{intents: map[string]domain.Intent{
		"pi_old": {ID: "pi_old", Status: domain.IntentCanceled},
	}}
	svc := testService(store, proc, nil)

	resp, err := svc.CreateOrReuseIntent(context.Background(), "u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "pi_new", resp.PaymentIntentID)
	require.Len(t, proc.created, 1)
}

func TestCreateIntentRejectsNonPendingOrder(t *testing.T) {
	o := pendingOrder("o1", "u1", "21420")
	o.Status = orderdomain.StatusPaid
	store := newFakeOrderStore(o)
	svc := testService(store, &fakeProcessor{}, nil)

	_, err := svc.CreateOrReuseIntent(context.Background(), "u1", "o1")
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
}

func TestCreateIntentLosingRaceWithWebhookKeepsPaidIntent(t *testing.T) {
	store := newFakeOrderStore(pendingOrder("o1", "u1", "21420"))
	proc := &fakeProcessor{}
	// A webhook lands between the pending check and recording the new intent.
	proc.onCreate = func() {
		o := store.orders["o1"]
		o.Status = orderdomain.StatusPaid
		store.orders["o1"] = o
	}
	svc := testService(store, proc, nil)

	_, err := svc.CreateOrReuseIntent(context.Background(), "u1", "o1")
	assert.ErrorIs(t, err, domain.ErrInvalidOrderState)
	assert.Empty(t, store.intentSet, "a paid order must keep the intent that paid it")
}

func TestCreateIntentOtherUsersOrderIsNotFound(t *testing.T) {
	store := newFakeOrderStore(pendingOrder("o1", "u1", "21420"))
	svc := testService(store, &fakeProcessor{}, nil)

	_, err := svc.CreateOrReuseIntent(context.Background(), "u2", "o1")
	assert.ErrorIs(t, err, orderdomain.ErrOrderNotFound)
}

func webhookOrder() orderdomain.Order {
	o := pendingOrder("o1", "u1", "21420")
	o.PaymentIntentID = "pi_1"
	return o
}

func TestWebhookSucceededMarksPaid(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventSucceeded, IntentID: "pi_1"}}
	svc := testService(store, proc, &fakeDeduper{})

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	require.Len(t, store.paidMarked, 1)
	assert.Equal(t, orderdomain.StatusPaid, store.orders["o1"].Status)
	require.NotNil(t, store.orders["o1"].PaidAt)
}

func TestWebhookDuplicateDeliveryMarksPaidOnce(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventSucceeded, IntentID: "pi_1"}}
	svc := testService(store, proc, &fakeDeduper{})

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	firstPaidAt := *store.orders["o1"].PaidAt

	// Same event id again: short-circuited by the deduper.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Len(t, store.paidMarked, 1)
	assert.Equal(t, firstPaidAt, *store.orders["o1"].PaidAt)
}

func TestWebhookRedeliveryAfterTransientFailureStillMarksPaid(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	store.failMarkPaidOnce = true
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventSucceeded, IntentID: "pi_1"}}
	svc := testService(store, proc, &fakeDeduper{})

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.Error(t, err, "a failed apply must surface so the processor redelivers")
	assert.Equal(t, orderdomain.StatusPending, store.orders["o1"].Status)

	// Stripe redelivers the same event id after the 5xx; the dedup layer must
	// not have recorded the failed attempt.
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Equal(t, orderdomain.StatusPaid, store.orders["o1"].Status)
	assert.Len(t, store.paidMarked, 1)
}

func TestWebhookRedeliveryWithoutDeduperStillPaysOnce(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventSucceeded, IntentID: "pi_1"}}
	svc := testService(store, proc, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	assert.Len(t, store.paidMarked, 1, "the pending-status guard is the authoritative layer")
}

func TestWebhookMissingSignatureRejected(t *testing.T) {
	svc := testService(newFakeOrderStore(), &fakeProcessor{}, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	proc := &fakeProcessor{verify: domain.ErrInvalidSignature}
	svc := testService(newFakeOrderStore(), proc, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestWebhookUnknownIntentAcknowledged(t *testing.T) {
	store := newFakeOrderStore()
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventSucceeded, IntentID: "pi_unknown"}}
	svc := testService(store, proc, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	assert.NoError(t, err, "unknown intents are dropped, not errored, so the processor stops redelivering")
	assert.Empty(t, store.paidMarked)
}

func TestWebhookPaymentFailedLeavesOrderPending(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	proc := &fakeProcessor{event: domain.Event{
		ID:             "evt_1",
		Kind:           domain.EventFailed,
		IntentID:       "pi_1",
		FailureMessage: "card_declined",
	}}
	svc := testService(store, proc, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, store.orders["o1"].Status, "the user can retry payment")
	assert.Empty(t, store.paidMarked)
}

func TestWebhookUnrecognizedEventIgnored(t *testing.T) {
	store := newFakeOrderStore(webhookOrder())
	proc := &fakeProcessor{event: domain.Event{ID: "evt_1", Kind: domain.EventIgnored}}
	svc := testService(store, proc, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	assert.Empty(t, store.paidMarked)
}

func TestWebhookProcessorErrorSurfaces(t *testing.T) {
	proc := &fakeProcessor{verify: &domain.ProcessorError{Op: "verify webhook", Err: errors.New("boom")}}
	svc := testService(newFakeOrderStore(), proc, nil)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "sig")
	var procErr *domain.ProcessorError
	assert.ErrorAs(t, err, &procErr)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(21420), domain.MinorUnits(dec("21420"), "clp"))
	assert.Equal(t, int64(2142000), domain.MinorUnits(dec("21420"), "usd"))
	assert.Equal(t, int64(1999), domain.MinorUnits(dec("19.99"), "usd"))
	assert.Equal(t, int64(20), domain.MinorUnits(dec("19.99"), "jpy"))
}
