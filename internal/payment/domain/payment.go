package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrInvalidOrderState = errors.New("order is not payable in its current state")
	ErrIntentNotFound    = errors.New("payment intent not found")
)

// ProcessorError wraps a failure of the external payment processor. The
// operation is not retried locally; the caller retries the whole request.
type ProcessorError struct {
	Op  string
	Err error
}

func (e *ProcessorError) Error() string { return fmt.Sprintf("payment processor %s: %v", e.Op, e.Err) }
func (e *ProcessorError) Unwrap() error { return e.Err }

type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// Reusable reports whether an existing intent can still collect payment, so
// no second processor-side intent must be created for the same order.
func (s IntentStatus) Reusable() bool {
	return s == IntentRequiresPaymentMethod || s == IntentRequiresConfirmation
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
}

// MinorUnits converts an order total to the processor's smallest currency
// unit. Zero-decimal currencies are charged at face value.
func MinorUnits(total decimal.Decimal, currency string) int64 {
	if zeroDecimal[currency] {
		return total.Round(0).IntPart()
	}
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var zeroDecimal = map[string]bool{
	"clp": true,
	"jpy": true,
	"krw": true,
	"pyg": true,
	"vnd": true,
}

type EventKind string

const (
	EventSucceeded EventKind = "payment_intent.succeeded"
	EventFailed    EventKind = "payment_intent.payment_failed"
	EventCanceled  EventKind = "payment_intent.canceled"
	EventIgnored   EventKind = "ignored"
)

// Event is the verified, decoded webhook payload reduced to what the
// reconciler acts on. Unrecognized event types collapse into EventIgnored.
type Event struct {
	ID             string
	Kind           EventKind
	IntentID       string
	FailureMessage string
}
