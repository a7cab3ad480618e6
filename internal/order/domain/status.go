package domain

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid order status")

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// rank orders the main fulfilment line. cancelled sits outside the line.
var rank = map[Status]int{
	StatusPending:    0,
	StatusPaid:       1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// Terminal statuses admit no further change, by anyone.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// CancellableByOwner reports whether the order's owner may still cancel it.
// Once the order has shipped the owner must go through a return flow instead.
func (s Status) CancellableByOwner() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing:
		return true
	}
	return false
}

// StockCommitted reports whether inventory decremented at creation has not
// yet been handed to the carrier, i.e. whether cancellation must restore it.
func (s Status) StockCommitted() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing:
		return true
	}
	return false
}

// CanTransition enforces the admin state machine: forward-only moves along
// pending → paid → processing → shipped → delivered (skipping ahead is
// allowed), cancellation from any non-terminal status, and no way out of a
// terminal status.
func (s Status) CanTransition(to Status) error {
	if s.Terminal() {
		return &InvalidTransitionError{From: s, To: to}
	}
	if to == StatusCancelled {
		return nil
	}
	toRank, ok := rank[to]
	if !ok || toRank <= rank[s] {
		return &InvalidTransitionError{From: s, To: to}
	}
	return nil
}
