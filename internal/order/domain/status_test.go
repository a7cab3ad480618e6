package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "processing", "shipped", "delivered", "cancelled"} {
		st, err := ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, Status(raw), st)
	}

	_, err := ParseStatus("refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPaid, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},

		// Skipping ahead is allowed.
		{StatusPending, StatusShipped, true},
		{StatusPaid, StatusDelivered, true},

		// Backward and self moves are not.
		{StatusPaid, StatusPending, false},
		{StatusShipped, StatusProcessing, false},
		{StatusProcessing, StatusProcessing, false},

		// Cancellation works from any non-terminal status.
		{StatusPending, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},

		// Terminal statuses admit nothing.
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
	}

	for _, tc := range cases {
		err := tc.from.CanTransition(tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		var transitionErr *InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, transitionErr.From)
		assert.Equal(t, tc.to, transitionErr.To)
	}
}

func TestStockCommitted(t *testing.T) {
	assert.True(t, StatusPending.StockCommitted())
	assert.True(t, StatusPaid.StockCommitted())
	assert.True(t, StatusProcessing.StockCommitted())
	assert.False(t, StatusShipped.StockCommitted())
	assert.False(t, StatusDelivered.StockCommitted())
	assert.False(t, StatusCancelled.StockCommitted())
}

func TestApplyStatusStampsTimestampsOnce(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	o := Order{Status: StatusPending, CreatedAt: t0, UpdatedAt: t0}
	restock, err := o.ApplyStatus(StatusPaid, t1)
	require.NoError(t, err)
	assert.False(t, restock)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, t1, *o.PaidAt)
	assert.Equal(t, t1, o.UpdatedAt)

	// An order that already carries a paid_at keeps the original stamp.
	o2 := Order{Status: StatusPending, PaidAt: &t0}
	_, err = o2.ApplyStatus(StatusPaid, t1)
	require.NoError(t, err)
	assert.Equal(t, t0, *o2.PaidAt)
}

func TestApplyStatusCancelReportsRestock(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, from := range []Status{StatusPending, StatusPaid, StatusProcessing} {
		o := Order{Status: from}
		restock, err := o.ApplyStatus(StatusCancelled, now)
		require.NoError(t, err)
		assert.True(t, restock, "cancel from %s must restock", from)
		assert.Equal(t, StatusCancelled, o.Status)
		require.NotNil(t, o.CancelledAt)
	}

	// A shipped order's stock already left the warehouse.
	o := Order{Status: StatusShipped}
	restock, err := o.ApplyStatus(StatusCancelled, now)
	require.NoError(t, err)
	assert.False(t, restock)
}

func TestApplyStatusRejectsInvalidMove(t *testing.T) {
	o := Order{Status: StatusDelivered}
	_, err := o.ApplyStatus(StatusCancelled, time.Now())

	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, StatusDelivered, o.Status, "failed transitions must not mutate the order")
}
