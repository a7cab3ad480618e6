package domain

// Events published through the transactional outbox.

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
)

type OrderCreated struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
}

type OrderPaid struct {
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type OrderCancelled struct {
	OrderID   string `json:"order_id"`
	Initiator string `json:"initiator"`
	Restocked bool   `json:"restocked"`
}
