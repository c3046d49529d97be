package domain

import "time"

type OrderStatus string

const (
	OrderPaymentPending   OrderStatus = "PAYMENT_PENDING"
	OrderPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderPending          OrderStatus = "PENDING"
	OrderConfirmed        OrderStatus = "CONFIRMED"
	OrderPreparing        OrderStatus = "PREPARING"
	OrderDelivering       OrderStatus = "DELIVERING"
	OrderCompleted        OrderStatus = "COMPLETED"
	OrderCanceled         OrderStatus = "CANCELED"
	OrderCancelled        OrderStatus = "CANCELLED"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPaymentPending:   "결제대기",
	OrderPaymentCompleted: "결제완료",
	OrderPending:          "대기중",
	OrderConfirmed:        "접수완료",
	OrderPreparing:        "준비중",
	OrderDelivering:       "배달중",
	OrderCompleted:        "완료",
	OrderCanceled:         "취소됨",
	OrderCancelled:        "취소됨",
}

// Label returns the display label, or the raw status when unknown.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

type CheckoutState string

const (
	CheckoutEmpty     CheckoutState = "EMPTY"
	CheckoutDrafted   CheckoutState = "DRAFTED"
	CheckoutConfirmed CheckoutState = "CONFIRMED"
	CheckoutFailed    CheckoutState = "FAILED"
	CheckoutAbandoned CheckoutState = "ABANDONED"
)

type CheckoutEventType string

const (
	EventCheckoutStarted   CheckoutEventType = "checkout_started"
	EventOrderCreated      CheckoutEventType = "order_created"
	EventOrderFailed       CheckoutEventType = "order_failed"
	EventCheckoutAbandoned CheckoutEventType = "checkout_abandoned"
)

type CheckoutEvent struct {
	Type        CheckoutEventType `json:"type"`
	State       CheckoutState     `json:"state"`
	OrderID     string            `json:"orderId"`
	Role        Role              `json:"role"`
	TotalAmount Won               `json:"totalAmount"`
	ItemCount   int               `json:"itemCount"`
	Reason      string            `json:"reason,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}
