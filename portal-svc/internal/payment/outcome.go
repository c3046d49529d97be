package payment

import (
	"net/url"
	"strconv"

	"manjok-portal/portal-svc/internal/domain"
)

type OutcomeKind string

const (
	OutcomeNone         OutcomeKind = ""
	OutcomeOrderSuccess OutcomeKind = "order_success"
	OutcomeOrderFailure OutcomeKind = "order_failure"
	OutcomeTestSuccess  OutcomeKind = "test_success"
	OutcomeTestFailure  OutcomeKind = "test_failure"
)

type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	PaymentKey string      `json:"paymentKey,omitempty"`
	OrderID    string      `json:"orderId,omitempty"`
	Amount     domain.Won  `json:"amount,omitempty"`
	Code       string      `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// ParseReturn classifies the query the processor redirected back with.
func ParseReturn(q url.Values) Outcome {
	paymentKey := q.Get("paymentKey")
	orderID := q.Get("orderId")
	amount := parseAmount(q.Get("amount"))

	switch {
	case q.Get("orderSuccess") != "" && paymentKey != "" && orderID != "":
		return Outcome{Kind: OutcomeOrderSuccess, PaymentKey: paymentKey, OrderID: orderID, Amount: amount}
	case q.Get("orderFail") != "":
		return Outcome{Kind: OutcomeOrderFailure, OrderID: orderID, Code: q.Get("code"), Message: q.Get("message")}
	case paymentKey != "" && orderID != "":
		return Outcome{Kind: OutcomeTestSuccess, PaymentKey: paymentKey, OrderID: orderID, Amount: amount}
	case q.Get("payment") == "fail":
		return Outcome{Kind: OutcomeTestFailure, OrderID: orderID, Code: q.Get("code"), Message: q.Get("message")}
	}
	return Outcome{Kind: OutcomeNone}
}

// HasReturnMarkers reports whether q carries anything ParseReturn consumes.
func HasReturnMarkers(q url.Values) bool {
	for _, key := range []string{"orderSuccess", "orderFail", "payment", "paymentKey", "orderId", "amount", "code", "message"} {
		if q.Has(key) {
			return true
		}
	}
	return false
}

func parseAmount(raw string) domain.Won {
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return domain.Won(f + 0.5)
}
