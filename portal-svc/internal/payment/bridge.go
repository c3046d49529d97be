package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"manjok-portal/portal-svc/internal/domain"

	"github.com/google/uuid"
)

const (
	// TestPaymentAmount is charged by the standalone test checkout.
	TestPaymentAmount domain.Won = 100
	TestPaymentName              = "테스트 결제"

	currencyKRW = "KRW"
	methodCard  = "CARD"
)

var ErrInvalidCheckout = errors.New("invalid checkout request")

type CheckoutRequest struct {
	Amount            domain.Won
	OrderReference    string
	OrderName         string
	CustomerKey       string
	CustomerName      string
	SuccessReturnPath string
	FailureReturnPath string
}

// Handoff is where the user has to be sent to pay. Nothing else comes back
// from initiation; the outcome arrives later through the return URL.
type Handoff struct {
	RedirectURL string     `json:"redirectUrl"`
	OrderID     string     `json:"orderId"`
	Amount      domain.Won `json:"amount"`
	OrderName   string     `json:"orderName"`
}

type Bridge interface {
	Initiate(ctx context.Context, req CheckoutRequest) (*Handoff, error)
}

// TossBridge hands off to the processor's hosted checkout page.
type TossBridge struct {
	ClientKey    string
	CheckoutURL  string
	PublicOrigin string
}

var _ Bridge = TossBridge{}

func (b TossBridge) Initiate(ctx context.Context, req CheckoutRequest) (*Handoff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case req.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidCheckout)
	case req.OrderReference == "":
		return nil, fmt.Errorf("%w: missing order reference", ErrInvalidCheckout)
	case req.CustomerKey == "":
		return nil, fmt.Errorf("%w: missing customer key", ErrInvalidCheckout)
	case b.ClientKey == "":
		return nil, fmt.Errorf("%w: payment client key is not configured", ErrInvalidCheckout)
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = "사용자"
	}

	q := url.Values{}
	q.Set("clientKey", b.ClientKey)
	q.Set("customerKey", req.CustomerKey)
	q.Set("method", methodCard)
	q.Set("currency", currencyKRW)
	q.Set("amount", strconv.FormatInt(int64(req.Amount), 10))
	q.Set("orderId", req.OrderReference)
	q.Set("orderName", req.OrderName)
	q.Set("customerName", customerName)
	q.Set("successUrl", b.absolute(req.SuccessReturnPath))
	q.Set("failUrl", b.absolute(req.FailureReturnPath))

	return &Handoff{
		RedirectURL: b.CheckoutURL + "?" + q.Encode(),
		OrderID:     req.OrderReference,
		Amount:      req.Amount,
		OrderName:   req.OrderName,
	}, nil
}

func (b TossBridge) absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(b.PublicOrigin, "/") + path
}

// OrderName is "<first menu>" or "<first menu> 외 <n-1>건".
func OrderName(items []domain.CartItem) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0].MenuName
	}
	return fmt.Sprintf("%s 외 %d건", items[0].MenuName, len(items)-1)
}

// OrderReturnPaths are the success and failure paths for a cart checkout.
func OrderReturnPaths(role domain.Role) (success, failure string) {
	return role.PortalPath() + "?orderSuccess=true", role.PortalPath() + "?orderFail=true"
}

// TestCheckout builds the standalone test payment request.
func TestCheckout(role domain.Role, customerKey string) CheckoutRequest {
	return CheckoutRequest{
		Amount:            TestPaymentAmount,
		OrderReference:    "order_" + uuid.NewString(),
		OrderName:         TestPaymentName,
		CustomerKey:       customerKey,
		SuccessReturnPath: role.PortalPath() + "?payment=success",
		FailureReturnPath: role.PortalPath() + "?payment=fail",
	}
}
