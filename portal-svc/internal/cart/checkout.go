package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PendingOrderKey is the single session-storage slot holding the draft.
const PendingOrderKey = "pendingOrder"

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrDraftInFlight = errors.New("a checkout is already pending")
	ErrNoDraft       = errors.New("no pending order")
	ErrDraftMismatch = errors.New("payment return does not match the pending order")
)

type SessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Session interface {
	RequireSession(ctx context.Context) (string, error)
	Identity(ctx context.Context) (string, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
}

type EventPublisher interface {
	PublishCheckoutEvent(ctx context.Context, event domain.CheckoutEvent) error
}

type Validator interface {
	Struct(s any) error
}

// PaymentReturn is what the processor hands back on a successful redirect.
// A zero Amount skips the amount check.
type PaymentReturn struct {
	PaymentKey string
	OrderID    string
	Amount     domain.Won
}

type Dependencies struct {
	Cart      *Cart
	Session   Session
	Storage   SessionStorage
	Orders    OrderCreator
	Validator Validator
	Publisher EventPublisher
	Role      domain.Role
	Logger    zerolog.Logger
}

type Checkout struct {
	cart      *Cart
	session   Session
	storage   SessionStorage
	orders    OrderCreator
	validator Validator
	publisher EventPublisher
	role      domain.Role
	logger    zerolog.Logger
	now       func() time.Time
}

func NewCheckout(deps Dependencies) *Checkout {
	return &Checkout{
		cart:      deps.Cart,
		session:   deps.Session,
		storage:   deps.Storage,
		orders:    deps.Orders,
		validator: deps.Validator,
		publisher: deps.Publisher,
		role:      deps.Role,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Begin snapshots the cart into a draft. The cart itself is never modified.
func (c *Checkout) Begin(ctx context.Context, delivery domain.DeliveryInfo) (*domain.DraftOrder, error) {
	items := c.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if _, err := c.session.RequireSession(ctx); err != nil {
		return nil, err
	}
	if c.validator != nil {
		if err := c.validator.Struct(delivery.Form()); err != nil {
			return nil, err
		}
	}

	existing, err := c.Draft(ctx)
	if err != nil && !errors.Is(err, ErrNoDraft) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDraftInFlight
	}

	draft := &domain.DraftOrder{
		OrderID:     "order_" + uuid.NewString(),
		Items:       items,
		TotalAmount: Total(items),
		Delivery:    delivery,
		CreatedAt:   c.now(),
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	if err := c.storage.Set(ctx, PendingOrderKey, string(payload)); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	c.logger.Info().Str("order_id", draft.OrderID).Int64("amount", int64(draft.TotalAmount)).Msg("checkout started")
	c.publish(ctx, domain.EventCheckoutStarted, domain.CheckoutDrafted, draft, "")
	return draft, nil
}

// Complete turns the draft into a backend order. Any failure leaves the draft in place.
func (c *Checkout) Complete(ctx context.Context, ret PaymentReturn) (*domain.Order, error) {
	draft, err := c.Draft(ctx)
	if err != nil {
		return nil, err
	}
	if ret.OrderID != draft.OrderID || (ret.Amount != 0 && ret.Amount != draft.TotalAmount) {
		c.logger.Warn().Str("order_id", ret.OrderID).Str("draft_id", draft.OrderID).
			Int64("amount", int64(ret.Amount)).Msg("payment return does not match draft")
		return nil, ErrDraftMismatch
	}

	userID, err := c.session.Identity(ctx)
	if err != nil && !errors.Is(err, session.ErrNoIdentity) {
		return nil, err
	}

	req := domain.CreateOrderRequest{
		Orderer: domain.Orderer{
			UserID:          userID,
			Name:            draft.Delivery.Name,
			Phone:           draft.Delivery.Phone,
			DeliveryRequest: draft.Delivery.DeliveryRequest,
			Address:         draft.Delivery.Address,
		},
		Items:      draft.Items,
		PaymentKey: ret.PaymentKey,
	}

	order, err := c.orders.CreateOrder(ctx, req, draft.OrderID)
	if err != nil {
		c.logger.Error().Err(err).Str("order_id", draft.OrderID).Msg("order creation failed")
		c.publish(ctx, domain.EventOrderFailed, domain.CheckoutFailed, draft, err.Error())
		return nil, err
	}

	if err := c.storage.Delete(ctx, PendingOrderKey); err != nil {
		c.logger.Warn().Err(err).Str("order_id", draft.OrderID).Msg("failed to clear draft")
	}
	c.cart.Clear()

	c.logger.Info().Str("order_id", draft.OrderID).Str("backend_order_id", order.OrderID).Msg("order created")
	c.publish(ctx, domain.EventOrderCreated, domain.CheckoutConfirmed, draft, "")
	return order, nil
}

// Abandon drops the draft and keeps the cart. It is a no-op without a draft.
// A non-empty orderID must name the pending draft, otherwise ErrDraftMismatch
// is returned and the draft stays.
func (c *Checkout) Abandon(ctx context.Context, orderID, reason string) error {
	draft, err := c.Draft(ctx)
	if errors.Is(err, ErrNoDraft) {
		return nil
	}
	if err != nil {
		return err
	}
	if orderID != "" && orderID != draft.OrderID {
		c.logger.Warn().Str("order_id", orderID).Str("draft_id", draft.OrderID).Msg("abandon does not match draft")
		return ErrDraftMismatch
	}
	if err := c.storage.Delete(ctx, PendingOrderKey); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	c.publish(ctx, domain.EventCheckoutAbandoned, domain.CheckoutAbandoned, draft, reason)
	return nil
}

func (c *Checkout) State(ctx context.Context) (domain.CheckoutState, error) {
	_, err := c.Draft(ctx)
	switch {
	case err == nil:
		return domain.CheckoutDrafted, nil
	case errors.Is(err, ErrNoDraft):
		return domain.CheckoutEmpty, nil
	default:
		return "", err
	}
}

func (c *Checkout) Draft(ctx context.Context) (*domain.DraftOrder, error) {
	raw, ok, err := c.storage.Get(ctx, PendingOrderKey)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok || raw == "" {
		return nil, ErrNoDraft
	}
	var draft domain.DraftOrder
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &draft, nil
}

func (c *Checkout) publish(ctx context.Context, typ domain.CheckoutEventType, state domain.CheckoutState, draft *domain.DraftOrder, reason string) {
	if c.publisher == nil {
		return
	}
	event := domain.CheckoutEvent{
		Type:        typ,
		State:       state,
		OrderID:     draft.OrderID,
		Role:        c.role,
		TotalAmount: draft.TotalAmount,
		ItemCount:   len(draft.Items),
		Reason:      reason,
		OccurredAt:  c.now(),
	}
	if err := c.publisher.PublishCheckoutEvent(ctx, event); err != nil {
		c.logger.Warn().Err(err).Str("event", string(typ)).Msg("checkout event not published")
	}
}
