package payment

import (
	"context"
	"errors"
	"net/url"

	"manjok-portal/portal-svc/internal/cart"
	"manjok-portal/portal-svc/internal/domain"

	"github.com/rs/zerolog"
)

const (
	NoticeOrderCompleted  = "주문이 완료되었습니다!"
	NoticeOrderCanceled   = "결제가 취소되었습니다."
	NoticeDraftMissing    = "주문 정보를 찾을 수 없습니다."
	NoticeAlreadyHandled  = "이미 처리된 결제입니다."
	NoticeTestPaymentDone = "테스트 결제가 완료되었습니다."
	NoticeTestPaymentFail = "테스트 결제에 실패했습니다."
	noticeOrderFailed     = "주문 생성 실패: "
)

type Completer interface {
	Complete(ctx context.Context, ret cart.PaymentReturn) (*domain.Order, error)
	Abandon(ctx context.Context, orderID, reason string) error
}

type MarkerCache interface {
	PaymentMarkerKey(orderID string) string
	Exists(ctx context.Context, key string) (bool, error)
	SetMarker(ctx context.Context, key string) error
}

type Resolution struct {
	Outcome Outcome       `json:"outcome"`
	Order   *domain.Order `json:"order,omitempty"`
	Notice  string        `json:"notice,omitempty"`
	// Err is set when order creation failed; the draft is still pending.
	Err error `json:"-"`
}

// Resolver consumes a payment return exactly once per order id where a
// marker cache is available. The backend's idempotency key is the real guard.
type Resolver struct {
	checkout Completer
	cache    MarkerCache
	logger   zerolog.Logger
}

func NewResolver(checkout Completer, cache MarkerCache, logger zerolog.Logger) *Resolver {
	return &Resolver{checkout: checkout, cache: cache, logger: logger}
}

// Resolve returns nil when q carries no payment outcome.
func (r *Resolver) Resolve(ctx context.Context, q url.Values) *Resolution {
	outcome := ParseReturn(q)

	switch outcome.Kind {
	case OutcomeOrderSuccess:
		return r.completeOrder(ctx, outcome)
	case OutcomeOrderFailure:
		err := r.checkout.Abandon(ctx, outcome.OrderID, outcome.Code)
		if errors.Is(err, cart.ErrDraftMismatch) {
			r.logger.Info().Str("order_id", outcome.OrderID).Msg("stale payment failure ignored")
			return &Resolution{Outcome: outcome}
		}
		if err != nil {
			r.logger.Warn().Err(err).Msg("failed to abandon draft after payment failure")
		}
		notice := NoticeOrderCanceled
		if outcome.Message != "" {
			notice += " (" + outcome.Message + ")"
		}
		return &Resolution{Outcome: outcome, Notice: notice}
	case OutcomeTestSuccess:
		return &Resolution{Outcome: outcome, Notice: NoticeTestPaymentDone}
	case OutcomeTestFailure:
		return &Resolution{Outcome: outcome, Notice: NoticeTestPaymentFail}
	}
	return nil
}

func (r *Resolver) completeOrder(ctx context.Context, outcome Outcome) *Resolution {
	var markerKey string
	if r.cache != nil {
		markerKey = r.cache.PaymentMarkerKey(outcome.OrderID)
		exists, err := r.cache.Exists(ctx, markerKey)
		if err != nil {
			r.logger.Warn().Err(err).Str("order_id", outcome.OrderID).Msg("payment marker lookup failed")
		}
		if exists {
			r.logger.Info().Str("order_id", outcome.OrderID).Msg("payment return already handled")
			return &Resolution{Outcome: outcome, Notice: NoticeAlreadyHandled}
		}
	}

	order, err := r.checkout.Complete(ctx, cart.PaymentReturn{
		PaymentKey: outcome.PaymentKey,
		OrderID:    outcome.OrderID,
		Amount:     outcome.Amount,
	})
	if errors.Is(err, cart.ErrNoDraft) {
		return &Resolution{Outcome: outcome, Notice: NoticeDraftMissing, Err: err}
	}
	if err != nil {
		return &Resolution{Outcome: outcome, Notice: noticeOrderFailed + err.Error(), Err: err}
	}

	if r.cache != nil {
		if err := r.cache.SetMarker(ctx, markerKey); err != nil {
			r.logger.Warn().Err(err).Str("order_id", outcome.OrderID).Msg("payment marker not stored")
		}
	}
	return &Resolution{Outcome: outcome, Order: order, Notice: NoticeOrderCompleted}
}
