package service

import (
	"context"
	"fmt"
	"strings"

	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/payment"
)

type RestaurantDetail struct {
	Restaurant    *domain.Restaurant `json:"restaurant"`
	FavoriteCount int64              `json:"favoriteCount"`
	IsFavorite    bool               `json:"isFavorite"`
	Menus         []domain.Menu      `json:"menus"`
}

type CartView struct {
	Items       []domain.CartItem    `json:"items"`
	TotalAmount domain.Won           `json:"totalAmount"`
	State       domain.CheckoutState `json:"state"`
}

type OrderView struct {
	domain.Order
	StatusLabel string `json:"statusLabel"`
}

type OrderDetail struct {
	Order   OrderView       `json:"order"`
	Payment *domain.Payment `json:"payment,omitempty"`
}

func (p *Portal) Restaurants(ctx context.Context) ([]domain.RestaurantSummary, error) {
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	return p.api.ListRestaurants(ctx, restaurantPageSize)
}

// ShowRestaurant loads a restaurant and makes it the target of cart adds.
// A failed favorite check means "not favorited".
func (p *Portal) ShowRestaurant(ctx context.Context, restaurantID string) (*RestaurantDetail, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}

	restaurant, err := p.api.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	count, err := p.api.FavoriteCount(ctx, restaurantID)
	if err != nil {
		p.logger.Warn().Err(err).Str("restaurant_id", restaurantID).Msg("favorite count unavailable")
		count = 0
	}

	favorite := false
	if _, ok, _ := p.bound.Token(ctx); ok {
		if favorite, err = p.api.IsFavorite(ctx, restaurantID); err != nil {
			favorite = false
		}
	}

	menus, err := p.api.ListRestaurantMenus(ctx, restaurantID, menuPageSize)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.selected = restaurant
	p.menus = menus
	p.mu.Unlock()

	return &RestaurantDetail{Restaurant: restaurant, FavoriteCount: count, IsFavorite: favorite, Menus: menus}, nil
}

// ToggleFavorite reports whether the restaurant is a favorite afterwards.
func (p *Portal) ToggleFavorite(ctx context.Context, restaurantID string) (bool, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return false, err
	}
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return false, err
	}

	favorites, err := p.api.ListFavorites(ctx)
	if err != nil {
		return false, err
	}
	for _, f := range favorites {
		if f.Type == "RESTAURANT" && f.RestaurantID == restaurantID {
			if err := p.api.RemoveFavorite(ctx, f.ID); err != nil {
				return true, err
			}
			return false, nil
		}
	}
	if err := p.api.AddFavorite(ctx, restaurantID); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Portal) Wishlist(ctx context.Context) ([]domain.Favorite, error) {
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return nil, err
	}
	return p.api.ListFavorites(ctx)
}

func (p *Portal) RemoveFavorite(ctx context.Context, favoriteID string) error {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return err
	}
	return p.api.RemoveFavorite(ctx, favoriteID)
}

// AddToCart adds a menu of the restaurant last opened with ShowRestaurant.
func (p *Portal) AddToCart(ctx context.Context, menuID string) (*CartView, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}

	p.mu.Lock()
	restaurant := p.selected
	var menu *domain.Menu
	for i := range p.menus {
		if p.menus[i].MenuID == menuID {
			m := p.menus[i]
			menu = &m
			break
		}
	}
	p.mu.Unlock()

	if restaurant == nil {
		return nil, ErrNoRestaurant
	}
	if menu == nil {
		return nil, ErrMenuNotFound
	}
	if err := p.cart.AddItem(*menu, *restaurant); err != nil {
		return nil, err
	}
	p.setNotice(menu.MenuName + "을(를) 장바구니에 담았습니다.")
	return p.CartView(ctx)
}

func (p *Portal) UpdateCartQuantity(ctx context.Context, index, delta int) (*CartView, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if err := p.cart.UpdateQuantity(index, delta); err != nil {
		return nil, err
	}
	return p.CartView(ctx)
}

func (p *Portal) RemoveFromCart(ctx context.Context, index int) (*CartView, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if err := p.cart.RemoveItem(index); err != nil {
		return nil, err
	}
	return p.CartView(ctx)
}

func (p *Portal) CartView(ctx context.Context) (*CartView, error) {
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	state, err := p.checkout.State(ctx)
	if err != nil {
		return nil, err
	}
	return &CartView{Items: p.cart.Items(), TotalAmount: p.cart.TotalAmount(), State: state}, nil
}

// SetDelivery stores the delivery details. Missing coordinates are looked up
// best-effort; a failed lookup keeps the address and checkout stays blocked.
func (p *Portal) SetDelivery(ctx context.Context, info domain.DeliveryInfo) (*domain.DeliveryInfo, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}

	if info.Address.Coordinate == nil && p.geocoder != nil {
		query := strings.Join(nonEmpty(info.Address.Province, info.Address.City, info.Address.District, info.Address.DetailAddress), " ")
		found, err := p.geocoder.Geocode(ctx, query)
		if err != nil {
			p.logger.Warn().Err(err).Str("query", query).Msg("geocoding failed, keeping address without coordinates")
		} else if found.Coordinate != nil {
			c := *found.Coordinate
			info.Address.Coordinate = &c
		}
	}

	p.mu.Lock()
	p.delivery = &info
	p.mu.Unlock()
	return &info, nil
}

// Checkout drafts the cart and hands off to the payment processor. A
// failed hand-off abandons the draft so the user can try again.
func (p *Portal) Checkout(ctx context.Context) (*payment.Handoff, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if !p.checkingOut.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInProgress
	}
	defer p.checkingOut.Store(false)

	p.mu.Lock()
	var delivery domain.DeliveryInfo
	if p.delivery != nil {
		delivery = *p.delivery
	}
	p.mu.Unlock()

	draft, err := p.checkout.Begin(ctx, delivery)
	if err != nil {
		return nil, err
	}

	handoff, err := p.initiate(ctx, draft)
	if err != nil {
		if abandonErr := p.checkout.Abandon(ctx, draft.OrderID, "payment_initiation_failed"); abandonErr != nil {
			p.logger.Error().Err(abandonErr).Str("order_id", draft.OrderID).Msg("failed to abandon draft")
		}
		return nil, err
	}

	p.mu.Lock()
	p.handoff = handoff
	p.mu.Unlock()
	return handoff, nil
}

func (p *Portal) initiate(ctx context.Context, draft *domain.DraftOrder) (*payment.Handoff, error) {
	if p.bridge == nil {
		return nil, fmt.Errorf("%w: no payment bridge configured", payment.ErrInvalidCheckout)
	}
	customerKey, err := p.bound.CustomerKey(ctx)
	if err != nil {
		return nil, err
	}
	success, failure := payment.OrderReturnPaths(p.role)
	return p.bridge.Initiate(ctx, payment.CheckoutRequest{
		Amount:            draft.TotalAmount,
		OrderReference:    draft.OrderID,
		OrderName:         payment.OrderName(draft.Items),
		CustomerKey:       customerKey,
		CustomerName:      draft.Delivery.Name,
		SuccessReturnPath: success,
		FailureReturnPath: failure,
	})
}

// AbandonCheckout drops a pending draft, keeping the cart.
func (p *Portal) AbandonCheckout(ctx context.Context) error {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return err
	}
	return p.checkout.Abandon(ctx, "", "user_abandoned")
}

// CheckoutQRCode renders the last hand-off URL as a PNG.
func (p *Portal) CheckoutQRCode(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	handoff := p.handoff
	p.mu.Unlock()
	if handoff == nil || p.qr == nil {
		return nil, ErrNoHandoff
	}
	return p.qr.Generate(handoff.RedirectURL)
}

func (p *Portal) StartTestPayment(ctx context.Context) (*payment.Handoff, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return nil, err
	}
	if p.bridge == nil {
		return nil, fmt.Errorf("%w: no payment bridge configured", payment.ErrInvalidCheckout)
	}
	customerKey, err := p.bound.CustomerKey(ctx)
	if err != nil {
		return nil, err
	}
	return p.bridge.Initiate(ctx, payment.TestCheckout(p.role, customerKey))
}

func (p *Portal) Orders(ctx context.Context) ([]OrderView, error) {
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return nil, err
	}
	orders, err := p.api.ListOrders(ctx, orderPageSize)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{Order: o, StatusLabel: o.Status.Label()})
	}
	return views, nil
}

// OrderDetail loads an order; its payment record is optional.
func (p *Portal) OrderDetail(ctx context.Context, orderID string) (*OrderDetail, error) {
	p.touch()
	if err := p.requireRole(domain.RoleClient); err != nil {
		return nil, err
	}
	order, err := p.api.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Order: OrderView{Order: *order, StatusLabel: order.Status.Label()}}

	pay, err := p.api.GetOrderPayment(ctx, orderID)
	if err != nil {
		p.logger.Debug().Err(err).Str("order_id", orderID).Msg("no payment info for order")
	} else {
		detail.Payment = pay
	}
	return detail, nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
