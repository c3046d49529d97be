package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"manjok-portal/portal-svc/internal/cart"
	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/navigation"
	"manjok-portal/portal-svc/internal/payment"
	"manjok-portal/portal-svc/internal/session"
	"manjok-portal/portal-svc/internal/validation"

	"github.com/rs/zerolog"
)

var (
	ErrCheckoutInProgress = errors.New("checkout is already in progress")
	ErrWrongPortal        = errors.New("operation is not available in this portal")
	ErrNoRestaurant       = errors.New("no restaurant selected")
	ErrMenuNotFound       = errors.New("menu not found in the selected restaurant")
	ErrNoHandoff          = errors.New("no payment hand-off to render")
)

const (
	restaurantPageSize = 20
	menuPageSize       = 50
	orderPageSize      = 20
)

type PortalDeps struct {
	Role           domain.Role
	ProfileID      string
	Session        *session.Store
	API            BackendAPI
	SessionStorage KeyValue
	Bridge         PaymentBridge
	Geocoder       Geocoder
	QR             QRGenerator
	Markers        MarkerCache
	Publisher      EventPublisher
	Validator      *validation.Validator
	Logger         zerolog.Logger
}

// Portal is the owned application state of one portal in one browser profile.
type Portal struct {
	role      domain.Role
	profileID string
	sessions  *session.Store
	bound     session.Bound
	api       BackendAPI
	cart      *cart.Cart
	checkout  *cart.Checkout
	resolver  *payment.Resolver
	bridge    PaymentBridge
	geocoder  Geocoder
	qr        QRGenerator
	validator *validation.Validator
	nav       *navigation.Navigator
	logger    zerolog.Logger

	checkingOut atomic.Bool
	lastSeen    atomic.Int64

	mu       sync.Mutex
	selected *domain.Restaurant
	menus    []domain.Menu
	delivery *domain.DeliveryInfo
	handoff  *payment.Handoff
	notice   string
}

func NewPortal(deps PortalDeps) *Portal {
	logger := deps.Logger.With().Str("role", string(deps.Role)).Str("profile", deps.ProfileID).Logger()
	validator := deps.Validator
	if validator == nil {
		validator = validation.New()
	}

	p := &Portal{
		role:      deps.Role,
		profileID: deps.ProfileID,
		sessions:  deps.Session,
		bound:     session.Bound{Store: deps.Session, Role: deps.Role},
		api:       deps.API,
		cart:      cart.New(),
		bridge:    deps.Bridge,
		geocoder:  deps.Geocoder,
		qr:        deps.QR,
		validator: validator,
		nav:       navigation.New(deps.Role),
		logger:    logger,
	}

	if deps.Role == domain.RoleClient {
		p.checkout = cart.NewCheckout(cart.Dependencies{
			Cart:      p.cart,
			Session:   p.bound,
			Storage:   deps.SessionStorage,
			Orders:    deps.API,
			Validator: validator,
			Publisher: deps.Publisher,
			Role:      deps.Role,
			Logger:    logger,
		})
		p.resolver = payment.NewResolver(p.checkout, deps.Markers, logger)
	}
	p.registerLoaders()
	p.touch()
	return p
}

func (p *Portal) Role() domain.Role {
	return p.role
}

func (p *Portal) touch() {
	p.lastSeen.Store(time.Now().UnixNano())
}

func (p *Portal) idleSince() time.Time {
	return time.Unix(0, p.lastSeen.Load())
}

func (p *Portal) requireRole(role domain.Role) error {
	if p.role != role {
		return ErrWrongPortal
	}
	return nil
}

func (p *Portal) setNotice(notice string) {
	p.mu.Lock()
	p.notice = notice
	p.mu.Unlock()
}

func (p *Portal) popNotice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.notice
	p.notice = ""
	return n
}

// Screen is everything a portal view shows at once.
type Screen struct {
	Menu   []navigation.MenuEntry `json:"menu"`
	View   navigation.View        `json:"view"`
	Notice string                 `json:"notice,omitempty"`
}

// EnterResult tells the caller either where to redirect or what to show.
type EnterResult struct {
	Redirect   string              `json:"redirect,omitempty"`
	Resolution *payment.Resolution `json:"resolution,omitempty"`
	Screen     *Screen             `json:"screen,omitempty"`
}

// Enter initializes the portal view. A login redirect is returned as
// *session.LoginRequiredError; a consumed payment return yields Redirect
// to the clean portal path.
func (p *Portal) Enter(ctx context.Context, query url.Values) (*EnterResult, error) {
	p.touch()
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return nil, err
	}

	if payment.HasReturnMarkers(query) {
		var res *payment.Resolution
		if p.resolver != nil {
			res = p.resolver.Resolve(ctx, query)
		}
		if res != nil {
			p.setNotice(res.Notice)
			if res.Order != nil {
				_ = p.nav.Select("orders")
			} else if res.Outcome.Kind == payment.OutcomeTestSuccess || res.Outcome.Kind == payment.OutcomeTestFailure {
				_ = p.nav.Select("payment")
			}
		}
		return &EnterResult{Redirect: p.role.PortalPath(), Resolution: res}, nil
	}

	screen, err := p.Screen(ctx)
	if err != nil {
		return nil, err
	}
	return &EnterResult{Screen: screen}, nil
}

// Screen renders the active tab. Loader failures become the notice rather than an error.
func (p *Portal) Screen(ctx context.Context) (*Screen, error) {
	p.touch()
	if _, err := p.bound.RequireSession(ctx); err != nil {
		return nil, err
	}

	view, err := p.nav.Render(ctx)
	notice := p.popNotice()
	if err != nil {
		var loginErr *session.LoginRequiredError
		if errors.As(err, &loginErr) {
			return nil, err
		}
		p.logger.Warn().Err(err).Str("tab", view.Tab.ID).Msg("tab failed to load")
		notice = "오류가 발생했습니다: " + err.Error()
	}

	return &Screen{
		Menu:   p.nav.Menu(map[string]int{"cart": p.cart.Len()}),
		View:   view,
		Notice: notice,
	}, nil
}

// SignedIn reports whether the portal holds a live token.
func (p *Portal) SignedIn(ctx context.Context) bool {
	_, ok, err := p.bound.Token(ctx)
	return ok && err == nil
}

func (p *Portal) SelectTab(ctx context.Context, tabID string) (*Screen, error) {
	if err := p.nav.Select(tabID); err != nil {
		return nil, err
	}
	return p.Screen(ctx)
}

func (p *Portal) Login(ctx context.Context, form domain.LoginForm) error {
	p.touch()
	form.Email = strings.TrimSpace(form.Email)
	if err := p.validator.Struct(form); err != nil {
		return err
	}
	token, err := p.api.Login(ctx, form)
	if err != nil {
		return err
	}
	return p.sessions.SetToken(ctx, p.role, token)
}

func (p *Portal) Signup(ctx context.Context, form domain.SignupForm) error {
	p.touch()
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.Password = strings.TrimSpace(form.Password)
	form.ConfirmPassword = strings.TrimSpace(form.ConfirmPassword)
	if err := p.validator.Struct(form); err != nil {
		return err
	}
	return p.api.Signup(ctx, form)
}

// Logout forgets the token and everything held in memory for this portal.
func (p *Portal) Logout(ctx context.Context) error {
	p.touch()
	if err := p.sessions.ClearToken(ctx, p.role); err != nil {
		return err
	}
	p.cart.Clear()
	p.mu.Lock()
	p.selected, p.menus, p.delivery, p.handoff, p.notice = nil, nil, nil, nil, ""
	p.mu.Unlock()
	if tabs := navigation.TabsFor(p.role); len(tabs) > 0 {
		_ = p.nav.Select(tabs[0].ID)
	}
	return nil
}

func (p *Portal) registerLoaders() {
	switch p.role {
	case domain.RoleClient:
		p.nav.Register("restaurant", func(ctx context.Context) (any, error) { return p.Restaurants(ctx) })
		p.nav.Register("wishlist", func(ctx context.Context) (any, error) { return p.Wishlist(ctx) })
		p.nav.Register("cart", func(ctx context.Context) (any, error) { return p.CartView(ctx) })
		p.nav.Register("orders", func(ctx context.Context) (any, error) { return p.Orders(ctx) })
		p.nav.Register("payment", func(ctx context.Context) (any, error) {
			return map[string]any{"amount": payment.TestPaymentAmount, "orderName": payment.TestPaymentName}, nil
		})
	case domain.RoleOwner:
		p.nav.Register("my-restaurant", func(ctx context.Context) (any, error) { return p.OwnerRestaurants(ctx) })
		p.nav.Register("payments", func(ctx context.Context) (any, error) {
			end := time.Now()
			return p.ApprovedPayments(ctx, end.AddDate(0, 0, -30).Format(dateLayout), end.Format(dateLayout))
		})
		p.nav.Register("profile", func(ctx context.Context) (any, error) { return p.Profile(ctx) })
	}
}
