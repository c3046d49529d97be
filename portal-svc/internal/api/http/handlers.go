package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"manjok-portal/portal-svc/internal/apiclient"
	"manjok-portal/portal-svc/internal/cart"
	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/navigation"
	"manjok-portal/portal-svc/internal/payment"
	"manjok-portal/portal-svc/internal/service"
	"manjok-portal/portal-svc/internal/session"
	"manjok-portal/portal-svc/internal/validation"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Portals interface {
	Portal(profileID string, role domain.Role) *service.Portal
	ResetPassword(ctx context.Context, form domain.PasswordResetForm) error
}

var _ Portals = (*service.Registry)(nil)

type Handler struct {
	portals Portals
	logger  zerolog.Logger
}

func NewHandler(portals Portals, logger zerolog.Logger) *Handler {
	return &Handler{portals: portals, logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/view/auth/password-reset", h.resetPassword).Methods("POST")

	view := r.PathPrefix("/view/{role:client|owner|admin}").Subrouter()
	view.HandleFunc("", h.enter).Methods("GET")
	view.HandleFunc("/login", h.loginPage).Methods("GET")
	view.HandleFunc("/login", h.login).Methods("POST")
	view.HandleFunc("/signup", h.signup).Methods("POST")
	view.HandleFunc("/logout", h.logout).Methods("POST")
	view.HandleFunc("/tabs/{tab}", h.selectTab).Methods("GET")

	client := r.PathPrefix("/view/{role:client}").Subrouter()
	client.HandleFunc("/restaurants", h.restaurants).Methods("GET")
	client.HandleFunc("/restaurants/{id}", h.showRestaurant).Methods("GET")
	client.HandleFunc("/restaurants/{id}/favorite", h.toggleFavorite).Methods("POST")
	client.HandleFunc("/favorites", h.wishlist).Methods("GET")
	client.HandleFunc("/favorites/{id}", h.removeFavorite).Methods("DELETE")
	client.HandleFunc("/cart", h.cartView).Methods("GET")
	client.HandleFunc("/cart/items", h.addToCart).Methods("POST")
	client.HandleFunc("/cart/items/{index:[0-9]+}", h.updateCartItem).Methods("PATCH")
	client.HandleFunc("/cart/items/{index:[0-9]+}", h.removeCartItem).Methods("DELETE")
	client.HandleFunc("/delivery", h.setDelivery).Methods("PUT")
	client.HandleFunc("/checkout", h.checkout).Methods("POST")
	client.HandleFunc("/checkout", h.abandonCheckout).Methods("DELETE")
	client.HandleFunc("/checkout/qrcode", h.checkoutQRCode).Methods("GET")
	client.HandleFunc("/test-payment", h.testPayment).Methods("POST")
	client.HandleFunc("/orders", h.orders).Methods("GET")
	client.HandleFunc("/orders/{id}", h.orderDetail).Methods("GET")

	owner := r.PathPrefix("/view/{role:owner}").Subrouter()
	owner.HandleFunc("/restaurants", h.ownerRestaurants).Methods("GET")
	owner.HandleFunc("/restaurants", h.createRestaurant).Methods("POST")
	owner.HandleFunc("/restaurants/{id}", h.ownerRestaurant).Methods("GET")
	owner.HandleFunc("/restaurants/{id}", h.updateRestaurant).Methods("PUT")
	owner.HandleFunc("/restaurants/{id}", h.deleteRestaurant).Methods("DELETE")
	owner.HandleFunc("/restaurants/{id}/menus", h.ownerMenus).Methods("GET")
	owner.HandleFunc("/restaurants/{id}/menus", h.createMenu).Methods("POST")
	owner.HandleFunc("/restaurants/{id}/menus/{menuId}", h.updateMenu).Methods("PUT")
	owner.HandleFunc("/restaurants/{id}/menus/{menuId}", h.deleteMenu).Methods("DELETE")
	owner.HandleFunc("/menu-description", h.menuDescription).Methods("POST")
	owner.HandleFunc("/categories", h.categories).Methods("GET")
	owner.HandleFunc("/payments", h.approvedPayments).Methods("GET")
	owner.HandleFunc("/profile", h.profile).Methods("GET")
	owner.HandleFunc("/addresses", h.addAddress).Methods("POST")
	owner.HandleFunc("/addresses/{index:[0-9]+}", h.deleteAddress).Methods("DELETE")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   "portal-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// portal picks the portal from the route's role segment, never from the body.
func (h *Handler) portal(r *http.Request) (*service.Portal, error) {
	role, ok := domain.RoleFromSegment(mux.Vars(r)["role"])
	if !ok {
		return nil, fmt.Errorf("%w: %q", session.ErrUnknownPortal, r.URL.Path)
	}
	return h.portals.Portal(profileFrom(r.Context()), role), nil
}

func (h *Handler) enter(w http.ResponseWriter, r *http.Request) {
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := p.Enter(r.Context(), r.URL.Query())
	if err != nil {
		var loginErr *session.LoginRequiredError
		if errors.As(err, &loginErr) {
			http.Redirect(w, r, loginErr.LoginPath, http.StatusFound)
			return
		}
		h.writeError(w, err)
		return
	}
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, res.Screen)
}

// loginPage sends an already signed-in user straight to the portal.
func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if p.SignedIn(r.Context()) {
		http.Redirect(w, r, p.Role().PortalPath(), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": string(p.Role()), "loginPath": p.Role().LoginPath()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form domain.LoginForm
	if !decodeBody(w, r, &form) {
		return
	}
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := p.Login(r.Context(), form); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": p.Role().PortalPath()})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var form domain.SignupForm
	if !decodeBody(w, r, &form) {
		return
	}
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := p.Signup(r.Context(), form); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"redirect": p.Role().LoginPath()})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := p.Logout(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect": p.Role().LoginPath()})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var form domain.PasswordResetForm
	if !decodeBody(w, r, &form) {
		return
	}
	if err := h.portals.ResetPassword(r.Context(), form); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "비밀번호가 변경되었습니다."})
}

func (h *Handler) selectTab(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.SelectTab(ctx, mux.Vars(r)["tab"])
	})
}

func (h *Handler) restaurants(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Restaurants(ctx)
	})
}

func (h *Handler) showRestaurant(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.ShowRestaurant(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		favorite, err := p.ToggleFavorite(ctx, mux.Vars(r)["id"])
		if err != nil {
			return nil, err
		}
		return map[string]bool{"isFavorite": favorite}, nil
	})
}

func (h *Handler) wishlist(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Wishlist(ctx)
	})
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, func(ctx context.Context, p *service.Portal) (any, error) {
		return nil, p.RemoveFavorite(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) cartView(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.CartView(ctx)
	})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MenuID string `json:"menuId"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.AddToCart(ctx, body.MenuID)
	})
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta int `json:"delta"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.UpdateCartQuantity(ctx, index, body.Delta)
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.RemoveFromCart(ctx, index)
	})
}

func (h *Handler) setDelivery(w http.ResponseWriter, r *http.Request) {
	var info domain.DeliveryInfo
	if !decodeBody(w, r, &info) {
		return
	}
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.SetDelivery(ctx, info)
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Checkout(ctx)
	})
}

func (h *Handler) abandonCheckout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, func(ctx context.Context, p *service.Portal) (any, error) {
		return nil, p.AbandonCheckout(ctx)
	})
}

func (h *Handler) checkoutQRCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	png, err := p.CheckoutQRCode(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write qr code")
	}
}

func (h *Handler) testPayment(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.StartTestPayment(ctx)
	})
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Orders(ctx)
	})
}

func (h *Handler) orderDetail(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.OrderDetail(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) ownerRestaurants(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.OwnerRestaurants(ctx)
	})
}

func (h *Handler) ownerRestaurant(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.OwnerRestaurant(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var in domain.RestaurantInput
	if !decodeBody(w, r, &in) {
		return
	}
	h.respond(w, r, http.StatusCreated, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.CreateRestaurant(ctx, in)
	})
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var in domain.RestaurantInput
	if !decodeBody(w, r, &in) {
		return
	}
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.UpdateRestaurant(ctx, mux.Vars(r)["id"], in)
	})
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNoContent, func(ctx context.Context, p *service.Portal) (any, error) {
		return nil, p.DeleteRestaurant(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) ownerMenus(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.OwnerMenus(ctx, mux.Vars(r)["id"])
	})
}

func (h *Handler) createMenu(w http.ResponseWriter, r *http.Request) {
	var in domain.MenuInput
	if !decodeBody(w, r, &in) {
		return
	}
	h.respond(w, r, http.StatusCreated, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.CreateMenu(ctx, mux.Vars(r)["id"], in)
	})
}

func (h *Handler) updateMenu(w http.ResponseWriter, r *http.Request) {
	var in domain.MenuInput
	if !decodeBody(w, r, &in) {
		return
	}
	vars := mux.Vars(r)
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.UpdateMenu(ctx, vars["id"], vars["menuId"], in)
	})
}

func (h *Handler) deleteMenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.respond(w, r, http.StatusNoContent, func(ctx context.Context, p *service.Portal) (any, error) {
		return nil, p.DeleteMenu(ctx, vars["id"], vars["menuId"])
	})
}

func (h *Handler) menuDescription(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MenuInfo string `json:"menuInfo"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		content, err := p.GenerateMenuDescription(ctx, body.MenuInfo)
		if err != nil {
			return nil, err
		}
		return map[string]string{"responseContent": content}, nil
	})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Categories(ctx)
	})
}

func (h *Handler) approvedPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.ApprovedPayments(ctx, q.Get("startDate"), q.Get("endDate"))
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.Profile(ctx)
	})
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	var addr domain.UserAddress
	if !decodeBody(w, r, &addr) {
		return
	}
	h.respond(w, r, http.StatusCreated, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.AddAddress(ctx, addr)
	})
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	h.respond(w, r, http.StatusOK, func(ctx context.Context, p *service.Portal) (any, error) {
		return p.DeleteAddress(ctx, index)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, *service.Portal) (any, error)) {
	p, err := h.portal(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out, err := fn(r.Context(), p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		loginErr *session.LoginRequiredError
		fieldErr validation.FieldErrors
		apiErr   *apiclient.APIError
	)
	switch {
	case errors.As(err, &loginErr):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "로그인이 필요합니다.", "redirect": loginErr.LoginPath})
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErr})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": apiErr.Message, "status": apiErr.StatusCode})
	case errors.Is(err, session.ErrUnknownPortal), errors.Is(err, navigation.ErrUnknownTab):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrWrongPortal):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, cart.ErrItemNotFound), errors.Is(err, service.ErrMenuNotFound),
		errors.Is(err, service.ErrNoHandoff), errors.Is(err, cart.ErrNoDraft):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrCheckoutInProgress), errors.Is(err, cart.ErrDraftInFlight),
		errors.Is(err, cart.ErrEmptyCart), errors.Is(err, cart.ErrRestaurantMismatch),
		errors.Is(err, cart.ErrMenuUnavailable), errors.Is(err, service.ErrNoRestaurant):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrInvalidCheckout):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error().Err(err).Msg("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
