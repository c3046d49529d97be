package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"manjok-portal/portal-svc/internal/domain"
)

const IdempotencyHeader = "Idempotency-Key"

// items decodes either a bare JSON array or a {content, pageInfo} page.
type items[T any] []T

func (l *items[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []T
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var page domain.Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	*l = page.Content
	return nil
}

func sizeQuery(size int) url.Values {
	if size <= 0 {
		return nil
	}
	return url.Values{"size": {strconv.Itoa(size)}}
}

// Auth

func (c *Client) Login(ctx context.Context, form domain.LoginForm) (string, error) {
	var token string
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/auth/login", Body: form, Anonymous: true}, &token)
	return token, err
}

func (c *Client) Signup(ctx context.Context, form domain.SignupForm) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/auth/signup", Body: form, Anonymous: true}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, form domain.PasswordResetForm) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/auth/confirm-password-reset", Body: form, Anonymous: true}, nil)
}

// Customer

func (c *Client) ListRestaurants(ctx context.Context, size int) ([]domain.RestaurantSummary, error) {
	var list items[domain.RestaurantSummary]
	if err := c.Do(ctx, Request{Path: "/v1/common/restaurants", Query: sizeQuery(size)}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := c.Do(ctx, Request{Path: "/v1/common/restaurants/" + url.PathEscape(id)}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ListRestaurantMenus(ctx context.Context, restaurantID string, size int) ([]domain.Menu, error) {
	var list items[domain.Menu]
	path := "/v1/common/restaurants/" + url.PathEscape(restaurantID) + "/menus"
	if err := c.Do(ctx, Request{Path: path, Query: sizeQuery(size)}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) FavoriteCount(ctx context.Context, restaurantID string) (int64, error) {
	var count int64
	err := c.Do(ctx, Request{Path: "/v1/common/favorites/restaurant/" + url.PathEscape(restaurantID) + "/count"}, &count)
	return count, err
}

func (c *Client) IsFavorite(ctx context.Context, restaurantID string) (bool, error) {
	var res struct {
		IsFavorite bool `json:"isFavorite"`
	}
	err := c.Do(ctx, Request{Path: "/v1/customers/favorites/check/restaurant/" + url.PathEscape(restaurantID)}, &res)
	return res.IsFavorite, err
}

func (c *Client) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	var favorites items[domain.Favorite]
	if err := c.Do(ctx, Request{Path: "/v1/customers/favorites"}, &favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, restaurantID string) error {
	body := map[string]string{"type": "RESTAURANT", "restaurantId": restaurantID}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/customers/favorites", Body: body}, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, favoriteID string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/v1/customers/favorites/" + url.PathEscape(favoriteID)}, nil)
}

// CreateOrder submits the order; idempotencyKey lets the backend drop replays.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error) {
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyHeader, idempotencyKey)
	}
	var order domain.Order
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/customers/orders", Body: req, Header: header}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, size int) ([]domain.Order, error) {
	var list items[domain.Order]
	if err := c.Do(ctx, Request{Path: "/v1/customers/orders", Query: sizeQuery(size)}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := c.Do(ctx, Request{Path: "/v1/customers/orders/" + url.PathEscape(orderID)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOrderPayment(ctx context.Context, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := c.Do(ctx, Request{Path: "/v1/customers/payments/order/" + url.PathEscape(orderID)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
