package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"manjok-portal/portal-svc/internal/domain"
)

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, Request{Path: "/v1/users"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.Do(ctx, Request{Path: "/v1/common/restaurants/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func ownerRestaurantPath(id string) string {
	if id == "" {
		return "/v1/owners/restaurants"
	}
	return "/v1/owners/restaurants/" + url.PathEscape(id)
}

func (c *Client) ListMyRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	var list items[domain.Restaurant]
	if err := c.Do(ctx, Request{Path: ownerRestaurantPath("")}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetMyRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := c.Do(ctx, Request{Path: ownerRestaurantPath(id)}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateRestaurant(ctx context.Context, in domain.RestaurantInput) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: ownerRestaurantPath(""), Body: in}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) UpdateRestaurant(ctx context.Context, id string, in domain.RestaurantInput) (*domain.Restaurant, error) {
	var r domain.Restaurant
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: ownerRestaurantPath(id), Body: in}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DeleteRestaurant(ctx context.Context, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: ownerRestaurantPath(id)}, nil)
}

func ownerMenuPath(restaurantID, menuID string) string {
	path := ownerRestaurantPath(restaurantID) + "/menus"
	if menuID != "" {
		path += "/" + url.PathEscape(menuID)
	}
	return path
}

func (c *Client) ListMyMenus(ctx context.Context, restaurantID string) ([]domain.Menu, error) {
	var list items[domain.Menu]
	if err := c.Do(ctx, Request{Path: ownerMenuPath(restaurantID, "")}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) CreateMenu(ctx context.Context, restaurantID string, in domain.MenuInput) (*domain.Menu, error) {
	var m domain.Menu
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: ownerMenuPath(restaurantID, ""), Body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) UpdateMenu(ctx context.Context, restaurantID, menuID string, in domain.MenuInput) (*domain.Menu, error) {
	var m domain.Menu
	if err := c.Do(ctx, Request{Method: http.MethodPut, Path: ownerMenuPath(restaurantID, menuID), Body: in}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) DeleteMenu(ctx context.Context, restaurantID, menuID string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: ownerMenuPath(restaurantID, menuID)}, nil)
}

func (c *Client) GenerateMenuDescription(ctx context.Context, menuInfo string) (string, error) {
	var res struct {
		ResponseContent string `json:"responseContent"`
	}
	body := map[string]string{"menuInfo": menuInfo}
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/v1/owners/aiprompt/menu-description", Body: body}, &res); err != nil {
		return "", err
	}
	return res.ResponseContent, nil
}

// ApprovedPayments takes dates as YYYY-MM-DD.
func (c *Client) ApprovedPayments(ctx context.Context, startDate, endDate string) ([]domain.PaymentSummary, error) {
	q := url.Values{"startDate": {startDate}, "endDate": {endDate}}
	var payments []domain.PaymentSummary
	if err := c.Do(ctx, Request{Path: "/api/v1/owner/payments/approved", Query: q}, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (c *Client) AddUserAddress(ctx context.Context, userID string, addr domain.UserAddress) ([]domain.UserAddress, error) {
	var addresses []domain.UserAddress
	path := "/v1/users/" + url.PathEscape(userID) + "/addresses"
	if err := c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: addr}, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

// DeleteUserAddress removes the address at index and returns what is left.
func (c *Client) DeleteUserAddress(ctx context.Context, userID string, index int) ([]domain.UserAddress, error) {
	var addresses []domain.UserAddress
	path := "/v1/users/" + url.PathEscape(userID) + "/addresses/" + strconv.Itoa(index)
	if err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
