package service

import (
	"context"
	"strings"
	"time"

	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/validation"
)

const dateLayout = "2006-01-02"

func (p *Portal) owner(ctx context.Context) error {
	p.touch()
	if err := p.requireRole(domain.RoleOwner); err != nil {
		return err
	}
	_, err := p.bound.RequireSession(ctx)
	return err
}

func (p *Portal) OwnerRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.ListMyRestaurants(ctx)
}

func (p *Portal) OwnerRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.GetMyRestaurant(ctx, id)
}

func (p *Portal) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.ListCategories(ctx)
}

func (p *Portal) CreateRestaurant(ctx context.Context, in domain.RestaurantInput) (*domain.Restaurant, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	if err := p.validator.Struct(in); err != nil {
		return nil, err
	}
	return p.api.CreateRestaurant(ctx, in)
}

// UpdateRestaurant sends a partial update; empty fields are left to the backend.
func (p *Portal) UpdateRestaurant(ctx context.Context, id string, in domain.RestaurantInput) (*domain.Restaurant, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.UpdateRestaurant(ctx, id, in)
}

func (p *Portal) DeleteRestaurant(ctx context.Context, id string) error {
	if err := p.owner(ctx); err != nil {
		return err
	}
	return p.api.DeleteRestaurant(ctx, id)
}

func (p *Portal) OwnerMenus(ctx context.Context, restaurantID string) ([]domain.Menu, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.ListMyMenus(ctx, restaurantID)
}

func (p *Portal) CreateMenu(ctx context.Context, restaurantID string, in domain.MenuInput) (*domain.Menu, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	if err := p.validator.Struct(in); err != nil {
		return nil, err
	}
	return p.api.CreateMenu(ctx, restaurantID, in)
}

func (p *Portal) UpdateMenu(ctx context.Context, restaurantID, menuID string, in domain.MenuInput) (*domain.Menu, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	if in.Price < 0 {
		return nil, validation.FieldErrors{"price": "가격은 0보다 커야 합니다."}
	}
	return p.api.UpdateMenu(ctx, restaurantID, menuID, in)
}

func (p *Portal) DeleteMenu(ctx context.Context, restaurantID, menuID string) error {
	if err := p.owner(ctx); err != nil {
		return err
	}
	return p.api.DeleteMenu(ctx, restaurantID, menuID)
}

func (p *Portal) GenerateMenuDescription(ctx context.Context, menuInfo string) (string, error) {
	if err := p.owner(ctx); err != nil {
		return "", err
	}
	menuInfo = strings.TrimSpace(menuInfo)
	if menuInfo == "" {
		return "", validation.FieldErrors{"menuInfo": "메뉴 정보를 입력해주세요."}
	}
	return p.api.GenerateMenuDescription(ctx, menuInfo)
}

// ApprovedPayments lists approved payments between two YYYY-MM-DD dates, inclusive.
func (p *Portal) ApprovedPayments(ctx context.Context, startDate, endDate string) ([]domain.PaymentSummary, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	start, errStart := time.Parse(dateLayout, startDate)
	end, errEnd := time.Parse(dateLayout, endDate)
	switch {
	case errStart != nil:
		return nil, validation.FieldErrors{"startDate": "날짜 형식은 YYYY-MM-DD 입니다."}
	case errEnd != nil:
		return nil, validation.FieldErrors{"endDate": "날짜 형식은 YYYY-MM-DD 입니다."}
	case end.Before(start):
		return nil, validation.FieldErrors{"endDate": "종료일은 시작일 이후여야 합니다."}
	}
	return p.api.ApprovedPayments(ctx, startDate, endDate)
}

func (p *Portal) Profile(ctx context.Context) (*domain.User, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	return p.api.CurrentUser(ctx)
}

// AddAddress registers an address for the signed-in user, identified by the token subject.
func (p *Portal) AddAddress(ctx context.Context, addr domain.UserAddress) ([]domain.UserAddress, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(addr.Address) == "" {
		return nil, validation.FieldErrors{"address": "필수 입력 항목입니다."}
	}
	userID, err := p.bound.Identity(ctx)
	if err != nil {
		return nil, err
	}
	return p.api.AddUserAddress(ctx, userID, addr)
}

func (p *Portal) DeleteAddress(ctx context.Context, index int) ([]domain.UserAddress, error) {
	if err := p.owner(ctx); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, validation.FieldErrors{"index": "잘못된 주소 번호입니다."}
	}
	userID, err := p.bound.Identity(ctx)
	if err != nil {
		return nil, err
	}
	return p.api.DeleteUserAddress(ctx, userID, index)
}
