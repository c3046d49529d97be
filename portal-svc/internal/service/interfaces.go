package service

import (
	"context"

	"manjok-portal/portal-svc/internal/apiclient"
	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/payment"
)

type AuthAPI interface {
	Login(ctx context.Context, form domain.LoginForm) (string, error)
	Signup(ctx context.Context, form domain.SignupForm) error
	ConfirmPasswordReset(ctx context.Context, form domain.PasswordResetForm) error
}

type CustomerAPI interface {
	ListRestaurants(ctx context.Context, size int) ([]domain.RestaurantSummary, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	ListRestaurantMenus(ctx context.Context, restaurantID string, size int) ([]domain.Menu, error)
	FavoriteCount(ctx context.Context, restaurantID string) (int64, error)
	IsFavorite(ctx context.Context, restaurantID string) (bool, error)
	ListFavorites(ctx context.Context) ([]domain.Favorite, error)
	AddFavorite(ctx context.Context, restaurantID string) error
	RemoveFavorite(ctx context.Context, favoriteID string) error
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest, idempotencyKey string) (*domain.Order, error)
	ListOrders(ctx context.Context, size int) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderPayment(ctx context.Context, orderID string) (*domain.Payment, error)
}

type OwnerAPI interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListMyRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	GetMyRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	CreateRestaurant(ctx context.Context, in domain.RestaurantInput) (*domain.Restaurant, error)
	UpdateRestaurant(ctx context.Context, id string, in domain.RestaurantInput) (*domain.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id string) error
	ListMyMenus(ctx context.Context, restaurantID string) ([]domain.Menu, error)
	CreateMenu(ctx context.Context, restaurantID string, in domain.MenuInput) (*domain.Menu, error)
	UpdateMenu(ctx context.Context, restaurantID, menuID string, in domain.MenuInput) (*domain.Menu, error)
	DeleteMenu(ctx context.Context, restaurantID, menuID string) error
	GenerateMenuDescription(ctx context.Context, menuInfo string) (string, error)
	ApprovedPayments(ctx context.Context, startDate, endDate string) ([]domain.PaymentSummary, error)
	AddUserAddress(ctx context.Context, userID string, addr domain.UserAddress) ([]domain.UserAddress, error)
	DeleteUserAddress(ctx context.Context, userID string, index int) ([]domain.UserAddress, error)
}

// BackendAPI is everything a portal asks of the backend.
type BackendAPI interface {
	AuthAPI
	CustomerAPI
	OwnerAPI
}

type PaymentBridge interface {
	Initiate(ctx context.Context, req payment.CheckoutRequest) (*payment.Handoff, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.Address, error)
}

type QRGenerator interface {
	Generate(handoffURL string) ([]byte, error)
}

type EventPublisher interface {
	PublishCheckoutEvent(ctx context.Context, event domain.CheckoutEvent) error
}

type MarkerCache interface {
	PaymentMarkerKey(orderID string) string
	Exists(ctx context.Context, key string) (bool, error)
	SetMarker(ctx context.Context, key string) error
}

type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var (
	_ BackendAPI    = (*apiclient.Client)(nil)
	_ PaymentBridge = payment.TossBridge{}
	_ QRGenerator   = payment.DefaultQRGenerator{}
)
