package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Won is an amount in KRW. The backend serializes BigDecimal prices, so
// fractional and quoted numbers are accepted and rounded.
type Won int64

func (w *Won) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*w = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	*w = Won(math.Round(f))
	return nil
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Address struct {
	Province      string      `json:"province"`
	City          string      `json:"city"`
	District      string      `json:"district"`
	DetailAddress string      `json:"detailAddress"`
	FullAddress   string      `json:"fullAddress,omitempty"`
	Coordinate    *Coordinate `json:"coordinate,omitempty"`
}

type RestaurantSummary struct {
	RestaurantID           string   `json:"restaurantId"`
	RestaurantName         string   `json:"restaurantName"`
	Status                 string   `json:"status"`
	Province               string   `json:"province"`
	City                   string   `json:"city"`
	District               string   `json:"district"`
	FullAddress            string   `json:"fullAddress"`
	CategoryNames          []string `json:"categoryNames"`
	WishlistCount          int      `json:"wishlistCount"`
	ReviewCount            int      `json:"reviewCount"`
	ReviewRating           float64  `json:"reviewRating"`
	Tags                   []string `json:"tags"`
	IsOpenNow              bool     `json:"isOpenNow"`
	CurrentOperatingStatus string   `json:"currentOperatingStatus"`
}

// Restaurant is the detail payload. The backend returns the coordinate
// beside the address, not inside it.
type Restaurant struct {
	RestaurantID   string      `json:"restaurantId"`
	RestaurantName string      `json:"restaurantName"`
	OwnerName      string      `json:"ownerName,omitempty"`
	Status         string      `json:"status,omitempty"`
	ContactNumber  string      `json:"contactNumber"`
	Address        Address     `json:"address"`
	Coordinate     *Coordinate `json:"coordinate,omitempty"`
	CategoryNames  []string    `json:"categoryNames,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	WishlistCount  int         `json:"wishlistCount"`
	ReviewCount    int         `json:"reviewCount"`
	ReviewRating   float64     `json:"reviewRating"`
	IsOpenNow      bool        `json:"isOpenNow"`
}

type Menu struct {
	MenuID      string `json:"menuId"`
	MenuName    string `json:"menuName"`
	Description string `json:"description"`
	Price       Won    `json:"price"`
	IsAvailable bool   `json:"isAvailable"`
	IsMain      bool   `json:"isMain"`
	IsPopular   bool   `json:"isPopular"`
	IsNew       bool   `json:"isNew"`
	Calorie     int    `json:"calorie,omitempty"`
}

// RestaurantSnapshot is the restaurant as it looked when a menu was added to the cart.
type RestaurantSnapshot struct {
	RestaurantID   string  `json:"restaurantId"`
	RestaurantName string  `json:"restaurantName"`
	Phone          string  `json:"phone"`
	Address        Address `json:"address"`
}

func SnapshotOf(r Restaurant) RestaurantSnapshot {
	addr := r.Address
	addr.FullAddress = ""
	if r.Coordinate != nil {
		c := *r.Coordinate
		addr.Coordinate = &c
	}
	return RestaurantSnapshot{
		RestaurantID:   r.RestaurantID,
		RestaurantName: r.RestaurantName,
		Phone:          r.ContactNumber,
		Address:        addr,
	}
}

type CartItem struct {
	MenuID     string             `json:"menuId"`
	MenuName   string             `json:"menuName"`
	BasePrice  Won                `json:"basePrice"`
	Quantity   int                `json:"quantity"`
	Restaurant RestaurantSnapshot `json:"restaurant"`
}

func (i CartItem) LineTotal() Won {
	return i.BasePrice * Won(i.Quantity)
}

type DeliveryInfo struct {
	Name            string  `json:"name" validate:"required"`
	Phone           string  `json:"phone" validate:"required"`
	DeliveryRequest string  `json:"deliveryRequest"`
	Address         Address `json:"address"`
}

// DraftOrder is the pending checkout persisted in session storage
// between the payment hand-off and the return.
type DraftOrder struct {
	OrderID     string       `json:"orderId"`
	Items       []CartItem   `json:"items"`
	TotalAmount Won          `json:"totalAmount"`
	Delivery    DeliveryInfo `json:"delivery"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type Orderer struct {
	UserID          string  `json:"userId"`
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	DeliveryRequest string  `json:"deliveryRequest"`
	Address         Address `json:"address"`
}

type CreateOrderRequest struct {
	Orderer    Orderer    `json:"orderer"`
	Items      []CartItem `json:"items"`
	PaymentKey string     `json:"paymentKey"`
}

type OrderItem struct {
	OrderItemNumber string             `json:"orderItemNumber,omitempty"`
	MenuID          string             `json:"menuId"`
	MenuName        string             `json:"menuName"`
	BasePrice       Won                `json:"basePrice"`
	Quantity        int                `json:"quantity"`
	TotalPrice      Won                `json:"totalPrice"`
	Restaurant      RestaurantSnapshot `json:"restaurant"`
}

type Order struct {
	OrderID      string      `json:"orderId"`
	Orderer      Orderer     `json:"orderer"`
	Items        []OrderItem `json:"items"`
	Status       OrderStatus `json:"status"`
	TotalPrice   Won         `json:"totalPrice"`
	RequestedAt  string      `json:"requestedAt,omitempty"`
	CreatedAt    string      `json:"createdAt,omitempty"`
	CancelReason string      `json:"cancelReason,omitempty"`
}

type Payment struct {
	PaymentID     string `json:"paymentId"`
	OrderID       string `json:"orderId"`
	PaymentKey    string `json:"paymentKey,omitempty"`
	Amount        Won    `json:"amount"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentStatus string `json:"paymentStatus"`
	ApprovedAt    string `json:"approvedAt,omitempty"`
}

type PaymentSummary struct {
	PaymentID       string `json:"paymentId"`
	OrderID         string `json:"orderId"`
	OrdererID       string `json:"ordererId"`
	Amount          Won    `json:"amount"`
	RemainingAmount Won    `json:"remainingAmount"`
	PaymentMethod   string `json:"paymentMethod"`
	PaymentStatus   string `json:"paymentStatus"`
	ApprovedAt      string `json:"approvedAt"`
}

type Favorite struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customerId,omitempty"`
	Type         string `json:"type"`
	RestaurantID string `json:"restaurantId,omitempty"`
	MenuID       string `json:"menuId,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	CategoryName string `json:"categoryName"`
}

type UserAddress struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type User struct {
	UserID    string        `json:"userId"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Role      string        `json:"role,omitempty"`
	Addresses []UserAddress `json:"addresses,omitempty"`
}

type RestaurantInput struct {
	RestaurantName string      `json:"restaurantName" validate:"required"`
	ContactNumber  string      `json:"contactNumber" validate:"required"`
	Address        Address     `json:"address"`
	Coordinate     *Coordinate `json:"coordinate"`
	CategoryIDs    []string    `json:"categoryIds"`
	Tags           []string    `json:"tags"`
}

type MenuInput struct {
	MenuName    string `json:"menuName" validate:"required"`
	Description string `json:"description,omitempty"`
	Ingredients string `json:"ingredients,omitempty"`
	Price       Won    `json:"price" validate:"gt=0"`
	Calorie     int    `json:"calorie,omitempty"`
	IsMain      bool   `json:"isMain"`
	IsPopular   bool   `json:"isPopular"`
	IsNew       bool   `json:"isNew"`
}

type PageInfo struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	HasNext       bool  `json:"hasNext"`
}

type Page[T any] struct {
	Content  []T      `json:"content"`
	PageInfo PageInfo `json:"pageInfo"`
}

// Envelope is the backend's standard response wrapper.
type Envelope struct {
	Success   *bool           `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"errorCode"`
}
