package cart

import (
	"errors"
	"sync"

	"manjok-portal/portal-svc/internal/domain"
)

var (
	ErrMenuUnavailable    = errors.New("menu is not available")
	ErrRestaurantMismatch = errors.New("cart already holds items from another restaurant")
	ErrItemNotFound       = errors.New("cart item not found")
)

// Cart is the live, ordered list of line items for one portal.
type Cart struct {
	mu    sync.Mutex
	items []domain.CartItem
}

func New() *Cart {
	return &Cart{}
}

// AddItem increments an existing line for the same menu or appends a new one.
func (c *Cart) AddItem(menu domain.Menu, restaurant domain.Restaurant) error {
	if !menu.IsAvailable {
		return ErrMenuUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) > 0 && c.items[0].Restaurant.RestaurantID != restaurant.RestaurantID {
		return ErrRestaurantMismatch
	}

	for i := range c.items {
		if c.items[i].MenuID == menu.MenuID {
			c.items[i].Quantity++
			return nil
		}
	}

	c.items = append(c.items, domain.CartItem{
		MenuID:     menu.MenuID,
		MenuName:   menu.MenuName,
		BasePrice:  menu.Price,
		Quantity:   1,
		Restaurant: domain.SnapshotOf(restaurant),
	})
	return nil
}

// UpdateQuantity applies delta; a line reaching zero or below is removed.
func (c *Cart) UpdateQuantity(index, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return ErrItemNotFound
	}
	c.items[index].Quantity += delta
	if c.items[index].Quantity <= 0 {
		c.items = append(c.items[:index], c.items[index+1:]...)
	}
	return nil
}

func (c *Cart) RemoveItem(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return ErrItemNotFound
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

func (c *Cart) TotalAmount() domain.Won {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Total(c.items)
}

// Total sums the line totals of items.
func Total(items []domain.CartItem) domain.Won {
	var total domain.Won
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}
