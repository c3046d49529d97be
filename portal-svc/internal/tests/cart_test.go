package tests

import (
	"testing"

	"manjok-portal/portal-svc/internal/cart"
	"manjok-portal/portal-svc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gukbapHouse() domain.Restaurant {
	return domain.Restaurant{
		RestaurantID:   "r1",
		RestaurantName: "국밥집",
		ContactNumber:  "02-123-4567",
		Address:        domain.Address{Province: "서울특별시", City: "종로구", District: "종로1가", DetailAddress: "1층"},
		Coordinate:     &domain.Coordinate{Latitude: 37.57, Longitude: 126.98},
	}
}

func sundaeGuk() domain.Menu {
	return domain.Menu{MenuID: "m1", MenuName: "순대국", Price: 9000, IsAvailable: true}
}

func TestCart_TotalFollowsMutations(t *testing.T) {
	c := cart.New()

	require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))
	assert.Equal(t, domain.Won(9000), c.TotalAmount())

	require.NoError(t, c.UpdateQuantity(0, 1))
	assert.Equal(t, domain.Won(18000), c.TotalAmount())

	require.NoError(t, c.UpdateQuantity(0, -1))
	assert.Equal(t, domain.Won(9000), c.TotalAmount())

	require.NoError(t, c.RemoveItem(0))
	assert.Equal(t, domain.Won(0), c.TotalAmount())
	assert.Equal(t, 0, c.Len())
}

func TestCart_SameMenuIncrementsQuantity(t *testing.T) {
	c := cart.New()

	require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))
	require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, domain.Won(18000), c.TotalAmount())
}

func TestCart_SnapshotCarriesRestaurant(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))

	item := c.Items()[0]
	assert.Equal(t, "r1", item.Restaurant.RestaurantID)
	assert.Equal(t, "02-123-4567", item.Restaurant.Phone)
	require.NotNil(t, item.Restaurant.Address.Coordinate)
	assert.Equal(t, 37.57, item.Restaurant.Address.Coordinate.Latitude)
	assert.Equal(t, domain.Won(9000), item.BasePrice)
}

func TestCart_QuantityAtOrBelowZeroRemovesLine(t *testing.T) {
	tests := []struct {
		name  string
		delta int
	}{
		{name: "to zero", delta: -1},
		{name: "below zero", delta: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cart.New()
			require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))

			require.NoError(t, c.UpdateQuantity(0, tt.delta))
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestCart_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		prepare       func(c *cart.Cart)
		act           func(c *cart.Cart) error
		expectedError error
	}{
		{
			name:    "unavailable menu",
			prepare: func(c *cart.Cart) {},
			act: func(c *cart.Cart) error {
				m := sundaeGuk()
				m.IsAvailable = false
				return c.AddItem(m, gukbapHouse())
			},
			expectedError: cart.ErrMenuUnavailable,
		},
		{
			name:    "another restaurant",
			prepare: func(c *cart.Cart) { _ = c.AddItem(sundaeGuk(), gukbapHouse()) },
			act: func(c *cart.Cart) error {
				other := gukbapHouse()
				other.RestaurantID = "r2"
				return c.AddItem(domain.Menu{MenuID: "m9", MenuName: "짜장면", Price: 7000, IsAvailable: true}, other)
			},
			expectedError: cart.ErrRestaurantMismatch,
		},
		{
			name:          "update out of range",
			prepare:       func(c *cart.Cart) {},
			act:           func(c *cart.Cart) error { return c.UpdateQuantity(3, 1) },
			expectedError: cart.ErrItemNotFound,
		},
		{
			name:          "remove negative index",
			prepare:       func(c *cart.Cart) {},
			act:           func(c *cart.Cart) error { return c.RemoveItem(-1) },
			expectedError: cart.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cart.New()
			tt.prepare(c)
			before := c.TotalAmount()

			err := tt.act(c)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Equal(t, before, c.TotalAmount())
		})
	}
}

func TestCart_ItemsReturnsCopy(t *testing.T) {
	c := cart.New()
	require.NoError(t, c.AddItem(sundaeGuk(), gukbapHouse()))

	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}
