package tests

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"manjok-portal/portal-svc/internal/apiclient"
	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/mocks"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool, error) {
	if s == "" {
		return "", false, nil
	}
	return string(s), true, nil
}

func newAPIClient(baseURL string, token staticToken, opts apiclient.Options) *apiclient.Client {
	return apiclient.New(baseURL, http.DefaultClient, token, opts, zerolog.Nop())
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		expectedCode    string
	}{
		{name: "backend message", status: http.StatusNotFound, body: `{"message":"not found"}`, expectedMessage: "not found"},
		{name: "envelope with error code", status: http.StatusBadRequest, body: `{"success":false,"message":"이미 존재하는 이메일입니다.","errorCode":"USER_DUPLICATED"}`, expectedMessage: "이미 존재하는 이메일입니다.", expectedCode: "USER_DUPLICATED"},
		{name: "non json body", status: http.StatusInternalServerError, body: `<html>oops</html>`, expectedMessage: apiclient.FallbackMessage},
		{name: "empty body", status: http.StatusUnauthorized, body: ``, expectedMessage: apiclient.FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			_, err := newAPIClient(ts.URL, "", apiclient.Options{}).GetRestaurant(context.Background(), "r1")

			var apiErr *apiclient.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, apiErr.Error())
			assert.Equal(t, tt.expectedCode, apiErr.Code)
			assert.True(t, apiclient.IsStatus(err, tt.status))
		})
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotContentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		io.WriteString(w, `[]`)
	}))
	defer ts.Close()

	_, err := newAPIClient(ts.URL, "abc", apiclient.Options{}).ListOrders(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_AnonymousCallsSkipToken(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"success":true,"message":"ok","data":"jwt-token"}`)
	}))
	defer ts.Close()

	token, err := newAPIClient(ts.URL, "stale", apiclient.Options{}).
		Login(context.Background(), domain.LoginForm{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a@b.co", gotBody["email"])
}

func TestClient_DecodesEnvelopesAndPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/common/restaurants", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("size"))
		io.WriteString(w, `{"success":true,"data":{"content":[{"restaurantId":"r1","restaurantName":"국밥집"}],"pageInfo":{"page":0,"size":20,"totalElements":1,"totalPages":1,"first":true,"last":true,"hasNext":false}}}`)
	})
	mux.HandleFunc("/v1/common/restaurants/r1/menus", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"menuId":"m1","menuName":"순대국","price":9000.00,"isAvailable":true}]`)
	})
	mux.HandleFunc("/v1/common/favorites/restaurant/r1/count", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"data":7}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := newAPIClient(ts.URL, "", apiclient.Options{})
	ctx := context.Background()

	restaurants, err := client.ListRestaurants(ctx, 20)
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "국밥집", restaurants[0].RestaurantName)

	menus, err := client.ListRestaurantMenus(ctx, "r1", 0)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, domain.Won(9000), menus[0].Price)

	count, err := client.FavoriteCount(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestClient_RetryPolicy(t *testing.T) {
	tests := []struct {
		name             string
		call             func(c *apiclient.Client) error
		expectedAttempts int32
	}{
		{
			name: "idempotent get is retried",
			call: func(c *apiclient.Client) error {
				_, err := c.GetOrder(context.Background(), "o1")
				return err
			},
			expectedAttempts: 3,
		},
		{
			name: "plain post is not retried",
			call: func(c *apiclient.Client) error {
				return c.AddFavorite(context.Background(), "r1")
			},
			expectedAttempts: 1,
		},
		{
			name: "order creation with idempotency key is retried",
			call: func(c *apiclient.Client) error {
				_, err := c.CreateOrder(context.Background(), domain.CreateOrderRequest{}, "order_1")
				return err
			},
			expectedAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer ts.Close()

			client := newAPIClient(ts.URL, "t", apiclient.Options{MaxRetries: 2})
			err := tt.call(client)

			assert.True(t, apiclient.IsStatus(err, http.StatusServiceUnavailable))
			assert.Equal(t, tt.expectedAttempts, attempts.Load())
		})
	}
}

func TestClient_RetriesTransportErrors(t *testing.T) {
	httpClient := mocks.NewHTTPClient(t)
	client := apiclient.New("http://backend", httpClient, nil, apiclient.Options{MaxRetries: 1}, zerolog.Nop())

	httpClient.On("Do", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	httpClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{"orderId":"o1","status":"PENDING","totalPrice":12000}`)),
		Header:     make(http.Header),
	}, nil).Once()

	order, err := client.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.Won(12000), order.TotalPrice)
	assert.Equal(t, "대기중", order.Status.Label())
}

func TestClient_TimeoutBoundsEachAttempt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer ts.Close()

	client := newAPIClient(ts.URL, "", apiclient.Options{Timeout: 50 * time.Millisecond})
	_, err := client.GetRestaurant(context.Background(), "slow")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_IdempotencyHeaderOnCreateOrder(t *testing.T) {
	var gotKey string
	var gotBody domain.CreateOrderRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiclient.IdempotencyHeader)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"data":{"orderId":"order_1","status":"PENDING"}}`)
	}))
	defer ts.Close()

	order, err := newAPIClient(ts.URL, "t", apiclient.Options{}).CreateOrder(context.Background(), domain.CreateOrderRequest{
		Orderer:    domain.Orderer{UserID: "u1", Name: "홍길동"},
		PaymentKey: "pay_123",
	}, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, "order_1", gotKey)
	assert.Equal(t, "pay_123", gotBody.PaymentKey)
	assert.Equal(t, "u1", gotBody.Orderer.UserID)
}
