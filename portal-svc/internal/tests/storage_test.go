package tests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/mocks"
	"manjok-portal/portal-svc/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(20 * time.Millisecond)

	require.NoError(t, store.Set(ctx, "pendingOrder", "draft"))
	value, ok, err := store.Get(ctx, "pendingOrder")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "draft", value)

	time.Sleep(40 * time.Millisecond)

	_, ok, err = store.Get(ctx, "pendingOrder")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)

	require.NoError(t, store.Set(ctx, "customerKey", "c-1"))
	require.NoError(t, store.Delete(ctx, "missing"))

	value, ok, err := store.Get(ctx, "customerKey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c-1", value)
}

func TestNamespace_IsolatesProfiles(t *testing.T) {
	ctx := context.Background()
	shared := storage.NewMemoryStore(0)
	a := storage.NewNamespace(shared, "profile", "a", "local")
	b := storage.NewNamespace(shared, "profile", "b", "local")

	require.NoError(t, a.Set(ctx, "authToken_CLIENT", "token-a"))

	_, ok, err := b.Get(ctx, "authToken_CLIENT")
	require.NoError(t, err)
	assert.False(t, ok)

	raw, ok, err := shared.Get(ctx, "profile:a:local:authToken_CLIENT")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "token-a", raw)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)
	store := storage.NewRedisStore(client, 30*time.Minute)

	_, ok, err := store.Get(ctx, "pendingOrder")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "pendingOrder", `{"orderId":"order_1"}`))
	assert.Equal(t, 30*time.Minute, mr.TTL("pendingOrder"))

	value, ok, err := store.Get(ctx, "pendingOrder")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"orderId":"order_1"}`, value)

	mr.FastForward(31 * time.Minute)
	_, ok, err = store.Get(ctx, "pendingOrder")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v"))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	mr, client := setupMiniredis(t)
	mr.Close()

	_, _, err := storage.NewRedisStore(client, 0).Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisCache_PaymentMarkers(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)
	cache := storage.NewRedisCache(client, 24*time.Hour)

	key := cache.PaymentMarkerKey("order_1")
	assert.Equal(t, "payment:order_1", key)

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.SetMarker(ctx, key))

	exists, err = cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 24*time.Hour, mr.TTL(key))
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := storage.NewPostgresStore(db)

	tests := []struct {
		name         string
		prepareMocks func()
		run          func(t *testing.T)
	}{
		{
			name: "ensure schema",
			prepareMocks: func() {
				sqlMock.ExpectExec("CREATE TABLE IF NOT EXISTS portal_storage").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			run: func(t *testing.T) {
				assert.NoError(t, store.EnsureSchema(ctx))
			},
		},
		{
			name: "get existing",
			prepareMocks: func() {
				sqlMock.ExpectQuery("SELECT value FROM portal_storage WHERE key = \\$1").
					WithArgs("customerKey").
					WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("c-1"))
			},
			run: func(t *testing.T) {
				value, ok, err := store.Get(ctx, "customerKey")
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "c-1", value)
			},
		},
		{
			name: "get missing",
			prepareMocks: func() {
				sqlMock.ExpectQuery("SELECT value FROM portal_storage").
					WithArgs("authToken_OWNER").
					WillReturnError(sql.ErrNoRows)
			},
			run: func(t *testing.T) {
				_, ok, err := store.Get(ctx, "authToken_OWNER")
				require.NoError(t, err)
				assert.False(t, ok)
			},
		},
		{
			name: "get failure",
			prepareMocks: func() {
				sqlMock.ExpectQuery("SELECT value FROM portal_storage").
					WithArgs("k").
					WillReturnError(errors.New("connection refused"))
			},
			run: func(t *testing.T) {
				_, _, err := store.Get(ctx, "k")
				assert.Error(t, err)
			},
		},
		{
			name: "upsert",
			prepareMocks: func() {
				sqlMock.ExpectExec("INSERT INTO portal_storage").
					WithArgs("authToken_CLIENT", "jwt").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			run: func(t *testing.T) {
				assert.NoError(t, store.Set(ctx, "authToken_CLIENT", "jwt"))
			},
		},
		{
			name: "delete",
			prepareMocks: func() {
				sqlMock.ExpectExec("DELETE FROM portal_storage WHERE key = \\$1").
					WithArgs("authToken_CLIENT").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			run: func(t *testing.T) {
				assert.NoError(t, store.Delete(ctx, "authToken_CLIENT"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMocks()
			tt.run(t)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}

func TestKafkaPublisher_PublishCheckoutEvent(t *testing.T) {
	writer := mocks.NewMessageWriter(t)
	publisher := storage.NewKafkaPublisher(writer)

	event := domain.CheckoutEvent{
		Type:        domain.EventOrderCreated,
		State:       domain.CheckoutConfirmed,
		OrderID:     "order_1",
		Role:        domain.RoleClient,
		TotalAmount: 12000,
		ItemCount:   1,
		OccurredAt:  time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msg kafka.Message) bool {
		var decoded domain.CheckoutEvent
		if err := json.Unmarshal(msg.Value, &decoded); err != nil {
			return false
		}
		return string(msg.Key) == "order_1" && decoded.Type == domain.EventOrderCreated && decoded.TotalAmount == 12000
	})).Return(nil).Once()

	assert.NoError(t, publisher.PublishCheckoutEvent(context.Background(), event))
}

func TestKafkaPublisher_WriterError(t *testing.T) {
	writer := mocks.NewMessageWriter(t)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker unavailable")).Once()

	err := storage.NewKafkaPublisher(writer).PublishCheckoutEvent(context.Background(), domain.CheckoutEvent{OrderID: "order_1"})
	assert.EqualError(t, err, "broker unavailable")
}
