package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"manjok-portal/config"
	"manjok-portal/logger"
	httpapi "manjok-portal/portal-svc/internal/api/http"
	"manjok-portal/portal-svc/internal/apiclient"
	"manjok-portal/portal-svc/internal/geocode"
	"manjok-portal/portal-svc/internal/payment"
	"manjok-portal/portal-svc/internal/service"
	"manjok-portal/portal-svc/internal/storage"

	"github.com/rs/zerolog"
)

// backends is the storage wiring chosen by STORAGE_BACKEND.
type backends struct {
	local   service.KeyValue
	session service.KeyValue
	markers service.MarkerCache
	closers []func() error
}

func (b *backends) Close() {
	for _, c := range b.closers {
		_ = c()
	}
}

// newBackends picks where tokens, customer keys and drafts live. Local
// storage never expires; session storage uses SESSION_TTL. Payment markers
// need redis and are skipped otherwise.
func newBackends(ctx context.Context, settings config.Settings, log zerolog.Logger) *backends {
	switch settings.StorageBackend {
	case config.StorageRedis:
		rdb := config.MustInitRedis(settings.RedisAddr)
		return &backends{
			local:   storage.NewRedisStore(rdb, 0),
			session: storage.NewRedisStore(rdb, settings.SessionTTL),
			markers: storage.NewRedisCache(rdb, settings.PaymentMarkerTTL),
			closers: []func() error{rdb.Close},
		}
	case config.StoragePostgres:
		db := config.MustInitPostgres(settings.PostgresDSN())
		pg := storage.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare storage schema")
		}
		return &backends{
			local:   pg,
			session: storage.NewMemoryStore(settings.SessionTTL),
			closers: []func() error{db.Close},
		}
	default:
		if settings.StorageBackend != config.StorageMemory {
			log.Warn().Str("backend", settings.StorageBackend).Msg("unknown storage backend, using memory")
		}
		return &backends{
			local:   storage.NewMemoryStore(0),
			session: storage.NewMemoryStore(settings.SessionTTL),
		}
	}
}

func newDependencies(settings config.Settings, b *backends, log zerolog.Logger) service.Dependencies {
	deps := service.Dependencies{
		BackendURL: settings.BackendURL,
		HTTPClient: &http.Client{},
		APIOptions: apiclient.Options{
			Timeout:      settings.APITimeout,
			MaxRetries:   settings.APIMaxRetries,
			RetryBackoff: settings.APIRetryBackoff,
			RateLimit:    settings.APIRateLimit,
			RateBurst:    settings.APIRateBurst,
		},
		LocalStorage:   b.local,
		SessionStorage: b.session,
		Markers:        b.markers,
		Bridge: payment.TossBridge{
			ClientKey:    settings.TossClientKey,
			CheckoutURL:  settings.TossCheckoutURL,
			PublicOrigin: settings.PublicOrigin,
		},
		QR:      payment.DefaultQRGenerator{Size: 256},
		IdleTTL: settings.ProfileIdleTTL,
		Logger:  log,
	}

	if settings.GeocoderURL != "" {
		deps.Geocoder = &geocode.HTTPGeocoder{
			Endpoint: settings.GeocoderURL,
			APIKey:   settings.GeocoderKey,
			Timeout:  settings.GeocoderTimeout,
		}
	}

	if settings.KafkaBroker != "" {
		writer := config.NewKafkaWriter(settings.KafkaBroker, settings.KafkaTopic)
		b.closers = append(b.closers, writer.Close)
		deps.Publisher = storage.NewKafkaPublisher(writer)
	} else {
		log.Info().Msg("KAFKA_BROKER not set, checkout events are not published")
	}

	if settings.TossClientKey == "" {
		log.Warn().Msg("TOSS_CLIENT_KEY not set, checkout hand-off will fail")
	}
	return deps
}

func main() {
	settings := config.Load()
	log := logger.New("portal-svc", settings.LogLevel, settings.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := newBackends(ctx, settings, log)
	defer b.Close()

	registry := service.NewRegistry(newDependencies(settings, b, log))
	go registry.Run(ctx, time.Minute)

	handler := httpapi.NewHandler(registry, log)
	router := httpapi.NewRouter(handler, settings.PublicOrigin)

	go func() {
		if err := httpapi.StartServer(":"+settings.Port, router, log); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("portal service shutting down")
}
