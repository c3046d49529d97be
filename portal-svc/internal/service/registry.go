package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"manjok-portal/portal-svc/internal/apiclient"
	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/session"
	"manjok-portal/portal-svc/internal/storage"
	"manjok-portal/portal-svc/internal/validation"

	"github.com/rs/zerolog"
)

type Dependencies struct {
	BackendURL     string
	HTTPClient     apiclient.HTTPClient
	APIOptions     apiclient.Options
	LocalStorage   KeyValue
	SessionStorage KeyValue
	Bridge         PaymentBridge
	Geocoder       Geocoder
	QR             QRGenerator
	Markers        MarkerCache
	Publisher      EventPublisher
	IdleTTL        time.Duration
	Logger         zerolog.Logger
}

type portalKey struct {
	profileID string
	role      domain.Role
}

// Registry hands out one Portal per (browser profile, role).
type Registry struct {
	deps      Dependencies
	validator *validation.Validator
	anonymous *apiclient.Client

	mu      sync.Mutex
	portals map[portalKey]*Portal
}

func NewRegistry(deps Dependencies) *Registry {
	return &Registry{
		deps:      deps,
		validator: validation.New(),
		anonymous: apiclient.New(deps.BackendURL, deps.HTTPClient, nil, deps.APIOptions, deps.Logger),
		portals:   make(map[portalKey]*Portal),
	}
}

func (r *Registry) Portal(profileID string, role domain.Role) *Portal {
	key := portalKey{profileID: profileID, role: role}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.portals[key]; ok {
		return p
	}

	local := storage.NewNamespace(r.deps.LocalStorage, "profile", profileID, "local")
	sessionStore := session.NewStore(local, r.deps.Logger)
	bound := session.Bound{Store: sessionStore, Role: role}

	p := NewPortal(PortalDeps{
		Role:           role,
		ProfileID:      profileID,
		Session:        sessionStore,
		API:            apiclient.New(r.deps.BackendURL, r.deps.HTTPClient, bound, r.deps.APIOptions, r.deps.Logger),
		SessionStorage: storage.NewNamespace(r.deps.SessionStorage, "profile", profileID, "session", role.Segment()),
		Bridge:         r.deps.Bridge,
		Geocoder:       r.deps.Geocoder,
		QR:             r.deps.QR,
		Markers:        r.deps.Markers,
		Publisher:      r.deps.Publisher,
		Validator:      r.validator,
		Logger:         r.deps.Logger,
	})
	r.portals[key] = p
	return p
}

// ResetPassword needs no portal or session; the reset token is the credential.
func (r *Registry) ResetPassword(ctx context.Context, form domain.PasswordResetForm) error {
	form.Token = strings.TrimSpace(form.Token)
	form.NewPassword = strings.TrimSpace(form.NewPassword)
	form.ConfirmPassword = strings.TrimSpace(form.ConfirmPassword)
	if err := r.validator.Struct(form); err != nil {
		return err
	}
	return r.anonymous.ConfirmPasswordReset(ctx, form)
}

// Evict drops portals idle for longer than IdleTTL and returns how many went.
// Stored tokens and drafts survive; only in-memory state is lost.
func (r *Registry) Evict(now time.Time) int {
	if r.deps.IdleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for key, p := range r.portals {
		if now.Sub(p.idleSince()) > r.deps.IdleTTL {
			delete(r.portals, key)
			evicted++
		}
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.portals)
}

// Run evicts idle portals every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Evict(now); n > 0 {
				r.deps.Logger.Info().Int("evicted", n).Msg("dropped idle portals")
			}
		}
	}
}
