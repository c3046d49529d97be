package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manjok-portal/portal-svc/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const customerKeyKey = "customerKey"

var (
	ErrUnknownPortal = errors.New("path does not belong to a known portal")
	ErrNoIdentity    = errors.New("session token carries no user id")
)

// LoginRequiredError means the caller must be sent to LoginPath.
type LoginRequiredError struct {
	Role      domain.Role
	LoginPath string
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("login required for %s portal", e.Role.Segment())
}

// Storage is the profile-scoped local storage the tokens live in.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ResolveRole maps a request path to its portal role. Matching is by
// substring, checked in client, owner, admin order.
func ResolveRole(path string) (domain.Role, bool) {
	for _, role := range domain.Roles {
		if strings.Contains(path, "/"+role.Segment()) {
			return role, true
		}
	}
	return "", false
}

type Store struct {
	local  Storage
	logger zerolog.Logger
	now    func() time.Time
	parser *jwt.Parser
}

func NewStore(local Storage, logger zerolog.Logger) *Store {
	return &Store{
		local:  local,
		logger: logger,
		now:    time.Now,
		parser: jwt.NewParser(),
	}
}

// WithClock replaces the clock used for token expiry checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Token returns the role's token. An expired JWT is cleared and reported as absent.
func (s *Store) Token(ctx context.Context, role domain.Role) (string, bool, error) {
	token, ok, err := s.local.Get(ctx, role.TokenKey())
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", role.TokenKey(), err)
	}
	if !ok || token == "" {
		return "", false, nil
	}

	if claims, isJWT := s.claims(token); isJWT && claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		s.logger.Info().Str("role", string(role)).Msg("session token expired, clearing")
		if err := s.local.Delete(ctx, role.TokenKey()); err != nil {
			return "", false, fmt.Errorf("clear expired token: %w", err)
		}
		return "", false, nil
	}
	return token, true, nil
}

func (s *Store) SetToken(ctx context.Context, role domain.Role, token string) error {
	if err := s.local.Set(ctx, role.TokenKey(), token); err != nil {
		return fmt.Errorf("write %s: %w", role.TokenKey(), err)
	}
	return nil
}

func (s *Store) ClearToken(ctx context.Context, role domain.Role) error {
	if err := s.local.Delete(ctx, role.TokenKey()); err != nil {
		return fmt.Errorf("clear %s: %w", role.TokenKey(), err)
	}
	return nil
}

// RequireSession returns the token or a *LoginRequiredError pointing at the role's login view.
func (s *Store) RequireSession(ctx context.Context, role domain.Role) (string, error) {
	token, ok, err := s.Token(ctx, role)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &LoginRequiredError{Role: role, LoginPath: role.LoginPath()}
	}
	return token, nil
}

// Identity returns the user id carried as the token subject.
func (s *Store) Identity(ctx context.Context, role domain.Role) (string, error) {
	token, err := s.RequireSession(ctx, role)
	if err != nil {
		return "", err
	}
	claims, ok := s.claims(token)
	if !ok || claims.Subject == "" {
		return "", ErrNoIdentity
	}
	return claims.Subject, nil
}

// CustomerKey returns the profile's payment customer key, creating it on first use.
func (s *Store) CustomerKey(ctx context.Context) (string, error) {
	key, ok, err := s.local.Get(ctx, customerKeyKey)
	if err != nil {
		return "", fmt.Errorf("read customer key: %w", err)
	}
	if ok && key != "" {
		return key, nil
	}

	key = uuid.NewString()
	if err := s.local.Set(ctx, customerKeyKey, key); err != nil {
		return "", fmt.Errorf("write customer key: %w", err)
	}
	return key, nil
}

// claims decodes without verifying; the backend owns the signing key.
func (s *Store) claims(token string) (*jwt.RegisteredClaims, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// Bound pins a Store to a single portal role.
type Bound struct {
	Store *Store
	Role  domain.Role
}

func (b Bound) Token(ctx context.Context) (string, bool, error) {
	return b.Store.Token(ctx, b.Role)
}

func (b Bound) RequireSession(ctx context.Context) (string, error) {
	return b.Store.RequireSession(ctx, b.Role)
}

func (b Bound) Identity(ctx context.Context) (string, error) {
	return b.Store.Identity(ctx, b.Role)
}

func (b Bound) CustomerKey(ctx context.Context) (string, error) {
	return b.Store.CustomerKey(ctx)
}
