package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const ProfileCookie = "manjok_profile"

type profileKey struct{}

// withProfile assigns every browser a stable profile id cookie; local and
// session storage are scoped by it.
func withProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profileID := ""
		if c, err := r.Cookie(ProfileCookie); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				profileID = c.Value
			}
		}
		if profileID == "" {
			profileID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ProfileCookie,
				Value:    profileID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), profileKey{}, profileID)))
	})
}

func profileFrom(ctx context.Context) string {
	id, _ := ctx.Value(profileKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
