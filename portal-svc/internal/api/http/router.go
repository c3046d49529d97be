package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter wires the portal routes. The profile cookie rides on every
// request, so CORS must allow credentials for the public origin.
func NewRouter(handler *Handler, allowedOrigins ...string) http.Handler {
	r := mux.NewRouter()
	r.Use(withProfile)
	handler.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return requestLogger(handler.logger)(c.Handler(r))
}

func StartServer(addr string, handler http.Handler, logger zerolog.Logger) error {
	logger.Info().Str("addr", addr).Msg("portal service starting")
	return http.ListenAndServe(addr, handler)
}
