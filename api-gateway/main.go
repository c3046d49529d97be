package main

import (
	"net/http"

	"manjok-portal/api-gateway/internal/gateway"
	"manjok-portal/config"
	"manjok-portal/logger"

	"github.com/rs/cors"
)

// newProxyClient leaves redirects to the browser; portal login and
// payment-return redirects must reach it unchanged.
func newProxyClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func newHandler(settings config.Settings, gw *gateway.Gateway) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{settings.PublicOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(gw.SetupRoutes())
}

func main() {
	settings := config.Load()
	log := logger.New("api-gateway", settings.LogLevel, settings.Environment)

	gw := gateway.NewGateway(gateway.Config{
		BackendURL:   settings.BackendURL,
		PortalSvcURL: settings.PortalSvcURL,
		StaticDir:    "./frontend/",
	}, newProxyClient(), log)

	log.Info().Str("port", settings.GatewayPort).Msg("API Gateway starting")
	if err := http.ListenAndServe(":"+settings.GatewayPort, newHandler(settings, gw)); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}
