package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BackendURL   string
	PortalSvcURL string
	StaticDir    string
}

// Gateway is the single public origin: backend API calls and portal views
// are served from the same host so the portal's relative paths resolve.
type Gateway struct {
	config Config
	client HTTPClient
	logger zerolog.Logger
}

func NewGateway(config Config, client HTTPClient, logger zerolog.Logger) *Gateway {
	return &Gateway{
		config: config,
		client: client,
		logger: logger,
	}
}

func (g *Gateway) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":    "healthy",
		"service":   "api-gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	g.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("target", targetURL).Msg("proxy")

	url := targetURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.logger.Error().Err(err).Msg("failed to create proxy request")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Str("target", targetURL).Msg("proxy failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Warn().Err(err).Msg("failed to copy proxied response")
	}
}

func (g *Gateway) RouteHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case strings.HasPrefix(path, "/v1/"), strings.HasPrefix(path, "/api/v1/"):
		g.ProxyRequest(w, r, g.config.BackendURL)
	case path == "/view" || strings.HasPrefix(path, "/view/"):
		g.ProxyRequest(w, r, g.config.PortalSvcURL)
	case strings.HasPrefix(path, "/api/"):
		g.logger.Info().Str("path", path).Msg("unmatched api route")
		http.Error(w, "API route not found", http.StatusNotFound)
	case path == "/":
		http.Redirect(w, r, "/view/client", http.StatusFound)
	default:
		http.NotFound(w, r)
	}
}

func (g *Gateway) SetupRoutes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.HealthCheck).Methods("GET")
	if g.config.StaticDir != "" {
		r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(g.config.StaticDir))))
	}
	r.PathPrefix("/").HandlerFunc(g.RouteHandler)
	return r
}
