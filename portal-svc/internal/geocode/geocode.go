package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"manjok-portal/portal-svc/internal/domain"
)

var (
	ErrNotConfigured = errors.New("geocoder is not configured")
	ErrNoMatch       = errors.New("address not found")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.Address, error)
}

// HTTPGeocoder queries a Kakao-local style address search endpoint.
type HTTPGeocoder struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
	Client   HTTPClient
}

var _ Geocoder = (*HTTPGeocoder)(nil)

type searchResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		X           string `json:"x"`
		Y           string `json:"y"`
		Address     *struct {
			Region1 string `json:"region_1depth_name"`
			Region2 string `json:"region_2depth_name"`
			Region3 string `json:"region_3depth_name"`
		} `json:"address"`
	} `json:"documents"`
}

// Geocode resolves query to an address with coordinates. The call is
// abandoned when ctx is cancelled or Timeout elapses.
func (g *HTTPGeocoder) Geocode(ctx context.Context, query string) (*domain.Address, error) {
	query = strings.TrimSpace(query)
	if g.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	if query == "" {
		return nil, ErrNoMatch
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+url.Values{"query": {query}}.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if g.APIKey != "" {
		req.Header.Set("Authorization", "KakaoAK "+g.APIKey)
	}

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %d", query, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(body.Documents) == 0 {
		return nil, ErrNoMatch
	}

	doc := body.Documents[0]
	lon, errX := strconv.ParseFloat(doc.X, 64)
	lat, errY := strconv.ParseFloat(doc.Y, 64)
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("geocode %q: invalid coordinates", query)
	}

	addr := &domain.Address{
		FullAddress: doc.AddressName,
		Coordinate:  &domain.Coordinate{Latitude: lat, Longitude: lon},
	}
	if doc.Address != nil {
		addr.Province = doc.Address.Region1
		addr.City = doc.Address.Region2
		addr.District = doc.Address.Region3
	}
	return addr, nil
}
