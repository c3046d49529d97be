package tests

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	httpapi "manjok-portal/portal-svc/internal/api/http"
	"manjok-portal/portal-svc/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newPortalServer(t *testing.T, registry *service.Registry) *httptest.Server {
	ts := httptest.NewServer(httpapi.NewRouter(httpapi.NewHandler(registry, zerolog.Nop())))
	t.Cleanup(ts.Close)
	return ts
}

// newBrowser keeps cookies between requests and never follows redirects.
func newBrowser(t *testing.T, ts *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: ts.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(method, path, body string) (*http.Response, string) {
	b.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(payload)
}

func decodeJSON(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestHandler_HealthSetsProfileCookie(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))

	resp, body := newBrowser(t, ts).do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decoded := decodeJSON(t, body)
	assert.Equal(t, "healthy", decoded["status"])
	assert.Equal(t, "portal-svc", decoded["service"])

	var profile *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == httpapi.ProfileCookie {
			profile = c
		}
	}
	require.NotNil(t, profile)
	assert.True(t, profile.HttpOnly)
	assert.NotEmpty(t, profile.Value)
}

func TestHandler_LoginFlow(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))
	b := newBrowser(t, ts)

	tests := []struct {
		name             string
		method           string
		path             string
		body             string
		expectedStatus   int
		expectedLocation string
		expectedBody     string
	}{
		{
			name:             "portal redirects to login",
			method:           http.MethodGet,
			path:             "/view/client",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/view/client/login",
		},
		{
			name:           "login page",
			method:         http.MethodGet,
			path:           "/view/client/login",
			expectedStatus: http.StatusOK,
			expectedBody:   `"loginPath":"/view/client/login"`,
		},
		{
			name:           "invalid json",
			method:         http.MethodPost,
			path:           "/view/client/login",
			body:           "{",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid JSON",
		},
		{
			name:           "missing email",
			method:         http.MethodPost,
			path:           "/view/client/login",
			body:           `{"password":"x"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"email":"이메일과 비밀번호를 입력해주세요."`,
		},
		{
			name:           "backend rejects credentials",
			method:         http.MethodPost,
			path:           "/view/client/login",
			body:           `{"email":"me@manjok.kr","password":"wrong"}`,
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"message":"이메일 또는 비밀번호가 올바르지 않습니다."`,
		},
		{
			name:           "data requires session",
			method:         http.MethodGet,
			path:           "/view/client/orders",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"redirect":"/view/client/login"`,
		},
		{
			name:           "login",
			method:         http.MethodPost,
			path:           "/view/client/login",
			body:           `{"email":"me@manjok.kr","password":"` + backendPassword + `"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `"redirect":"/view/client"`,
		},
		{
			name:             "login page skips signed-in user",
			method:           http.MethodGet,
			path:             "/view/client/login",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/view/client",
		},
		{
			name:           "portal renders",
			method:         http.MethodGet,
			path:           "/view/client",
			expectedStatus: http.StatusOK,
			expectedBody:   `"restaurantName":"특국밥"`,
		},
		{
			name:             "other portals stay signed out",
			method:           http.MethodGet,
			path:             "/view/owner",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/view/owner/login",
		},
		{
			name:             "payment return is consumed",
			method:           http.MethodGet,
			path:             "/view/client?orderFail=true&code=PAY_PROCESS_CANCELED",
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/view/client",
		},
		{
			name:           "unknown tab",
			method:         http.MethodGet,
			path:           "/view/client/tabs/statistics",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "logout",
			method:         http.MethodPost,
			path:           "/view/client/logout",
			expectedStatus: http.StatusOK,
			expectedBody:   `"redirect":"/view/client/login"`,
		},
		{
			name:             "signed out again",
			method:           http.MethodGet,
			path:             "/view/client",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/view/client/login",
		},
	}

	// Steps share one browser and run in order.
	for _, tt := range tests {
		resp, body := b.do(tt.method, tt.path, tt.body)

		assert.Equal(t, tt.expectedStatus, resp.StatusCode, tt.name)
		if tt.expectedLocation != "" {
			assert.Equal(t, tt.expectedLocation, resp.Header.Get("Location"), tt.name)
		}
		if tt.expectedBody != "" {
			assert.Contains(t, body, tt.expectedBody, tt.name)
		}
	}
}

func TestHandler_ProfilesAreIsolated(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))
	first := newBrowser(t, ts)
	second := newBrowser(t, ts)

	resp, _ := first.do(http.MethodPost, "/view/client/login", `{"email":"me@manjok.kr","password":"`+backendPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = first.do(http.MethodGet, "/view/client", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = second.do(http.MethodGet, "/view/client", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestHandler_Cart(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPost, "/view/client/login", `{"email":"me@manjok.kr","password":"`+backendPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = b.do(http.MethodPost, "/view/client/cart/items", `{"menuId":"m1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "no restaurant opened yet")

	resp, body := b.do(http.MethodGet, "/view/client/restaurants/r1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), decodeJSON(t, body)["favoriteCount"])

	resp, _ = b.do(http.MethodPost, "/view/client/cart/items", `{"menuId":"m9"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = b.do(http.MethodPost, "/view/client/cart/items", `{"menuId":"m1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(9000), decodeJSON(t, body)["totalAmount"])

	resp, body = b.do(http.MethodPatch, "/view/client/cart/items/0", `{"delta":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(27000), decodeJSON(t, body)["totalAmount"])

	resp, _ = b.do(http.MethodPatch, "/view/client/cart/items/5", `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = b.do(http.MethodPost, "/view/client/checkout", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "delivery details missing")

	resp, _ = b.do(http.MethodGet, "/view/client/checkout/qrcode", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = b.do(http.MethodDelete, "/view/client/checkout", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = b.do(http.MethodDelete, "/view/client/cart/items/0", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decodeJSON(t, body)["totalAmount"])
}

func TestHandler_PasswordReset(t *testing.T) {
	backend := newFakeBackend(t)
	ts := newPortalServer(t, newRegistry(backend, nil))
	b := newBrowser(t, ts)

	resp, body := b.do(http.MethodPost, "/view/auth/password-reset", `{"token":"t","newPassword":"password1","confirmPassword":"password1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "newPassword")

	resp, _ = b.do(http.MethodPost, "/view/auth/password-reset", `{"token":"t","newPassword":"passw0rd!","confirmPassword":"passw0rd!"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), backend.resets.Load())
}

func TestHandler_AdminTabs(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPost, "/view/admin/login", `{"email":"admin@manjok.kr","password":"`+backendPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, tab := range []string{"restaurants", "clients", "owners", "statistics"} {
		resp, body := b.do(http.MethodGet, "/view/admin/tabs/"+tab, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, tab)
		assert.Contains(t, body, `"tab":{"id":"`+tab+`"`, tab)
		assert.Contains(t, body, `"placeholder":true`, tab)
	}

	resp, _ = b.do(http.MethodGet, "/view/client/tabs/cart", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the client portal is still signed out")
}

func TestHandler_OwnerAddresses(t *testing.T) {
	ts := newPortalServer(t, newRegistry(newFakeBackend(t), nil))
	b := newBrowser(t, ts)

	resp, _ := b.do(http.MethodPost, "/view/owner/login", `{"email":"owner@manjok.kr","password":"`+backendPassword+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := b.do(http.MethodPost, "/view/owner/addresses", `{"address":"서울 강남구 역삼동","lat":37.5,"lon":127.03}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, "역삼동")

	resp, body = b.do(http.MethodDelete, "/view/owner/addresses/0", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)

	resp, _ = b.do(http.MethodDelete, "/view/client/addresses/0", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
