package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/athengaudio/storefront/api/controllers"
	"github.com/athengaudio/storefront/internal/cart"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/internal/identity"
	"github.com/athengaudio/storefront/internal/orders"
	"github.com/athengaudio/storefront/pkg/auth/session"
	"github.com/athengaudio/storefront/pkg/config"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/athengaudio/storefront/pkg/kv"
	"github.com/athengaudio/storefront/pkg/metrics"
	"github.com/athengaudio/storefront/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type testServer struct {
	handler http.Handler
	catalog catalog.Service
	product *catalog.Product
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "atheng-test", ExpirationMinutes: 30},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:  time.Minute,
			LoginIPLimit: 100,
		},
	}
}

func newTestServer(t *testing.T, pingers map[string]controllers.Pinger) testServer {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()
	store := kv.NewMemory()
	reg := prometheus.NewRegistry()
	m := metrics.NewStorefront(reg)

	sessions, err := session.NewStore(store)
	require.NoError(t, err)
	provider, err := identity.NewMockProvider(security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1}))
	require.NoError(t, err)
	ids, err := identity.NewService(identity.ServiceParams{
		Store:    sessions,
		Provider: provider,
		Issuer:   identity.NewJWTIssuer(cfg.JWT),
		Metrics:  m,
	})
	require.NoError(t, err)

	products, err := catalog.NewService(catalog.NewBlobRepository(store), nil)
	require.NoError(t, err)
	product, err := products.Create(ctx, catalog.ProductInput{
		Name:     "Studio Monitor",
		Price:    decimal.NewFromInt(1500000),
		Category: enums.ProductCategoryHeadphone,
		Brand:    "Atheng",
		InStock:  true,
	})
	require.NoError(t, err)

	carts, err := cart.NewRegistry(store, nil)
	require.NoError(t, err)
	orderRepo := orders.NewBlobRepository(store)
	assembler, err := orders.NewAssembler(orderRepo, decimal.NewFromInt(30000), nil, m)
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orderRepo, nil)
	require.NoError(t, err)

	handler := NewRouter(Dependencies{
		Config:   cfg,
		Metrics:  m,
		Gatherer: reg,
		Store:    store,
		Pingers:  pingers,
		Identity: ids,
		Catalog:  products,
		Carts:    carts,
		Checkout: assembler,
		Orders:   orderSvc,
	})
	return testServer{handler: handler, catalog: products, product: product}
}

func (s testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func (s testServer) login(t *testing.T, email, password string, headers map[string]string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"email": email, "password": password}, headers)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{"kv": stubPinger{}})

	live := srv.do(t, http.MethodGet, "/health/live", nil, nil)
	require.Equal(t, http.StatusOK, live.Code)
	require.Equal(t, "test", live.Header().Get("X-Atheng-Env"))

	ready := srv.do(t, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, ready.Code)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{"db": stubPinger{err: errors.New("down")}})

	resp := srv.do(t, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), "down")
}

func TestProductRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	list := srv.do(t, http.MethodGet, "/api/v1/products?category=headphone&brand=Atheng", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), `"count":1`)

	detail := srv.do(t, http.MethodGet, "/api/v1/products/999", nil, nil)
	require.Equal(t, http.StatusNotFound, detail.Code)

	bad := srv.do(t, http.MethodGet, "/api/v1/products/abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, bad.Code)

	brands := srv.do(t, http.MethodGet, "/api/v1/products/brands", nil, nil)
	require.Equal(t, http.StatusOK, brands.Code)
	require.Contains(t, brands.Body.String(), "Atheng")
}

func TestGuestCartMergesOnLoginAndChecksOut(t *testing.T) {
	srv := newTestServer(t, nil)
	guest := map[string]string{"X-Cart-Id": "guest-42"}

	add := srv.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": srv.product.ID, "quantity": 2}, guest)
	require.Equal(t, http.StatusOK, add.Code, add.Body.String())

	token := srv.login(t, "user@example.com", "user123", guest)
	auth := bearer(token)

	var view struct {
		ItemCount int `json:"itemCount"`
	}
	got := srv.do(t, http.MethodGet, "/api/v1/cart", nil, auth)
	require.Equal(t, http.StatusOK, got.Code)
	decodeData(t, got, &view)
	require.Equal(t, 2, view.ItemCount)

	body := map[string]any{
		"customerInfo": map[string]any{
			"fullName": "Nguyen Van A",
			"email":    "a@example.com",
			"phone":    "0912345678",
			"address":  "12 Ly Thuong Kiet",
			"city":     "Ha Noi",
			"district": "Hoan Kiem",
			"ward":     "Trang Tien",
		},
		"paymentMethod": "cod",
	}
	headers := bearer(token)
	headers["Idempotency-Key"] = "checkout-1"
	first := srv.do(t, http.MethodPost, "/api/v1/checkout", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay := srv.do(t, http.MethodPost, "/api/v1/checkout", body, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	require.JSONEq(t, first.Body.String(), replay.Body.String())

	list := srv.do(t, http.MethodGet, "/api/v1/orders", nil, auth)
	require.Equal(t, http.StatusOK, list.Code)
	require.Contains(t, list.Body.String(), `"count":1`)
	require.Contains(t, list.Body.String(), `"grandTotal":"3030000"`)

	emptied := srv.do(t, http.MethodGet, "/api/v1/cart", nil, auth)
	decodeData(t, emptied, &view)
	require.Zero(t, view.ItemCount)
}

func TestCheckoutRequiresAuth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodPost, "/api/v1/checkout", map[string]any{}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	srv := newTestServer(t, nil)

	anonymous := srv.do(t, http.MethodGet, "/api/v1/admin/stats", nil, nil)
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)

	userToken := srv.login(t, "user@example.com", "user123", nil)
	forbidden := srv.do(t, http.MethodGet, "/api/v1/admin/stats", nil, bearer(userToken))
	require.Equal(t, http.StatusForbidden, forbidden.Code)

	adminToken := srv.login(t, "admin@athengaudio.com", "admin123", nil)
	stats := srv.do(t, http.MethodGet, "/api/v1/admin/stats", nil, bearer(adminToken))
	require.Equal(t, http.StatusOK, stats.Code)
	require.Contains(t, stats.Body.String(), `"totalProducts":1`)
}

func TestAdminProductLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	auth := bearer(srv.login(t, "admin@athengaudio.com", "admin123", nil))

	created := srv.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":     "Pocket Speaker",
		"price":    "490000",
		"category": "speaker",
		"brand":    "Atheng",
		"inStock":  false,
	}, auth)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var product catalog.Product
	decodeData(t, created, &product)
	require.Equal(t, catalog.DefaultImage, product.Image)

	invalid := srv.do(t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":     "Broken",
		"price":    "1",
		"category": "turntable",
	}, auth)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	stats := srv.do(t, http.MethodGet, "/api/v1/admin/stats", nil, auth)
	require.Contains(t, stats.Body.String(), `"outOfStock":1`)

	path := "/api/v1/admin/products/" + strconv.FormatInt(product.ID, 10)
	require.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, path, nil, auth).Code)
	require.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, path, nil, auth).Code)
}

func TestWishlistRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	auth := bearer(srv.login(t, "test@example.com", "test123", nil))

	add := srv.do(t, http.MethodPost, "/api/v1/me/wishlist/9", nil, auth)
	require.Equal(t, http.StatusOK, add.Code)
	require.Contains(t, add.Body.String(), `"changed":true`)

	again := srv.do(t, http.MethodPost, "/api/v1/me/wishlist/9", nil, auth)
	require.Contains(t, again.Body.String(), `"changed":false`)

	cleared := srv.do(t, http.MethodDelete, "/api/v1/me/wishlist", nil, auth)
	require.Equal(t, http.StatusOK, cleared.Code)
	require.Contains(t, cleared.Body.String(), `"wishlist":[]`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodGet, "/health/live", nil, nil)

	resp := srv.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "http_request_duration_seconds")
}
