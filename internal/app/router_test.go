package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/service"
)

const secret = "testsecret"

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	return &models.User{ID: 1, Email: in.Email}, nil
}

func (stubAuth) Login(ctx context.Context, email, password string) (string, error) {
	return security.NewToken(ctx, &models.User{ID: 1, Email: email}, time.Hour, secret)
}

func (stubAuth) SetAdmin(ctx context.Context, userID int64, isAdmin bool) (*models.User, error) {
	return &models.User{ID: userID, IsAdmin: isAdmin}, nil
}

type stubOrders struct{}

func (stubOrders) PlaceOrder(ctx context.Context, userID int64, addr models.ShippingAddress, lines []models.Line) (*models.Order, error) {
	return &models.Order{ID: 1, UserID: userID, Status: models.StatusPending}, nil
}

func (stubOrders) GetMyOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return []*models.Order{{ID: 1, UserID: userID}}, nil
}

func (stubOrders) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	return []*models.Order{}, nil
}

func (stubOrders) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: models.OrderStatus(status)}, nil
}

func (stubOrders) CancelOrder(ctx context.Context, orderID int64, who models.Identity) error {
	return nil
}

type stubCatalog struct{}

func (stubCatalog) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return []*models.Product{}, nil
}

func (stubCatalog) GetProduct(ctx context.Context, id int64) (*models.ProductWithVariants, error) {
	return nil, fmt.Errorf("%w: product %d", service.ErrNotFound, id)
}

func (stubCatalog) ListFeaturedProducts(ctx context.Context) ([]*models.Product, error) {
	return []*models.Product{{ID: 1, IsFeatured: true}}, nil
}

func (stubCatalog) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	p.ID = 2
	return &p, nil
}

func (stubCatalog) ListSizes(ctx context.Context) ([]models.Size, error) {
	return []models.Size{{ID: 1, Type: "M"}}, nil
}

func (stubCatalog) CreateSize(ctx context.Context, sizeType string) (*models.Size, error) {
	return &models.Size{ID: 2, Type: sizeType}, nil
}

func (stubCatalog) AddVariantStock(ctx context.Context, v models.ProductVariant) (*models.ProductVariant, error) {
	return &v, nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(app.NewRouter(log, secret, app.Services{
		Auth:    stubAuth{},
		Orders:  stubOrders{},
		Catalog: stubCatalog{},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, admin bool) string {
	t.Helper()
	tok, err := security.NewToken(context.Background(), &models.User{ID: 42, IsAdmin: admin}, time.Hour, secret)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, srv *httptest.Server, method, path, tok, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_AccessControl(t *testing.T) {
	srv := newServer(t)
	userTok := token(t, false)
	adminTok := token(t, true)
	orderBody := `{"shipping_address": {"city": "a", "town": "b", "street": "c"}, "products": [{"product_id": 1, "size_id": 1, "color": "red", "quantity": 1}]}`

	tests := []struct {
		name   string
		method string
		path   string
		tok    string
		body   string
		status int
	}{
		{"products are public", "GET", "/api/products", "", "", http.StatusOK},
		{"unknown product", "GET", "/api/products/3", "", "", http.StatusNotFound},
		{"featured products are public", "GET", "/api/products/featured", "", "", http.StatusOK},
		{"create product needs token", "POST", "/api/products", "", `{"name": "Cap", "price": 10}`, http.StatusUnauthorized},
		{"create product for user", "POST", "/api/products", userTok, `{"name": "Cap", "price": 10}`, http.StatusForbidden},
		{"create product for admin", "POST", "/api/products", adminTok, `{"name": "Cap", "price": 10}`, http.StatusCreated},
		{"sizes for user", "GET", "/api/sizes", userTok, "", http.StatusForbidden},
		{"sizes for admin", "GET", "/api/sizes", adminTok, "", http.StatusOK},
		{"create size for admin", "POST", "/api/sizes", adminTok, `{"type": "XL"}`, http.StatusCreated},
		{"promote for user", "PATCH", "/api/users/7/admin", userTok, `{"is_admin": true}`, http.StatusForbidden},
		{"promote for admin", "PATCH", "/api/users/7/admin", adminTok, `{"is_admin": true}`, http.StatusOK},
		{"place order needs token", "POST", "/api/orders", "", orderBody, http.StatusUnauthorized},
		{"place order", "POST", "/api/orders", userTok, orderBody, http.StatusCreated},
		{"my orders", "GET", "/api/orders/my", userTok, "", http.StatusOK},
		{"cancel", "PATCH", "/api/orders/1/cancel", userTok, "", http.StatusOK},
		{"all orders for user", "GET", "/api/orders", userTok, "", http.StatusForbidden},
		{"all orders for admin", "GET", "/api/orders", adminTok, "", http.StatusOK},
		{"status for user", "PUT", "/api/orders/1/status", userTok, `{"status": "shipped"}`, http.StatusForbidden},
		{"status for admin", "PUT", "/api/orders/1/status", adminTok, `{"status": "shipped"}`, http.StatusOK},
		{"variants for user", "POST", "/api/products/1/variants", userTok, `{"size_id": 1, "color": "red", "quantity": 2}`, http.StatusForbidden},
		{"variants for admin", "POST", "/api/products/1/variants", adminTok, `{"size_id": 1, "color": "red", "quantity": 2}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.tok, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouter_LoginThenOrder(t *testing.T) {
	srv := newServer(t)

	resp := do(t, srv, "POST", "/api/auth/login", "", `{"email": "u@example.com", "password": "password123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	require.NotEmpty(t, auth.Token)

	resp = do(t, srv, "GET", "/api/orders/my", auth.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []models.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].UserID)
}

func TestDSN(t *testing.T) {
	dsn := app.DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "postgres", Password: "p@ss", Name: "storefront", SSLMode: "disable"})
	assert.Equal(t, "postgres://postgres:p%40ss@db:5432/storefront?sslmode=disable", dsn)
}
