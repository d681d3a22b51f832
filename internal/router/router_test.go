package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/iliyamo/orvella-storefront/internal/config"
	"github.com/iliyamo/orvella-storefront/internal/handler"
	"github.com/iliyamo/orvella-storefront/internal/middleware"
	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
	"github.com/iliyamo/orvella-storefront/internal/repository"
	"github.com/iliyamo/orvella-storefront/internal/service"
	"github.com/iliyamo/orvella-storefront/internal/testutil"
)

const dashboardOrigin = "http://localhost:5173"

type app struct {
	e     *echo.Echo
	db    *sql.DB
	bus   *notify.Bus
	users *repository.UserRepo
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg := config.Config{JWTSecret: "router-test-secret-0123456789abcdef", CookieName: "token", PriceTolerance: 1}

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	notifications := repository.NewNotificationRepo(db)
	bus := notify.New(16)
	t.Cleanup(bus.Close)

	gate := service.NewAuthGate(users, cfg.JWTSecret, time.Hour, 4)
	e := echo.New()
	Register(e, Handlers{
		Auth:          handler.NewAuthHandler(cfg, gate),
		Orders:        handler.NewOrderHandler(service.NewOrderService(orders, products, bus, cfg.PriceTolerance)),
		Products:      handler.NewProductHandler(service.NewCatalogService(products)),
		Users:         handler.NewUserHandler(service.NewUserService(users)),
		Notifications: handler.NewNotificationHandler(bus, notifications, dashboardOrigin),
		Health:        handler.Health(db),
	}, Middleware{Session: middleware.Session(gate, cfg.CookieName)})
	return &app{e: e, db: db, bus: bus, users: users}
}

type reply struct {
	Code   int
	Header http.Header
	Body   map[string]json.RawMessage
	Raw    string
}

func (r reply) decode(t *testing.T, key string, v any) {
	t.Helper()
	raw, ok := r.Body[key]
	require.True(t, ok, "response has no %q: %s", key, r.Raw)
	require.NoError(t, json.Unmarshal(raw, v))
}

func (a *app) do(t *testing.T, method, path, token string, body any) reply {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := reply{Code: rec.Code, Header: rec.Header(), Raw: rec.Body.String()}
	_ = json.Unmarshal(rec.Body.Bytes(), &out.Body)
	return out
}

func (a *app) register(t *testing.T, name, email string) (model.User, string) {
	t.Helper()
	r := a.do(t, http.MethodPost, "/api/v1/register", "", echo.Map{"name": name, "email": email, "password": "hunter22"})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	var u model.User
	var tok string
	r.decode(t, "user", &u)
	r.decode(t, "token", &tok)
	return u, tok
}

// admin registers a user and promotes it in the store; the same token then
// carries admin rights because roles are read on every request.
func (a *app) admin(t *testing.T) string {
	t.Helper()
	u, tok := a.register(t, "Root", "root@orvella.in")
	_, err := a.users.UpdateRole(context.Background(), u.ID, model.RoleAdmin)
	require.NoError(t, err)
	return tok
}

func (a *app) seedProduct(t *testing.T, adminTok string, stock int) model.Product {
	t.Helper()
	r := a.do(t, http.MethodPost, "/api/v1/admin/product/new", adminTok, echo.Map{
		"name": "Golden Root", "price": 100, "description": "attar", "stock": stock,
		"images": []echo.Map{{"public_id": "a", "url": "https://img/a.jpg"}},
	})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	var p model.Product
	r.decode(t, "product", &p)
	return p
}

func orderBody(productID uint64, qty int) echo.Map {
	items := int64(qty) * 100
	tax := items * 18 / 100
	return echo.Map{
		"orderItems":   []echo.Map{{"product": productID, "name": "Golden Root", "quantity": qty, "price": 100}},
		"shippingInfo": echo.Map{"address": "12 MG Road", "city": "Pune", "state": "MH", "country": "IN", "pinCode": "411001", "phoneNo": "9876543210"},
		"paymentInfo":  echo.Map{"id": "pay_1", "status": "succeeded"},
		"itemsPrice":   items, "taxPrice": tax, "shippingPrice": 0, "totalPrice": items + tax,
	}
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)

	r := a.do(t, http.MethodPost, "/api/v1/register", "", echo.Map{"name": "Alice", "email": "alice@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	assert.NotContains(t, r.Raw, "password")
	setCookie := r.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, "token=")
	assert.Contains(t, setCookie, "HttpOnly")

	r = a.do(t, http.MethodPost, "/api/v1/register", "", echo.Map{"name": "Alice", "email": "alice@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, r.Code)

	bad := a.do(t, http.MethodPost, "/api/v1/login", "", echo.Map{"email": "alice@example.com", "password": "wrong-one"})
	unknown := a.do(t, http.MethodPost, "/api/v1/login", "", echo.Map{"email": "ghost@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Equal(t, bad.Raw, unknown.Raw)

	r = a.do(t, http.MethodPost, "/api/v1/login", "", echo.Map{"email": "alice@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, r.Code)
	var tok string
	r.decode(t, "token", &tok)

	// the session cookie alone is enough
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/me", tok+"x", nil).Code)

	r = a.do(t, http.MethodGet, "/api/v1/logout", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Contains(t, r.Header.Get("Set-Cookie"), "Max-Age=0")
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newApp(t)
	adminTok := a.admin(t)
	p := a.seedProduct(t, 5)
	_, aliceTok := a.register(t, "Alice", "alice@example.com")
	_, bobTok := a.register(t, "Bob", "bob@example.com")

	r := a.do(t, http.MethodPost, "/api/v1/order/new", aliceTok, orderBody(p.ID, 2))
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)
	var o model.Order
	r.decode(t, "order", &o)
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, int64(236), o.TotalPrice)

	path := "/api/v1/order/" + jsonID(o.ID)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, aliceTok, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, path, bobTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/order/999", aliceTok, nil).Code)

	var mine []model.Order
	a.do(t, http.MethodGet, "/api/v1/orders/me", bobTok, nil).decode(t, "orders", &mine)
	assert.Empty(t, mine)

	r = a.do(t, http.MethodGet, "/api/v1/admin/orders", aliceTok, nil)
	assert.Equal(t, http.StatusForbidden, r.Code)
	assert.Contains(t, r.Raw, "requires admin")

	adminPath := "/api/v1/admin/order/" + jsonID(o.ID)
	r = a.do(t, http.MethodPut, adminPath, adminTok, echo.Map{"status": "Shipped"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)

	var prod model.Product
	a.do(t, http.MethodGet, "/api/v1/product/"+jsonID(p.ID), "", nil).decode(t, "product", &prod)
	assert.Equal(t, 3, prod.Stock)
	assert.Equal(t, 2, prod.Sales)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, adminPath, adminTok, echo.Map{"status": "Shipped"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, adminPath, adminTok, echo.Map{"status": "Teleported"}).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, adminPath, adminTok, echo.Map{"status": "Delivered"}).Code)
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPut, adminPath, adminTok, echo.Map{"status": "Cancelled"}).Code)

	r = a.do(t, http.MethodGet, "/api/v1/admin/orders", adminTok, nil)
	require.Equal(t, http.StatusOK, r.Code)
	var total int64
	r.decode(t, "totalAmount", &total)
	assert.Equal(t, int64(236), total)

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, adminPath, adminTok, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, adminPath, adminTok, nil).Code)
}

func TestShippingWithoutStockIsConflict(t *testing.T) {
	a := newApp(t)
	adminTok := a.admin(t)
	p := a.seedProduct(t, 1)
	_, aliceTok := a.register(t, "Alice", "alice@example.com")

	var o model.Order
	a.do(t, http.MethodPost, "/api/v1/order/new", aliceTok, orderBody(p.ID, 2)).decode(t, "order", &o)
	r := a.do(t, http.MethodPut, "/api/v1/admin/order/"+jsonID(o.ID), adminTok, echo.Map{"status": "Shipped"})
	assert.Equal(t, http.StatusConflict, r.Code)

	var prod model.Product
	a.do(t, http.MethodGet, "/api/v1/product/"+jsonID(p.ID), "", nil).decode(t, "product", &prod)
	assert.Equal(t, 1, prod.Stock)
}

func TestBadOrderInput(t *testing.T) {
	a := newApp(t)
	a.admin(t)
	_, aliceTok := a.register(t, "Alice", "alice@example.com")

	body := orderBody(1, 2)
	body["totalPrice"] = 5
	r := a.do(t, http.MethodPost, "/api/v1/order/new", aliceTok, body)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Contains(t, r.Raw, "price mismatch")

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/v1/order/new", "", orderBody(1, 2)).Code)
}

func TestAdminUsersAndCatalog(t *testing.T) {
	a := newApp(t)
	adminTok := a.admin(t)
	alice, aliceTok := a.register(t, "Alice", "alice@example.com")
	p := a.seedProduct(t, 5)

	r := a.do(t, http.MethodPost, "/api/v1/admin/product/new", adminTok, echo.Map{"name": "Again", "price": 1, "stock": 1})
	assert.Equal(t, http.StatusConflict, r.Code)

	r = a.do(t, http.MethodPut, "/api/v1/admin/product/"+jsonID(p.ID), adminTok, echo.Map{"name": "Golden Root", "price": 150, "stock": 9})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	var products []model.Product
	a.do(t, http.MethodGet, "/api/v1/products", "", nil).decode(t, "products", &products)
	require.Len(t, products, 1)
	assert.Equal(t, int64(150), products[0].Price)

	var users []model.User
	a.do(t, http.MethodGet, "/api/v1/admin/users", adminTok, nil).decode(t, "users", &users)
	assert.Len(t, users, 2)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, "/api/v1/admin/users", aliceTok, nil).Code)

	r = a.do(t, http.MethodPut, "/api/v1/admin/user/"+jsonID(alice.ID), adminTok, echo.Map{"role": "admin"})
	require.Equal(t, http.StatusOK, r.Code, r.Raw)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/admin/users", aliceTok, nil).Code, "promotion applies to the existing session")

	_, err := a.db.Exec("DELETE FROM users WHERE id = ?", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/me", aliceTok, nil).Code)
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	r := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, "ok", r.Raw)
}

func TestNotificationStream(t *testing.T) {
	a := newApp(t)
	adminTok := a.admin(t)
	p := a.seedProduct(t, 5)
	_, aliceTok := a.register(t, "Alice", "alice@example.com")

	srv := httptest.NewServer(a.e)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/notifications/ws"

	cfg, err := websocket.NewConfig(wsURL, dashboardOrigin)
	require.NoError(t, err)
	cfg.Header.Set("Authorization", "Bearer "+adminTok)
	ws, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return a.bus.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	r := a.do(t, http.MethodPost, "/api/v1/order/new", aliceTok, orderBody(p.ID, 2))
	require.Equal(t, http.StatusCreated, r.Code, r.Raw)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev notify.Event
	require.NoError(t, websocket.JSON.Receive(ws, &ev))
	assert.Equal(t, notify.TypeNewOrder, ev.Type)
	assert.Equal(t, "Alice", ev.Payload.UserName)
	assert.Equal(t, int64(236), ev.Payload.TotalPrice)

	// customers cannot subscribe, and foreign origins are refused
	cfg, err = websocket.NewConfig(wsURL, dashboardOrigin)
	require.NoError(t, err)
	cfg.Header.Set("Authorization", "Bearer "+aliceTok)
	_, err = websocket.DialConfig(cfg)
	assert.Error(t, err)

	cfg, err = websocket.NewConfig(wsURL, "http://evil.example")
	require.NoError(t, err)
	cfg.Header.Set("Authorization", "Bearer "+adminTok)
	_, err = websocket.DialConfig(cfg)
	assert.Error(t, err)
}

func jsonID(id uint64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
