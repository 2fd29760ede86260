package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"circular-storefront/internal/client"
	"circular-storefront/internal/config"
	"circular-storefront/internal/dto"
	"circular-storefront/internal/events"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"
	"circular-storefront/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jwtSecret = "server-test-secret"

type testServer struct {
	srv     *Server
	handler http.Handler
	db      *gorm.DB
	roles   service.RoleService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()

	cfg := &config.Config{
		Environment: config.Environment{Name: "test"},
		HTTP:        config.HTTPServer{Host: "127.0.0.1", Port: "0", CORSOrigins: []string{"*"}},
		Database: config.Database{
			Driver: "sqlite",
			URL:    ":memory:",
			// a single connection keeps the in-memory database alive
			MaxIdleConns: 1,
			MaxOpenConns: 1,
		},
		Auth: config.Auth{JWTSecret: jwtSecret},
	}

	db, err := client.InitDB(&cfg.Database)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	dispatcher := events.NewDispatcher(func(context.Context, events.StatusChanged) error { return nil },
		events.DispatcherOptions{Buffer: 8, Workers: 1}, log)
	t.Cleanup(dispatcher.Close)

	broker := client.NewMemoryBroker(log)
	t.Cleanup(func() { broker.Close() })

	orderRepo := repository.NewOrderRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	content := service.NewContentService(repository.NewContentRepository(db))
	roles := service.NewRoleService(repository.NewRoleRepository(db))

	srv := NewServer(cfg, Services{
		Order:  service.NewOrderService(db, orderRepo, dispatcher, service.OrderServiceOptions{}, log),
		Intake: service.NewPaymentIntakeService(db, client.NewStripeVerifier("whsec_test", 0), "mm-secret", orderRepo, repository.NewWebhookEventRepository(db), log),
		Chat:          service.NewChatService(repository.NewMessageRepository(db), broker, 50, log),
		Content:       content,
		Newsletter:    service.NewNewsletterService(subscriberRepo),
		Role:          roles,
		PaymentConfig: service.NewPaymentConfigService(db, repository.NewPaymentConfigRepository(db)),
		Product:       service.NewProductService(repository.NewProductRepository(db)),
		Integration: service.NewIntegrationService(client.NewEmailClient("http://127.0.0.1:1"), client.NewMailingListClient("http://127.0.0.1:1"),
			content, subscriberRepo, service.EmailSettings{}, service.MailingListSettings{}, log),
	}, log)

	return &testServer{srv: srv, handler: srv.Handler(), db: db, roles: roles}
}

func (s *testServer) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte(jwtSecret))
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedOrder(t *testing.T) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:               "9b2f7c1e-3a4d-4e5f-8a6b-7c8d9e0f1a2b",
		CustomerEmail:    "ada@example.com",
		TotalAmount:      decimal.RequireFromString("45.00"),
		Currency:         "GBP",
		Status:           model.OrderStatusPending,
		Items:            []model.LineItem{{Name: "Jacket", Quantity: 1, Price: decimal.RequireFromString("45.00")}},
		PaymentProvider:  model.PaymentProviderStripe,
		PaymentReference: "cs_test_1",
		Version:          1,
	}
	require.NoError(t, repository.NewOrderRepository(s.db).Create(context.Background(), nil, order))
	return order
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid signature"}`, rec.Body.String())
}

func TestAdminRoutes_RequireAuthAndRole(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/admin/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/orders", "", "customer-1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := s.roles.Assign(context.Background(), "mod-1", model.RoleModerator)
	require.NoError(t, err)

	rec = s.do(t, http.MethodGet, "/api/admin/orders", "", "mod-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	// role management is admin only
	rec = s.do(t, http.MethodGet, "/api/admin/roles", "", "mod-1")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err = s.roles.Assign(context.Background(), "admin-1", model.RoleAdmin)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/admin/roles", "", "admin-1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer(t)
	order := s.seedOrder(t)
	_, err := s.roles.Assign(context.Background(), "mod-1", model.RoleModerator)
	require.NoError(t, err)

	rec := s.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", `{"status":"shipped"}`, "mod-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.UpdateStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.OrderStatusShipped, resp.Order.Status)
	assert.NotNil(t, resp.Order.ShippedAt)
	assert.Equal(t, string(service.NotificationQueued), resp.Notification)

	rec = s.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", `{"status":"refunded"}`, "mod-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", `{"status":"delivered","version":1}`, "mod-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/admin/orders/missing/status", `{"status":"shipped"}`, "mod-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackOrder_HidesAdminNotes(t *testing.T) {
	s := newTestServer(t)
	order := s.seedOrder(t)
	require.NoError(t, s.db.Model(&model.Order{}).Where("id = ?", order.ID).Update("admin_notes", "fragile").Error)

	rec := s.do(t, http.MethodGet, "/api/orders/track?order_id="+order.ID+"&email=ADA@example.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "fragile")

	rec = s.do(t, http.MethodGet, "/api/orders/track?order_id="+order.ID+"&email=eve@example.com", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewsletterSubscribe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/newsletter/subscribe", `{"email":"ada@example.com"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/newsletter/subscribe", `{"email":"nope"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestStripeWebhook_OversizedBody(t *testing.T) {
	s := newTestServer(t)
	body := `{"id":"evt_big","pad":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestShutdown_StopsListener(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()

	resp, err := http.Get("http://" + addr + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.srv.Shutdown(context.Background()))

	select {
	case err := <-served:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "serve returned %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}

	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err == nil {
		conn.Close()
	}
	assert.Error(t, err, "listener still accepting after Shutdown")
}
