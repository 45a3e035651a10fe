package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/internal/auth"
	"github.com/neointegra/neointegra-backend/internal/notifications"
	"github.com/neointegra/neointegra-backend/internal/orders"
	"github.com/neointegra/neointegra-backend/internal/payments"
	"github.com/neointegra/neointegra-backend/internal/users"
	pkgAuth "github.com/neointegra/neointegra-backend/pkg/auth"
	"github.com/neointegra/neointegra-backend/pkg/config"
	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/logger"
	"github.com/neointegra/neointegra-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListServices(ctx context.Context, category string) ([]models.Service, error) {
	return []models.Service{{Name: "Company Profile Website"}}, nil
}

func (stubCatalogService) GetService(ctx context.Context, slug string) (*models.Service, error) {
	return &models.Service{Slug: slug}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	return &models.Order{UserID: input.UserID}, nil
}

func (stubOrdersService) CreateRenewalOrder(ctx context.Context, sub *models.Subscription) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID, UserID: userID}, nil
}

func (stubOrdersService) GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	return &models.Order{UserID: userID, OrderNumber: orderNumber}, nil
}

func (stubOrdersService) ListOrders(ctx context.Context, input orders.ListOrdersInput) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrdersService) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

type stubPaymentsService struct {
	callbacks int
}

func (s *stubPaymentsService) CreatePayment(ctx context.Context, input payments.CreatePaymentInput) (*models.Payment, error) {
	return &models.Payment{OrderID: input.OrderID}, nil
}

func (s *stubPaymentsService) GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	return &models.Payment{ID: paymentID}, nil
}

func (s *stubPaymentsService) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]models.Payment, error) {
	return []models.Payment{{OrderID: orderID}}, nil
}

func (s *stubPaymentsService) HandleCallback(ctx context.Context, contentType string, body []byte, signature string) error {
	s.callbacks++
	return nil
}

func (s *stubPaymentsService) CheckStatus(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	return &models.Payment{ID: paymentID}, nil
}

func (s *stubPaymentsService) ExpirePending(ctx context.Context, now time.Time, batchSize int) (int, error) {
	return 0, nil
}

func (s *stubPaymentsService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	return 0, nil
}

type stubSubscriptionsService struct{}

func (stubSubscriptionsService) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	return []models.Subscription{}, nil
}

func (stubSubscriptionsService) ListExpiringSoon(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.Subscription, error) {
	return []models.Subscription{}, nil
}

func (stubSubscriptionsService) GetSubscription(ctx context.Context, userID, subID uuid.UUID) (*models.Subscription, error) {
	return &models.Subscription{ID: subID}, nil
}

func (stubSubscriptionsService) Renew(ctx context.Context, userID, subID uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubSubscriptionsService) ExtendForPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return nil
}

func (stubSubscriptionsService) ExpireLapsed(ctx context.Context, now time.Time, batchSize int) (int, error) {
	return 0, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) (http.Handler, *stubPaymentsService) {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	paymentsSvc := &stubPaymentsService{}
	router := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubAuthService{},
		stubCatalogService{},
		stubOrdersService{},
		paymentsSvc,
		stubSubscriptionsService{},
		stubNotificationsService{},
	)
	return router, paymentsSvc
}

func buildToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "budi@example.co.id",
		Role:   pkgAuth.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready", "/healthz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestCatalogNeedsNoToken(t *testing.T) {
	router, _ := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for service list got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/services/company-profile-website", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for service detail got %d", resp.Code)
	}
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	paths := []string{
		"/api/v1/auth/me",
		"/api/v1/orders",
		"/api/v1/subscriptions",
		"/api/v1/notifications",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token got %d", path, resp.Code)
		}
	}
}

func TestProtectedRoutesSucceedWithJWT(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)
	token := buildToken(t, cfg, uuid.New())
	paths := []string{
		"/api/v1/auth/me",
		"/api/v1/orders",
		"/api/v1/orders/" + uuid.NewString(),
		"/api/v1/payments/" + uuid.NewString(),
		"/api/v1/payments/order/" + uuid.NewString(),
		"/api/v1/subscriptions",
		"/api/v1/subscriptions/expiring",
		"/api/v1/notifications",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestPaymentCallbackIsPublic(t *testing.T) {
	router, paymentsSvc := newTestRouter(testConfig())

	body := strings.NewReader(`{"trx_id":118160,"status":"berhasil"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for callback got %d", resp.Code)
	}
	if paymentsSvc.callbacks != 1 {
		t.Fatalf("expected callback handled once got %d", paymentsSvc.callbacks)
	}
}

func TestCreateOrderRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	body := strings.NewReader(`{"service_slug":"company-profile-website"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}

func TestOrderLookupByNumber(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-20260831-0001", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New()))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order number lookup got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "ORD-20260831-0001") {
		t.Fatalf("expected order number in response body got %s", resp.Body.String())
	}
}
