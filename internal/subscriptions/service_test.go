package subscriptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

func TestRenewCreatesPendingOrderWithoutTouchingSubscription(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)
	renewalPrice := int64(450000)
	sub.RenewalPrice = &renewalPrice
	endBefore := sub.EndDate

	order, err := env.svc.Renew(context.Background(), sub.UserID, sub.ID)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("renewal order must start pending, got %s", order.Status)
	}
	if order.TotalPrice != renewalPrice {
		t.Fatalf("expected renewal price %d, got %d", renewalPrice, order.TotalPrice)
	}
	if order.SubscriptionID == nil || *order.SubscriptionID != sub.ID {
		t.Fatal("renewal order must link the subscription")
	}
	if !sub.EndDate.Equal(endBefore) {
		t.Fatal("renewal request must not move the end date")
	}
}

func TestRenewFallsBackToBasePrice(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)

	order, err := env.svc.Renew(context.Background(), sub.UserID, sub.ID)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if order.TotalPrice != sub.Price {
		t.Fatalf("expected base price %d, got %d", sub.Price, order.TotalPrice)
	}
}

func TestRenewForeignSubscriptionHidden(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)

	_, err := env.svc.Renew(context.Background(), uuid.New(), sub.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestRenewCancelledRejected(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusCancelled)

	_, err := env.svc.Renew(context.Background(), sub.UserID, sub.ID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRenewExpiredAllowed(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusExpired)

	if _, err := env.svc.Renew(context.Background(), sub.UserID, sub.ID); err != nil {
		t.Fatalf("expired subscription must stay renewable: %v", err)
	}
}

func TestExtendForPaidOrderMonthly(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)
	endBefore := sub.EndDate
	subID := sub.ID
	order := &models.Order{ID: uuid.New(), SubscriptionID: &subID}

	if err := env.svc.ExtendForPaidOrder(context.Background(), nil, order); err != nil {
		t.Fatalf("extend: %v", err)
	}
	if want := endBefore.AddDate(0, 1, 0); !sub.EndDate.Equal(want) {
		t.Fatalf("expected end date %s, got %s", want, sub.EndDate)
	}
	if env.repo.lockedReads != 1 {
		t.Fatalf("extension must read the subscription under lock, got %d locked reads", env.repo.lockedReads)
	}
	if env.dispatcher.renewed != 1 {
		t.Fatalf("expected renewal notification, got %d", env.dispatcher.renewed)
	}
}

func TestExtendForPaidOrderYearly(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeYearly, enums.SubscriptionStatusActive)
	endBefore := sub.EndDate
	subID := sub.ID

	err := env.svc.ExtendForPaidOrder(context.Background(), nil, &models.Order{ID: uuid.New(), SubscriptionID: &subID})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if want := endBefore.AddDate(1, 0, 0); !sub.EndDate.Equal(want) {
		t.Fatalf("expected end date %s, got %s", want, sub.EndDate)
	}
}

func TestExtendForPaidOrderCustomUsesServiceDuration(t *testing.T) {
	env := newTestEnv(t)
	svcID := uuid.New()
	env.catalog.services[svcID] = &models.Service{ID: svcID, Name: "SEO Audit", DurationDays: 90}
	sub := env.seedSubscription(enums.PackageTypeCustom, enums.SubscriptionStatusActive)
	sub.ServiceID = &svcID
	endBefore := sub.EndDate
	subID := sub.ID

	err := env.svc.ExtendForPaidOrder(context.Background(), nil, &models.Order{ID: uuid.New(), SubscriptionID: &subID})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if want := endBefore.AddDate(0, 0, 90); !sub.EndDate.Equal(want) {
		t.Fatalf("expected end date %s, got %s", want, sub.EndDate)
	}
}

func TestExtendForPaidOrderCustomFallback(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeCustom, enums.SubscriptionStatusActive)
	sub.ServiceID = nil
	endBefore := sub.EndDate
	subID := sub.ID

	err := env.svc.ExtendForPaidOrder(context.Background(), nil, &models.Order{ID: uuid.New(), SubscriptionID: &subID})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if want := endBefore.AddDate(0, 0, 30); !sub.EndDate.Equal(want) {
		t.Fatalf("expected end date %s, got %s", want, sub.EndDate)
	}
}

func TestExtendForPaidOrderLapsedStartsFromNow(t *testing.T) {
	env := newTestEnv(t)
	sub := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusExpired)
	sub.EndDate = time.Now().UTC().AddDate(0, 0, -40)
	sub.IsActive = false
	subID := sub.ID

	err := env.svc.ExtendForPaidOrder(context.Background(), nil, &models.Order{ID: uuid.New(), SubscriptionID: &subID})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if sub.Status != enums.SubscriptionStatusActive || !sub.IsActive {
		t.Fatal("settled renewal must reactivate the subscription")
	}
	if sub.EndDate.Before(time.Now().UTC().AddDate(0, 0, 27)) {
		t.Fatalf("lapsed renewal must extend from now, got %s", sub.EndDate)
	}
}

func TestListActiveRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListActive(context.Background(), uuid.Nil)
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestExpireLapsed(t *testing.T) {
	env := newTestEnv(t)
	lapsed := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)
	lapsed.EndDate = time.Now().UTC().AddDate(0, 0, -1)
	current := env.seedSubscription(enums.PackageTypeMonthly, enums.SubscriptionStatusActive)

	count, err := env.svc.ExpireLapsed(context.Background(), time.Now().UTC(), 100)
	if err != nil {
		t.Fatalf("expire lapsed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expiry, got %d", count)
	}
	expired := env.repo.subs[lapsed.ID]
	if expired.Status != enums.SubscriptionStatusExpired || expired.IsActive {
		t.Fatalf("expected lapsed subscription deactivated, got %s", expired.Status)
	}
	if env.repo.subs[current.ID].Status != enums.SubscriptionStatusActive {
		t.Fatal("current subscription must stay active")
	}
	if env.dispatcher.expired != 1 {
		t.Fatalf("expected expiry notification, got %d", env.dispatcher.expired)
	}
}

type testEnv struct {
	svc        Service
	repo       *stubRepo
	catalog    *stubCatalog
	orders     *stubOrderCreator
	dispatcher *stubDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:       &stubRepo{subs: map[uuid.UUID]*models.Subscription{}},
		catalog:    &stubCatalog{services: map[uuid.UUID]*models.Service{}},
		orders:     &stubOrderCreator{},
		dispatcher: &stubDispatcher{},
	}

	svc, err := NewService(ServiceParams{
		Repo:       env.repo,
		Orders:     env.orders,
		Catalog:    env.catalog,
		Dispatcher: env.dispatcher,
		Logger:     logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) seedSubscription(pkg enums.PackageType, status enums.SubscriptionStatus) *models.Subscription {
	now := time.Now().UTC()
	sub := &models.Subscription{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		PackageName: "Hosting Premium",
		PackageType: pkg,
		Price:       500000,
		StartDate:   now.AddDate(0, -1, 0),
		EndDate:     now.AddDate(0, 0, 10),
		IsActive:    status == enums.SubscriptionStatusActive,
		Status:      status,
	}
	e.repo.subs[sub.ID] = sub
	return sub
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type stubRepo struct {
	subs        map[uuid.UUID]*models.Subscription
	lockedReads int
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	sub.ID = uuid.New()
	s.subs[sub.ID] = sub
	return sub, nil
}

func (s *stubRepo) Save(ctx context.Context, sub *models.Subscription) error {
	s.subs[sub.ID] = sub
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if sub, ok := s.subs[id]; ok {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByIDLocked(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	s.lockedReads++
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok || sub.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (s *stubRepo) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == enums.SubscriptionStatusActive && sub.IsActive {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *stubRepo) ListExpiringSoonByUser(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == enums.SubscriptionStatusActive &&
			!sub.EndDate.Before(from) && !sub.EndDate.After(until) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *stubRepo) ListLapsed(ctx context.Context, now time.Time, limit int) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range s.subs {
		if sub.Status == enums.SubscriptionStatusActive && sub.EndDate.Before(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

type stubCatalog struct {
	services map[uuid.UUID]*models.Service
}

func (s *stubCatalog) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	if svc, ok := s.services[id]; ok {
		return svc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubOrderCreator struct {
	err error
}

func (s *stubOrderCreator) CreateRenewalOrder(ctx context.Context, sub *models.Subscription) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	subscriptionID := sub.ID
	price := sub.EffectiveRenewalPrice()
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-20240715-C3D4",
		UserID:         sub.UserID,
		SubscriptionID: &subscriptionID,
		ServiceName:    sub.PackageName + " renewal",
		Quantity:       1,
		UnitPrice:      price,
		TotalPrice:     price,
		Status:         enums.OrderStatusPending,
	}, nil
}

type stubDispatcher struct {
	renewed int
	expired int
}

func (s *stubDispatcher) SubscriptionRenewed(ctx context.Context, sub *models.Subscription) {
	s.renewed++
}

func (s *stubDispatcher) SubscriptionExpired(ctx context.Context, sub *models.Subscription) {
	s.expired++
}
