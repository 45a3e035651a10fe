package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const defaultCustomPeriodDays = 30

type orderCreator interface {
	CreateRenewalOrder(ctx context.Context, sub *models.Subscription) (*models.Order, error)
}

type serviceLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

type dispatcher interface {
	SubscriptionRenewed(ctx context.Context, sub *models.Subscription)
	SubscriptionExpired(ctx context.Context, sub *models.Subscription)
}

// Service defines subscription operations.
type Service interface {
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error)
	ListExpiringSoon(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.Subscription, error)
	GetSubscription(ctx context.Context, userID, subID uuid.UUID) (*models.Subscription, error)
	Renew(ctx context.Context, userID, subID uuid.UUID) (*models.Order, error)
	ExtendForPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ExpireLapsed(ctx context.Context, now time.Time, batchSize int) (int, error)
}

type service struct {
	repo       Repository
	orders     orderCreator
	catalog    serviceLookup
	dispatcher dispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// ServiceParams bundles the dependencies for the subscription service.
type ServiceParams struct {
	Repo       Repository
	Orders     orderCreator
	Catalog    serviceLookup
	Dispatcher dispatcher
	Logger     *logger.Logger
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriptions repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		orders:     params.Orders,
		catalog:    params.Catalog,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

func (s *service) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	subs, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return subs, nil
}

func (s *service) ListExpiringSoon(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if withinDays <= 0 {
		withinDays = 7
	}
	from := s.now().UTC()
	until := from.AddDate(0, 0, withinDays)
	subs, err := s.repo.ListExpiringSoonByUser(ctx, userID, from, until)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expiring subscriptions")
	}
	return subs, nil
}

func (s *service) GetSubscription(ctx context.Context, userID, subID uuid.UUID) (*models.Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	sub, err := s.repo.FindByIDForUser(ctx, subID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}

// Renew opens a pending renewal order. The subscription itself is not
// touched here; the end date moves only when that order's payment
// settles.
func (s *service) Renew(ctx context.Context, userID, subID uuid.UUID) (*models.Order, error) {
	sub, err := s.GetSubscription(ctx, userID, subID)
	if err != nil {
		return nil, err
	}
	if sub.Status == enums.SubscriptionStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled subscription cannot be renewed")
	}

	order, err := s.orders.CreateRenewalOrder(ctx, sub)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ExtendForPaidOrder runs inside the settlement transaction. The new
// end date starts from whichever is later, now or the current end
// date, so early renewals stack instead of truncating.
func (s *service) ExtendForPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil || order.SubscriptionID == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order has no subscription to extend")
	}
	repo := s.repo.WithTx(tx)

	// Locked read: concurrent settlements must extend sequentially,
	// not from the same base end date.
	sub, err := repo.FindByIDLocked(ctx, *order.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	now := s.now().UTC()
	base := sub.EndDate
	if base.Before(now) {
		base = now
	}
	sub.EndDate = s.extend(ctx, sub, base)
	sub.Status = enums.SubscriptionStatusActive
	sub.IsActive = true
	if err := repo.Save(ctx, sub); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store subscription")
	}

	if s.dispatcher != nil {
		s.dispatcher.SubscriptionRenewed(ctx, sub)
	}
	return nil
}

func (s *service) ExpireLapsed(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	lapsed, err := s.repo.ListLapsed(ctx, now, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list lapsed subscriptions")
	}

	var errs error
	expired := 0
	for i := range lapsed {
		sub := lapsed[i]
		sub.Status = enums.SubscriptionStatusExpired
		sub.IsActive = false
		if err := s.repo.Save(ctx, &sub); err != nil {
			errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store expired subscription"))
			continue
		}
		expired++
		if s.dispatcher != nil {
			s.dispatcher.SubscriptionExpired(ctx, &sub)
		}
	}
	return expired, errs
}

func (s *service) extend(ctx context.Context, sub *models.Subscription, base time.Time) time.Time {
	switch sub.PackageType {
	case enums.PackageTypeYearly:
		return base.AddDate(1, 0, 0)
	case enums.PackageTypeCustom:
		return base.AddDate(0, 0, s.customPeriodDays(ctx, sub))
	default:
		return base.AddDate(0, 1, 0)
	}
}

func (s *service) customPeriodDays(ctx context.Context, sub *models.Subscription) int {
	if sub.ServiceID == nil {
		return defaultCustomPeriodDays
	}
	svc, err := s.catalog.FindByID(ctx, *sub.ServiceID)
	if err != nil || svc.DurationDays <= 0 {
		s.logg.Warn(s.logg.WithField(ctx, "subscription_id", sub.ID.String()),
			"custom period fallback, service lookup failed")
		return defaultCustomPeriodDays
	}
	return svc.DurationDays
}
