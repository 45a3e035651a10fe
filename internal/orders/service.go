package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/internal/catalog"
	"github.com/neointegra/neointegra-backend/pkg/db"
	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
)

const (
	orderNumberConstraint = "idx_orders_order_number"
	orderNumberAttempts   = 3
	maxQuantity           = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dispatcher interface {
	OrderCreated(ctx context.Context, order *models.Order)
}

// Service defines order operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	CreateRenewalOrder(ctx context.Context, sub *models.Subscription) (*models.Order, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, input ListOrdersInput) ([]models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	repo       Repository
	catalog    catalog.Repository
	tx         txRunner
	dispatcher dispatcher
	now        func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner, disp dispatcher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		catalog:    catalogRepo,
		tx:         tx,
		dispatcher: disp,
		now:        time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	slug := strings.TrimSpace(input.ServiceSlug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service slug required")
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > maxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxQuantity))
	}

	svc, err := s.catalog.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}

	serviceID := svc.ID
	order := &models.Order{
		UserID:      input.UserID,
		ServiceID:   &serviceID,
		ServiceName: svc.Name,
		Quantity:    quantity,
		UnitPrice:   svc.Price,
		TotalPrice:  svc.Price * int64(quantity),
		Status:      enums.OrderStatusPending,
		Notes:       input.Notes,
	}

	created, err := s.persistWithNumber(ctx, order)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.OrderCreated(ctx, created)
	}
	return created, nil
}

func (s *service) CreateRenewalOrder(ctx context.Context, sub *models.Subscription) (*models.Order, error) {
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription required")
	}

	subscriptionID := sub.ID
	order := &models.Order{
		UserID:         sub.UserID,
		ServiceID:      sub.ServiceID,
		SubscriptionID: &subscriptionID,
		ServiceName:    fmt.Sprintf("%s renewal", sub.PackageName),
		Quantity:       1,
		UnitPrice:      sub.EffectiveRenewalPrice(),
		TotalPrice:     sub.EffectiveRenewalPrice(),
		Status:         enums.OrderStatusPending,
	}

	created, err := s.persistWithNumber(ctx, order)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.OrderCreated(ctx, created)
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetOrderByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumberForUser(ctx, orderNumber, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) ([]models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
	}
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	orders, err := s.repo.ListByUser(ctx, input.UserID, input.Status, limit, input.Offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUser(ctx, orderID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCancelled {
			cancelled = order
			return nil
		}
		if !order.Status.CanTransition(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		order.Status = enums.OrderStatusCancelled
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// MarkPaid moves an order to paid inside the caller's transaction. The
// settlement path owns the transaction so payment and order flip together.
func (s *service) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindByIDLocked(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusPaid {
		return order, nil
	}
	if !order.Status.CanTransition(enums.OrderStatusPaid) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be marked paid", order.Status))
	}
	if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	order.Status = enums.OrderStatusPaid
	return order, nil
}

func (s *service) persistWithNumber(ctx context.Context, order *models.Order) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := generateOrderNumber(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number

		created, err := s.repo.Create(ctx, order)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, orderNumberConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "order number collision")
}

func generateOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%s",
		now.UTC().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(suffix))), nil
}
