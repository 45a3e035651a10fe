package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/internal/orders"
	"github.com/neointegra/neointegra-backend/pkg/config"
	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/ipaymu"
	"github.com/neointegra/neointegra-backend/pkg/logger"
	"github.com/neointegra/neointegra-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gateway interface {
	CreateDirectPayment(ctx context.Context, params ipaymu.DirectPaymentParams) (*ipaymu.DirectPayment, error)
	CheckTransaction(ctx context.Context, transactionID string) (*ipaymu.TransactionStatus, error)
	VerifyCallback(body []byte, signature string) bool
}

type orderMarker interface {
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

type subscriptionExtender interface {
	ExtendForPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type dispatcher interface {
	PaymentSettled(ctx context.Context, payment *models.Payment, order *models.Order)
}

// Service defines payment operations.
type Service interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.Payment, error)
	GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error)
	ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]models.Payment, error)
	HandleCallback(ctx context.Context, contentType string, body []byte, signature string) error
	CheckStatus(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error)
	ExpirePending(ctx context.Context, now time.Time, batchSize int) (int, error)
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type service struct {
	repo          Repository
	ordersRepo    orders.Repository
	orderMarker   orderMarker
	subscriptions subscriptionExtender
	users         userLookup
	gateway       gateway
	tx            txRunner
	dispatcher    dispatcher
	metrics       *metrics.PaymentMetrics
	logg          *logger.Logger
	cfg           config.IPaymuConfig
	now           func() time.Time
}

// ServiceParams bundles the dependencies for the payment service.
type ServiceParams struct {
	Repo          Repository
	OrdersRepo    orders.Repository
	OrderMarker   orderMarker
	Subscriptions subscriptionExtender
	Users         userLookup
	Gateway       gateway
	Tx            txRunner
	Dispatcher    dispatcher
	Metrics       *metrics.PaymentMetrics
	Logger        *logger.Logger
	IPaymuConfig  config.IPaymuConfig
}

// NewService builds a payment service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.OrderMarker == nil {
		return nil, fmt.Errorf("order marker required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription extender required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          params.Repo,
		ordersRepo:    params.OrdersRepo,
		orderMarker:   params.OrderMarker,
		subscriptions: params.Subscriptions,
		users:         params.Users,
		gateway:       params.Gateway,
		tx:            params.Tx,
		dispatcher:    params.Dispatcher,
		metrics:       params.Metrics,
		logg:          params.Logger,
		cfg:           params.IPaymuConfig,
		now:           time.Now,
	}, nil
}

func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	channel := strings.TrimSpace(input.Channel)
	if input.Method.RequiresChannel() && channel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("payment method %s requires a channel", input.Method))
	}
	if !input.Method.RequiresChannel() {
		channel = ""
	}

	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		order, err := ordersRepo.FindByIDForUser(ctx, input.OrderID, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s is not payable", order.Status))
		}

		if _, err := repo.FindPendingByOrderID(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has a pending payment")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check pending payments")
		}

		// Amount always comes from the order, never the request.
		expiredAt := s.now().UTC().Add(time.Duration(s.expiryHours()) * time.Hour)
		payment = &models.Payment{
			OrderID:   order.ID,
			Method:    input.Method,
			Amount:    order.TotalPrice,
			Status:    enums.PaymentStatusPending,
			ExpiredAt: &expiredAt,
		}
		if channel != "" {
			payment.Channel = &channel
		}
		if _, err := repo.Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		if !input.Method.UsesGateway() {
			return nil
		}

		user, err := s.users.FindByID(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}

		// A gateway refusal aborts the transaction so no dangling
		// pending payment row survives.
		gwPayment, err := s.gateway.CreateDirectPayment(ctx, ipaymu.DirectPaymentParams{
			Name:           user.FullName,
			Phone:          stringValue(user.Phone),
			Email:          user.Email,
			Amount:         order.TotalPrice,
			PaymentMethod:  input.Method.String(),
			PaymentChannel: channel,
			ReferenceID:    order.OrderNumber,
			Product:        order.ServiceName,
			Quantity:       order.Quantity,
			UnitPrice:      order.UnitPrice,
			ExpiryHours:    s.expiryHours(),
		})
		if err != nil {
			return err
		}

		applyGatewayInstrument(payment, input.Method, gwPayment)
		if err := repo.Save(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway instrument")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) GetPayment(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	payment, err := s.repo.FindByIDForUser(ctx, paymentID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.ordersRepo.FindByIDForUser(ctx, orderID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	payments, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return payments, nil
}

func (s *service) HandleCallback(ctx context.Context, contentType string, body []byte, signature string) error {
	if !s.gateway.VerifyCallback(body, signature) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature")
	}

	payload, err := ipaymu.ParseCallback(contentType, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse callback")
	}
	trxID := strings.TrimSpace(payload.TrxID)
	if trxID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "callback missing trx_id")
	}

	payment, err := s.repo.FindByTransactionID(ctx, trxID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown transactions are acknowledged so the gateway
			// stops retrying; nothing here to settle.
			s.logg.Warn(s.logg.WithField(ctx, "trx_id", trxID), "callback for unknown transaction")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup payment")
	}
	if payment.Status.IsTerminal() {
		return nil
	}

	switch payload.PaymentStatus() {
	case enums.PaymentStatusSuccess:
		return s.settleSuccess(ctx, payment)
	case enums.PaymentStatusPending:
		return nil
	default:
		reason := strings.TrimSpace(payload.Status)
		if reason == "" {
			reason = "gateway reported failure"
		}
		return s.settleFailed(ctx, payment, reason)
	}
}

func (s *service) CheckStatus(ctx context.Context, userID, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status.IsTerminal() {
		return payment, nil
	}
	if !payment.Method.UsesGateway() || payment.IpaymuTransactionID == nil {
		return payment, nil
	}

	if err := s.pollAndSettle(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) ExpirePending(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	pending, err := s.repo.ListPendingExpiredBefore(ctx, now, batchSize)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired payments")
	}

	var errs error
	expired := 0
	for i := range pending {
		payment := pending[i]
		if err := s.settleExpired(ctx, &payment); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		expired++
	}
	return expired, errs
}

func (s *service) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := s.now().UTC().Add(-olderThan)
	pending, err := s.repo.ListPendingPollable(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pollable payments")
	}

	var errs error
	reconciled := 0
	for i := range pending {
		payment := pending[i]
		if !payment.Method.UsesGateway() {
			continue
		}
		before := payment.Status
		if err := s.pollAndSettle(ctx, &payment); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if payment.Status != before {
			reconciled++
			s.metrics.IncReconciled()
		}
	}
	return reconciled, errs
}

func (s *service) pollAndSettle(ctx context.Context, payment *models.Payment) error {
	status, err := s.gateway.CheckTransaction(ctx, *payment.IpaymuTransactionID)
	if err != nil {
		return err
	}
	switch status.Status {
	case ipaymu.TransactionStatusSuccess:
		return s.settleSuccess(ctx, payment)
	case ipaymu.TransactionStatusPending:
		return nil
	case ipaymu.TransactionStatusExpired:
		return s.settleExpired(ctx, payment)
	default:
		reason := strings.TrimSpace(status.StatusDesc)
		if reason == "" {
			reason = fmt.Sprintf("gateway status %d", status.Status)
		}
		return s.settleFailed(ctx, payment, reason)
	}
}

func (s *service) settleSuccess(ctx context.Context, payment *models.Payment) error {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Re-read under a row lock so a callback and a concurrent
		// poll cannot both pass the transition check.
		current, err := repo.FindByIDLocked(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
		}
		if !current.Status.CanTransition(enums.PaymentStatusSuccess) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment in status %s cannot settle", current.Status))
		}
		paidAt := s.now().UTC()
		current.Status = enums.PaymentStatusSuccess
		current.PaidAt = &paidAt
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment")
		}
		*payment = *current

		order, err = s.orderMarker.MarkPaid(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		if order.SubscriptionID != nil {
			if err := s.subscriptions.ExtendForPaidOrder(ctx, tx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncSettled(enums.PaymentStatusSuccess.String())
	if s.dispatcher != nil {
		s.dispatcher.PaymentSettled(ctx, payment, order)
	}
	return nil
}

func (s *service) settleFailed(ctx context.Context, payment *models.Payment, reason string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDLocked(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
		}
		if !current.Status.CanTransition(enums.PaymentStatusFailed) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment in status %s cannot fail", current.Status))
		}
		current.Status = enums.PaymentStatusFailed
		current.FailureReason = &reason
		// Order stays pending so the buyer can open a fresh attempt.
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store failed payment")
		}
		*payment = *current
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncSettled(enums.PaymentStatusFailed.String())
	if s.dispatcher != nil {
		s.dispatcher.PaymentSettled(ctx, payment, nil)
	}
	return nil
}

func (s *service) settleExpired(ctx context.Context, payment *models.Payment) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDLocked(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
		}
		if !current.Status.CanTransition(enums.PaymentStatusExpired) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("payment in status %s cannot expire", current.Status))
		}
		current.Status = enums.PaymentStatusExpired
		if err := repo.Save(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store expired payment")
		}
		*payment = *current
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.IncExpired()
	if s.dispatcher != nil {
		s.dispatcher.PaymentSettled(ctx, payment, nil)
	}
	return nil
}

func (s *service) expiryHours() int {
	if s.cfg.ExpiryHour > 0 {
		return s.cfg.ExpiryHour
	}
	return 24
}

func applyGatewayInstrument(payment *models.Payment, method enums.PaymentMethod, gw *ipaymu.DirectPayment) {
	if gw.TransactionID != "" {
		trxID := gw.TransactionID.String()
		payment.IpaymuTransactionID = &trxID
	}
	if gw.SessionID != "" {
		payment.IpaymuSessionID = &gw.SessionID
	}
	if gw.PaymentURL != "" {
		payment.PaymentURL = &gw.PaymentURL
	}
	if gw.PaymentName != "" {
		payment.PaymentName = &gw.PaymentName
	}

	switch method {
	case enums.PaymentMethodVA:
		if gw.PaymentNo != "" {
			payment.VaNumber = &gw.PaymentNo
		}
	case enums.PaymentMethodQRIS:
		if gw.QRString != "" {
			payment.QRString = &gw.QRString
		}
		if gw.QRImage != "" {
			payment.QRImageURL = &gw.QRImage
		}
	case enums.PaymentMethodCStore:
		if gw.PaymentNo != "" {
			payment.PaymentCode = &gw.PaymentNo
		}
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
