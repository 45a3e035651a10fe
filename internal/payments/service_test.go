package payments

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/internal/orders"
	"github.com/neointegra/neointegra-backend/pkg/config"
	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/ipaymu"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

func TestCreatePaymentVirtualAccount(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 750000)

	payment, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodVA,
		Channel: "bca",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if payment.Amount != 750000 {
		t.Fatalf("amount must come from the order, got %d", payment.Amount)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}
	if payment.IpaymuTransactionID == nil || *payment.IpaymuTransactionID != "118160" {
		t.Fatalf("expected gateway transaction id recorded")
	}
	if payment.VaNumber == nil || *payment.VaNumber != "1311179000899001" {
		t.Fatalf("expected va number from gateway")
	}
	if payment.ExpiredAt == nil {
		t.Fatal("expected expiry window set")
	}
	if env.gateway.lastParams.ReferenceID != order.OrderNumber {
		t.Fatalf("gateway reference must be the order number, got %q", env.gateway.lastParams.ReferenceID)
	}
	if env.gateway.lastParams.Amount != 750000 {
		t.Fatalf("gateway must be charged the order total, got %d", env.gateway.lastParams.Amount)
	}
	if env.gateway.lastParams.Product != "Website Development" {
		t.Fatalf("gateway line item must carry the service name, got %q", env.gateway.lastParams.Product)
	}
	if env.gateway.lastParams.Quantity != 1 || env.gateway.lastParams.UnitPrice != 750000 {
		t.Fatalf("gateway line item must reconcile to the amount, got %d x %d",
			env.gateway.lastParams.Quantity, env.gateway.lastParams.UnitPrice)
	}
}

func TestCreatePaymentQRIS(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.payment = &ipaymu.DirectPayment{
		TransactionID: "118161",
		Via:           "qris",
		QRString:      "000201010212...",
		QRImage:       "https://sandbox.ipaymu.com/qr/118161.png",
	}
	order := env.seedOrder(enums.OrderStatusPending, 250000)

	payment, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodQRIS,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if payment.QRString == nil || payment.QRImageURL == nil {
		t.Fatal("expected qr fields populated")
	}
	if payment.Channel != nil {
		t.Fatal("qris carries no channel")
	}
}

func TestCreatePaymentCODSkipsGateway(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)

	payment, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if env.gateway.createCalls != 0 {
		t.Fatalf("cod must not call the gateway, got %d calls", env.gateway.createCalls)
	}
	if payment.IpaymuTransactionID != nil {
		t.Fatal("cod has no gateway transaction")
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)

	_, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  "wire",
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodVA,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreatePaymentForeignOrderHidden(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)

	_, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  uuid.New(),
		OrderID: order.ID,
		Method:  enums.PaymentMethodQRIS,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreatePaymentOrderNotPayable(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPaid, 500000)

	_, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodQRIS,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreatePaymentDuplicatePendingRejected(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)

	if _, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodQRIS,
	}); err != nil {
		t.Fatalf("first payment: %v", err)
	}

	_, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodQRIS,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreatePaymentGatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.createErr = pkgerrors.New(pkgerrors.CodeGateway, "gateway status 400: amount below minimum")
	order := env.seedOrder(enums.OrderStatusPending, 500000)

	_, err := env.svc.CreatePayment(context.Background(), CreatePaymentInput{
		UserID:  order.UserID,
		OrderID: order.ID,
		Method:  enums.PaymentMethodVA,
		Channel: "bca",
	})
	assertCode(t, err, pkgerrors.CodeGateway)

	if len(env.repo.payments) != 0 {
		t.Fatalf("gateway failure must leave no payment row, found %d", len(env.repo.payments))
	}
}

func TestHandleCallbackRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.verifyOK = false

	err := env.svc.HandleCallback(context.Background(), "application/json", []byte(`{"trx_id":"118160","status_code":"1"}`), "bad")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestHandleCallbackSuccessSettlesOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")

	err := env.svc.HandleCallback(context.Background(), "application/json",
		[]byte(`{"trx_id":"118160","status":"berhasil","status_code":"1"}`), "sig")
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}

	if payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Fatal("expected paid_at set")
	}
	if env.marker.paid[order.ID] != 1 {
		t.Fatalf("expected order marked paid once, got %d", env.marker.paid[order.ID])
	}
	if env.extender.calls != 0 {
		t.Fatalf("plain order must not touch subscriptions, got %d", env.extender.calls)
	}
	if env.dispatcher.settled != 1 {
		t.Fatalf("expected settlement notification, got %d", env.dispatcher.settled)
	}
}

func TestHandleCallbackRenewalExtendsSubscription(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	subID := uuid.New()
	order.SubscriptionID = &subID
	env.seedPendingPayment(order, "118160")

	err := env.svc.HandleCallback(context.Background(), "application/json",
		[]byte(`{"trx_id":"118160","status_code":"1"}`), "sig")
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if env.extender.calls != 1 {
		t.Fatalf("expected subscription extension, got %d", env.extender.calls)
	}
}

func TestHandleCallbackDuplicateIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	env.seedPendingPayment(order, "118160")

	body := []byte(`{"trx_id":"118160","status_code":"1"}`)
	if err := env.svc.HandleCallback(context.Background(), "application/json", body, "sig"); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if err := env.svc.HandleCallback(context.Background(), "application/json", body, "sig"); err != nil {
		t.Fatalf("duplicate callback must ack: %v", err)
	}
	if env.marker.paid[order.ID] != 1 {
		t.Fatalf("duplicate callback must not re-mark order, got %d", env.marker.paid[order.ID])
	}
}

func TestHandleCallbackUnknownTransactionAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.HandleCallback(context.Background(), "application/json",
		[]byte(`{"trx_id":"999999","status_code":"1"}`), "sig")
	if err != nil {
		t.Fatalf("unknown transaction must ack: %v", err)
	}
}

func TestHandleCallbackFailureKeepsOrderPending(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")

	err := env.svc.HandleCallback(context.Background(), "application/json",
		[]byte(`{"trx_id":"118160","status":"gagal","status_code":"-1"}`), "sig")
	if err != nil {
		t.Fatalf("handle callback: %v", err)
	}
	if payment.Status != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", payment.Status)
	}
	if payment.FailureReason == nil || *payment.FailureReason != "gagal" {
		t.Fatalf("expected failure reason recorded")
	}
	if env.marker.paid[order.ID] != 0 {
		t.Fatal("failed payment must not mark order paid")
	}
}

func TestSettleRejectsStaleReader(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")
	svc := env.svc.(*service)

	// Two settlement attempts load the payment while it is still
	// pending, as a webhook and the expiry cron would.
	first, err := env.repo.FindByTransactionID(context.Background(), "118160")
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}
	second, err := env.repo.FindByTransactionID(context.Background(), "118160")
	if err != nil {
		t.Fatalf("load payment: %v", err)
	}

	if err := svc.settleSuccess(context.Background(), first); err != nil {
		t.Fatalf("settle success: %v", err)
	}
	if env.repo.lockedReads == 0 {
		t.Fatal("settlement must re-read the payment under lock")
	}

	err = svc.settleExpired(context.Background(), second)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	if payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("terminal state overwritten, got %s", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Fatal("settled payment must keep paid_at")
	}
	if env.marker.paid[order.ID] != 1 {
		t.Fatalf("expected order marked paid once, got %d", env.marker.paid[order.ID])
	}
}

func TestListByOrder(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	env.seedPendingPayment(order, "118160")

	payments, err := env.svc.ListByOrder(context.Background(), order.UserID, order.ID)
	if err != nil {
		t.Fatalf("list by order: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	if payments[0].OrderID != order.ID {
		t.Fatal("expected payments for the requested order")
	}
}

func TestListByOrderForeignOrderHidden(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	env.seedPendingPayment(order, "118160")

	_, err := env.svc.ListByOrder(context.Background(), uuid.New(), order.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCheckStatusPollsGateway(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")
	env.gateway.transaction = &ipaymu.TransactionStatus{TransactionID: "118160", Status: ipaymu.TransactionStatusSuccess}

	got, err := env.svc.CheckStatus(context.Background(), order.UserID, payment.ID)
	if err != nil {
		t.Fatalf("check status: %v", err)
	}
	if got.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success after poll, got %s", got.Status)
	}
	if env.marker.paid[order.ID] != 1 {
		t.Fatal("expected order settled via poll")
	}
}

func TestCheckStatusTerminalSkipsGateway(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPaid, 500000)
	payment := env.seedPendingPayment(order, "118160")
	payment.Status = enums.PaymentStatusSuccess

	if _, err := env.svc.CheckStatus(context.Background(), order.UserID, payment.ID); err != nil {
		t.Fatalf("check status: %v", err)
	}
	if env.gateway.checkCalls != 0 {
		t.Fatalf("terminal payment must not poll, got %d calls", env.gateway.checkCalls)
	}
}

func TestExpirePending(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")
	past := time.Now().UTC().Add(-time.Hour)
	payment.ExpiredAt = &past

	count, err := env.svc.ExpirePending(context.Background(), time.Now().UTC(), 100)
	if err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expiry, got %d", count)
	}
	if payment.Status != enums.PaymentStatusExpired {
		t.Fatalf("expected expired, got %s", payment.Status)
	}
}

func TestReconcilePending(t *testing.T) {
	env := newTestEnv(t)
	order := env.seedOrder(enums.OrderStatusPending, 500000)
	payment := env.seedPendingPayment(order, "118160")
	created := time.Now().UTC().Add(-time.Hour)
	payment.CreatedAt = created
	env.gateway.transaction = &ipaymu.TransactionStatus{TransactionID: "118160", Status: ipaymu.TransactionStatusSuccess}

	count, err := env.svc.ReconcilePending(context.Background(), 10*time.Minute, 100)
	if err != nil {
		t.Fatalf("reconcile pending: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reconciled, got %d", count)
	}
	if payment.Status != enums.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", payment.Status)
	}
}

type testEnv struct {
	svc        Service
	repo       *stubRepo
	ordersRepo *stubOrdersRepo
	marker     *stubMarker
	extender   *stubExtender
	gateway    *stubGateway
	dispatcher *stubPaymentDispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:       &stubRepo{payments: map[uuid.UUID]*models.Payment{}},
		ordersRepo: &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}},
		marker:     &stubMarker{paid: map[uuid.UUID]int{}},
		extender:   &stubExtender{},
		gateway: &stubGateway{
			verifyOK: true,
			payment: &ipaymu.DirectPayment{
				TransactionID: "118160",
				SessionID:     "b72eab-sess",
				Via:           "va",
				Channel:       "bca",
				PaymentNo:     "1311179000899001",
				PaymentName:   "NEOINTEGRA",
			},
		},
		dispatcher: &stubPaymentDispatcher{},
	}
	env.marker.orders = env.ordersRepo.orders

	svc, err := NewService(ServiceParams{
		Repo:          env.repo,
		OrdersRepo:    env.ordersRepo,
		OrderMarker:   env.marker,
		Subscriptions: env.extender,
		Users:         &stubUsers{},
		Gateway:       env.gateway,
		Tx:            &stubTxRunner{repo: env.repo},
		Dispatcher:    env.dispatcher,
		Logger:        logger.New(logger.Options{Output: io.Discard}),
		IPaymuConfig:  config.IPaymuConfig{ExpiryHour: 24},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) seedOrder(status enums.OrderStatus, total int64) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20240715-A1B2",
		UserID:      uuid.New(),
		ServiceName: "Website Development",
		Quantity:    1,
		UnitPrice:   total,
		TotalPrice:  total,
		Status:      status,
	}
	e.ordersRepo.orders[order.ID] = order
	return order
}

func (e *testEnv) seedPendingPayment(order *models.Order, trxID string) *models.Payment {
	payment := &models.Payment{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		Method:              enums.PaymentMethodVA,
		Amount:              order.TotalPrice,
		Status:              enums.PaymentStatusPending,
		IpaymuTransactionID: &trxID,
		CreatedAt:           time.Now().UTC(),
	}
	e.repo.payments[payment.ID] = payment
	e.repo.owners = append(e.repo.owners, paymentOwner{paymentID: payment.ID, userID: order.UserID})
	return payment
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

// stubTxRunner snapshots repository state and restores it when the
// callback fails, mimicking a rollback.
type stubTxRunner struct {
	repo *stubRepo
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	snapshot := make(map[uuid.UUID]*models.Payment, len(s.repo.payments))
	copies := make(map[uuid.UUID]models.Payment, len(s.repo.payments))
	for id, p := range s.repo.payments {
		snapshot[id] = p
		copies[id] = *p
	}
	if err := fn(nil); err != nil {
		s.repo.payments = make(map[uuid.UUID]*models.Payment, len(snapshot))
		for id, p := range snapshot {
			restored := copies[id]
			*p = restored
			s.repo.payments[id] = p
		}
		return err
	}
	return nil
}

type paymentOwner struct {
	paymentID uuid.UUID
	userID    uuid.UUID
}

type stubRepo struct {
	payments    map[uuid.UUID]*models.Payment
	owners      []paymentOwner
	lockedReads int
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New()
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubRepo) Save(ctx context.Context, payment *models.Payment) error {
	s.payments[payment.ID] = payment
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if payment, ok := s.payments[id]; ok {
		return payment, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// FindByIDLocked returns the live row; unlocked reads hand out
// detached copies the way a real query would.
func (s *stubRepo) FindByIDLocked(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	s.lockedReads++
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error) {
	for _, owner := range s.owners {
		if owner.paymentID == id && owner.userID == userID {
			return s.FindByID(ctx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByTransactionID(ctx context.Context, trxID string) (*models.Payment, error) {
	for _, payment := range s.payments {
		if payment.IpaymuTransactionID != nil && *payment.IpaymuTransactionID == trxID {
			snapshot := *payment
			return &snapshot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.OrderID == orderID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (s *stubRepo) FindPendingByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	for _, payment := range s.payments {
		if payment.OrderID == orderID && payment.Status == enums.PaymentStatusPending {
			return payment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListPendingExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.Status == enums.PaymentStatusPending && payment.ExpiredAt != nil && payment.ExpiredAt.Before(cutoff) {
			out = append(out, *payment)
		}
	}
	return out, nil
}

func (s *stubRepo) ListPendingPollable(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.Status == enums.PaymentStatusPending && payment.IpaymuTransactionID != nil && payment.CreatedAt.Before(createdBefore) {
			out = append(out, *payment)
		}
	}
	return out, nil
}

type stubOrdersRepo struct {
	orders map[uuid.UUID]*models.Order
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindByIDLocked(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrdersRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	for _, order := range s.orders {
		if order.OrderNumber == orderNumber && order.UserID == userID {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

type stubMarker struct {
	orders map[uuid.UUID]*models.Order
	paid   map[uuid.UUID]int
}

func (s *stubMarker) MarkPaid(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	s.paid[orderID]++
	order.Status = enums.OrderStatusPaid
	return order, nil
}

type stubExtender struct {
	calls int
	err   error
}

func (s *stubExtender) ExtendForPaidOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.calls++
	return nil
}

type stubUsers struct{}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{
		ID:       id,
		Email:    "finance@majujaya.co.id",
		FullName: "PT Maju Jaya",
	}, nil
}

type stubGateway struct {
	verifyOK    bool
	payment     *ipaymu.DirectPayment
	transaction *ipaymu.TransactionStatus
	createErr   error
	checkErr    error
	lastParams  ipaymu.DirectPaymentParams
	createCalls int
	checkCalls  int
}

func (s *stubGateway) CreateDirectPayment(ctx context.Context, params ipaymu.DirectPaymentParams) (*ipaymu.DirectPayment, error) {
	s.createCalls++
	s.lastParams = params
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.payment, nil
}

func (s *stubGateway) CheckTransaction(ctx context.Context, transactionID string) (*ipaymu.TransactionStatus, error) {
	s.checkCalls++
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	if s.transaction == nil {
		return nil, errors.New("no scripted transaction")
	}
	return s.transaction, nil
}

func (s *stubGateway) VerifyCallback(body []byte, signature string) bool {
	return s.verifyOK
}

type stubPaymentDispatcher struct {
	settled int
}

func (s *stubPaymentDispatcher) PaymentSettled(ctx context.Context, payment *models.Payment, order *models.Order) {
	s.settled++
}
