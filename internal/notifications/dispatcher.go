package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const publishTimeout = 5 * time.Second

type publisher interface {
	PublishEvent(ctx context.Context, data []byte, attrs map[string]string) error
}

// Dispatcher publishes domain events to the events topic. Publishing
// is fire-and-forget: a slow or unavailable broker never blocks or
// fails the request that triggered the event.
type Dispatcher struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
	// synchronous flips the goroutine off so tests can observe publishes.
	synchronous bool
}

// NewDispatcher builds an event dispatcher.
func NewDispatcher(pub publisher, logg *logger.Logger) (*Dispatcher, error) {
	if pub == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{pub: pub, logg: logg, timeout: publishTimeout}, nil
}

// OrderCreated announces a new pending order.
func (d *Dispatcher) OrderCreated(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	orderID := order.ID
	d.publish(ctx, Event{
		Type:           enums.NotificationTypeOrderCreated,
		UserID:         order.UserID,
		OrderID:        &orderID,
		OrderNumber:    order.OrderNumber,
		SubscriptionID: order.SubscriptionID,
		Amount:         order.TotalPrice,
	})
}

// PaymentSettled announces a payment reaching a terminal state. The
// order is optional; consumers resolve the owner through the order id
// when it is absent.
func (d *Dispatcher) PaymentSettled(ctx context.Context, payment *models.Payment, order *models.Order) {
	if payment == nil {
		return
	}
	var typ enums.NotificationType
	switch payment.Status {
	case enums.PaymentStatusSuccess:
		typ = enums.NotificationTypePaymentSuccess
	case enums.PaymentStatusExpired:
		typ = enums.NotificationTypePaymentExpired
	case enums.PaymentStatusFailed:
		typ = enums.NotificationTypePaymentFailed
	default:
		return
	}

	paymentID := payment.ID
	orderID := payment.OrderID
	event := Event{
		Type:      typ,
		OrderID:   &orderID,
		PaymentID: &paymentID,
		Amount:    payment.Amount,
	}
	if order != nil {
		event.UserID = order.UserID
		event.OrderNumber = order.OrderNumber
	}
	d.publish(ctx, event)
}

// SubscriptionRenewed announces a settled renewal with the new end date.
func (d *Dispatcher) SubscriptionRenewed(ctx context.Context, sub *models.Subscription) {
	d.publishSubscription(ctx, enums.NotificationTypeSubscriptionRenewed, sub)
}

// SubscriptionExpired announces a lapsed subscription.
func (d *Dispatcher) SubscriptionExpired(ctx context.Context, sub *models.Subscription) {
	d.publishSubscription(ctx, enums.NotificationTypeSubscriptionExpired, sub)
}

func (d *Dispatcher) publishSubscription(ctx context.Context, typ enums.NotificationType, sub *models.Subscription) {
	if sub == nil {
		return
	}
	subID := sub.ID
	endDate := sub.EndDate
	d.publish(ctx, Event{
		Type:           typ,
		UserID:         sub.UserID,
		SubscriptionID: &subID,
		PackageName:    sub.PackageName,
		EndDate:        &endDate,
	})
}

func (d *Dispatcher) publish(ctx context.Context, event Event) {
	event.OccurredAt = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		d.logg.Error(ctx, "marshal event", err)
		return
	}
	attrs := map[string]string{typeAttribute: event.Type.String()}

	detached := context.WithoutCancel(ctx)
	send := func() {
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()
		if err := d.pub.PublishEvent(sendCtx, data, attrs); err != nil {
			d.logg.Error(d.logg.WithField(sendCtx, "event", event.Type.String()), "publish event", err)
		}
	}
	if d.synchronous {
		send()
		return
	}
	go send()
}
