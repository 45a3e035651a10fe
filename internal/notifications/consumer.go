package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

type orderLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Consumer drains the events subscription and materializes in-app
// notification rows for the owning user.
type Consumer struct {
	repo         Repository
	orders       orderLookup
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds an events consumer.
func NewConsumer(repo Repository, orders orderLookup, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order lookup required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("events subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, orders: orders, subscription: subscription, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := c.process(ctx, msg.Data, msg.Attributes); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process returns an error only for retryable failures; malformed or
// unroutable events are logged and dropped.
func (c *Consumer) process(ctx context.Context, data []byte, attrs map[string]string) error {
	logCtx := c.logg.WithField(ctx, "event", attrs[typeAttribute])

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Error(logCtx, "decode event", err)
		return nil
	}
	if !event.Type.IsValid() {
		c.logg.Warn(logCtx, "unknown event type")
		return nil
	}

	userID, err := c.resolveUser(ctx, event)
	if err != nil {
		c.logg.Error(logCtx, "resolve event owner", err)
		return nil
	}

	title, message := compose(event)
	notification := &models.Notification{
		UserID:  userID,
		Type:    event.Type,
		Title:   title,
		Message: message,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "store notification", err)
		return err
	}
	c.logg.Info(c.logg.WithUserID(logCtx, userID.String()), "notification stored")
	return nil
}

func (c *Consumer) resolveUser(ctx context.Context, event Event) (uuid.UUID, error) {
	if event.UserID != uuid.Nil {
		return event.UserID, nil
	}
	if event.OrderID == nil {
		return uuid.Nil, fmt.Errorf("event carries no user or order id")
	}
	order, err := c.orders.FindByID(ctx, *event.OrderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load order %s: %w", event.OrderID, err)
	}
	return order.UserID, nil
}

func compose(event Event) (string, string) {
	switch event.Type {
	case enums.NotificationTypeOrderCreated:
		return "Order created",
			fmt.Sprintf("Order %s was created for Rp%d.", event.OrderNumber, event.Amount)
	case enums.NotificationTypePaymentSuccess:
		return "Payment received",
			fmt.Sprintf("Your payment of Rp%d was received.", event.Amount)
	case enums.NotificationTypePaymentFailed:
		return "Payment failed",
			fmt.Sprintf("Your payment of Rp%d failed. You can retry from the order page.", event.Amount)
	case enums.NotificationTypePaymentExpired:
		return "Payment expired",
			fmt.Sprintf("Your payment of Rp%d expired before completion.", event.Amount)
	case enums.NotificationTypeSubscriptionRenewed:
		title := "Subscription renewed"
		if event.EndDate != nil {
			return title, fmt.Sprintf("%s is now active until %s.", event.PackageName, event.EndDate.Format("2 January 2006"))
		}
		return title, fmt.Sprintf("%s has been renewed.", event.PackageName)
	case enums.NotificationTypeSubscriptionExpired:
		return "Subscription expired",
			fmt.Sprintf("%s has expired. Renew to restore access.", event.PackageName)
	default:
		return string(event.Type), ""
	}
}
