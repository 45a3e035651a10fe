package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const defaultSubscriptionBatchSize = 500

type subscriptionExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// SubscriptionExpireJobParams configure the subscription expiry job.
type SubscriptionExpireJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionExpirer
	BatchSize     int
}

// NewSubscriptionExpireJob builds the cron job that deactivates
// subscriptions past their end date.
func NewSubscriptionExpireJob(params SubscriptionExpireJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSubscriptionBatchSize
	}
	return &subscriptionExpireJob{
		logg:          params.Logger,
		subscriptions: params.Subscriptions,
		batchSize:     batchSize,
		now:           time.Now,
	}, nil
}

type subscriptionExpireJob struct {
	logg          *logger.Logger
	subscriptions subscriptionExpirer
	batchSize     int
	now           func() time.Time
}

func (j *subscriptionExpireJob) Name() string { return "subscription-expire" }

func (j *subscriptionExpireJob) Run(ctx context.Context) error {
	count, err := j.subscriptions.ExpireLapsed(ctx, j.now().UTC(), j.batchSize)
	logCtx := j.logg.WithField(ctx, "count", count)
	if err != nil {
		return fmt.Errorf("expire lapsed subscriptions: %w", err)
	}
	j.logg.Info(logCtx, "subscription expiry loop complete")
	return nil
}
