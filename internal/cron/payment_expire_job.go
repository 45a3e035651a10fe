package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const defaultExpireBatchSize = 500

type paymentExpirer interface {
	ExpirePending(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// PaymentExpireJobParams configure the pending payment expiry job.
type PaymentExpireJobParams struct {
	Logger    *logger.Logger
	Payments  paymentExpirer
	BatchSize int
}

// NewPaymentExpireJob builds the cron job that expires pending payments
// past their gateway expiry window.
func NewPaymentExpireJob(params PaymentExpireJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpireBatchSize
	}
	return &paymentExpireJob{
		logg:      params.Logger,
		payments:  params.Payments,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type paymentExpireJob struct {
	logg      *logger.Logger
	payments  paymentExpirer
	batchSize int
	now       func() time.Time
}

func (j *paymentExpireJob) Name() string { return "payment-expire" }

func (j *paymentExpireJob) Run(ctx context.Context) error {
	count, err := j.payments.ExpirePending(ctx, j.now().UTC(), j.batchSize)
	logCtx := j.logg.WithField(ctx, "count", count)
	if err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	j.logg.Info(logCtx, "payment expiry loop complete")
	return nil
}
