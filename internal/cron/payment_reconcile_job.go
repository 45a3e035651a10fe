package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const (
	defaultReconcileAfter = 10 * time.Minute
	defaultReconcileLimit = 250
)

type paymentReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// PaymentReconcileJobParams configure the gateway reconcile job.
type PaymentReconcileJobParams struct {
	Logger    *logger.Logger
	Payments  paymentReconciler
	OlderThan time.Duration
	Limit     int
}

// NewPaymentReconcileJob builds the cron job that polls the gateway for
// pending payments whose callback never arrived.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	olderThan := params.OlderThan
	if olderThan <= 0 {
		olderThan = defaultReconcileAfter
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &paymentReconcileJob{
		logg:      params.Logger,
		payments:  params.Payments,
		olderThan: olderThan,
		limit:     limit,
	}, nil
}

type paymentReconcileJob struct {
	logg      *logger.Logger
	payments  paymentReconciler
	olderThan time.Duration
	limit     int
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	count, err := j.payments.ReconcilePending(ctx, j.olderThan, j.limit)
	logCtx := j.logg.WithField(ctx, "count", count)
	if err != nil {
		return fmt.Errorf("reconcile pending payments: %w", err)
	}
	j.logg.Info(logCtx, "payment reconcile loop complete")
	return nil
}
