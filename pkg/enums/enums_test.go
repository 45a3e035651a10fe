package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{name: "pending to paid", from: OrderStatusPending, to: OrderStatusPaid, allowed: true},
		{name: "pending to cancelled", from: OrderStatusPending, to: OrderStatusCancelled, allowed: true},
		{name: "paid to processing", from: OrderStatusPaid, to: OrderStatusProcessing, allowed: true},
		{name: "processing to completed", from: OrderStatusProcessing, to: OrderStatusCompleted, allowed: true},
		{name: "paid back to pending", from: OrderStatusPaid, to: OrderStatusPending, allowed: false},
		{name: "completed reopened", from: OrderStatusCompleted, to: OrderStatusProcessing, allowed: false},
		{name: "cancelled to paid", from: OrderStatusCancelled, to: OrderStatusPaid, allowed: false},
		{name: "paid to cancelled", from: OrderStatusPaid, to: OrderStatusCancelled, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
}

func TestPaymentStatusSinks(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired}
	for _, from := range terminal {
		assert.True(t, from.IsTerminal(), from.String())
		for _, to := range validPaymentStatuses {
			assert.False(t, from.CanTransition(to), "%s should not move to %s", from, to)
		}
	}

	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusSuccess))
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusFailed))
	assert.True(t, PaymentStatusPending.CanTransition(PaymentStatusExpired))
	assert.False(t, PaymentStatusPending.CanTransition(PaymentStatusPending))
}

func TestPaymentMethodChannels(t *testing.T) {
	assert.True(t, PaymentMethodVA.RequiresChannel())
	assert.True(t, PaymentMethodCStore.RequiresChannel())
	assert.False(t, PaymentMethodQRIS.RequiresChannel())
	assert.False(t, PaymentMethodCOD.RequiresChannel())

	assert.True(t, PaymentMethodQRIS.UsesGateway())
	assert.False(t, PaymentMethodCOD.UsesGateway())
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParseOrderStatus("shipped")
	require.Error(t, err)

	_, err = ParsePaymentStatus("settled")
	require.Error(t, err)

	_, err = ParsePaymentMethod("ach")
	require.Error(t, err)

	_, err = ParseSubscriptionStatus("past_due")
	require.Error(t, err)

	_, err = ParsePackageType("weekly")
	require.Error(t, err)
}

func TestParseRoundTrip(t *testing.T) {
	method, err := ParsePaymentMethod("qris")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodQRIS, method)

	pkg, err := ParsePackageType("yearly")
	require.NoError(t, err)
	assert.Equal(t, PackageTypeYearly, pkg)

	status, err := ParseOrderStatus("processing")
	require.NoError(t, err)
	assert.True(t, status.IsValid())
}
