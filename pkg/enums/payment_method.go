package enums

import "fmt"

// PaymentMethod is the settlement rail requested from the gateway.
type PaymentMethod string

const (
	PaymentMethodVA     PaymentMethod = "va"
	PaymentMethodQRIS   PaymentMethod = "qris"
	PaymentMethodCStore PaymentMethod = "cstore"
	PaymentMethodCOD    PaymentMethod = "cod"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodVA,
	PaymentMethodQRIS,
	PaymentMethodCStore,
	PaymentMethodCOD,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresChannel reports whether the method needs a bank or outlet
// channel alongside it. Virtual accounts and convenience stores do,
// QRIS and COD do not.
func (m PaymentMethod) RequiresChannel() bool {
	return m == PaymentMethodVA || m == PaymentMethodCStore
}

// UsesGateway reports whether the method settles through iPaymu. COD
// settles out of band and is never polled for reconciliation.
func (m PaymentMethod) UsesGateway() bool {
	return m != PaymentMethodCOD
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
