package enums

import "fmt"

// PackageType selects the renewal cadence of a subscription.
type PackageType string

const (
	PackageTypeMonthly PackageType = "monthly"
	PackageTypeYearly  PackageType = "yearly"
	PackageTypeCustom  PackageType = "custom"
)

var validPackageTypes = []PackageType{
	PackageTypeMonthly,
	PackageTypeYearly,
	PackageTypeCustom,
}

// String implements fmt.Stringer.
func (p PackageType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PackageType.
func (p PackageType) IsValid() bool {
	for _, candidate := range validPackageTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePackageType converts raw input into a PackageType.
func ParsePackageType(value string) (PackageType, error) {
	for _, candidate := range validPackageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid package type %q", value)
}
