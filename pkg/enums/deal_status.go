package enums

import "fmt"

// DealStatus tracks moderation progress of a submitted deal.
type DealStatus string

const (
	DealStatusPending  DealStatus = "pending"
	DealStatusApproved DealStatus = "approved"
	DealStatusRejected DealStatus = "rejected"
)

var validDealStatuses = []DealStatus{
	DealStatusPending,
	DealStatusApproved,
	DealStatusRejected,
}

// String implements fmt.Stringer.
func (v DealStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DealStatus.
func (v DealStatus) IsValid() bool {
	for _, candidate := range validDealStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDealStatus converts raw input into a DealStatus.
func ParseDealStatus(value string) (DealStatus, error) {
	for _, candidate := range validDealStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal status %q", value)
}
