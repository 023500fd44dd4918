package enums

import "fmt"

type AdStatus string

const (
	AdStatusActive          AdStatus = "active"
	AdStatusInactive        AdStatus = "inactive"
	AdStatusPendingApproval AdStatus = "pending_approval"
)

// Wire codes used by the persistence layer. These are fixed and must not be
// renumbered: downstream captive-portal readers match on the raw integers.
const (
	AdStatusCodeActive          = 1
	AdStatusCodeInactive        = 2
	AdStatusCodePendingApproval = 9
)

func (s AdStatus) Code() int {
	switch s {
	case AdStatusActive:
		return AdStatusCodeActive
	case AdStatusInactive:
		return AdStatusCodeInactive
	case AdStatusPendingApproval:
		return AdStatusCodePendingApproval
	}
	return 0
}

func (s AdStatus) Valid() bool {
	switch s {
	case AdStatusActive, AdStatusInactive, AdStatusPendingApproval:
		return true
	}
	return false
}

func AdStatusFromCode(code int) (AdStatus, error) {
	switch code {
	case AdStatusCodeActive:
		return AdStatusActive, nil
	case AdStatusCodeInactive:
		return AdStatusInactive, nil
	case AdStatusCodePendingApproval:
		return AdStatusPendingApproval, nil
	}
	return "", fmt.Errorf("unknown ad status code %d", code)
}
