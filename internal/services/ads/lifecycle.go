package ads

import (
	"errors"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// approveTransition validates the single approve edge:
// pending_approval -> active.
func approveTransition(current enums.AdStatus) (enums.AdStatus, error) {
	if current != enums.AdStatusPendingApproval {
		return "", ErrInvalidTransition
	}
	return enums.AdStatusActive, nil
}

// toggleTransition validates an active<->inactive flip. Toggling to the
// current status is a legal no-op; toggling a pending-approval record or to
// a target outside {active, inactive} is rejected.
func toggleTransition(current, target enums.AdStatus) (next enums.AdStatus, noop bool, err error) {
	if target != enums.AdStatusActive && target != enums.AdStatusInactive {
		return "", false, ErrInvalidTransition
	}
	if current == enums.AdStatusPendingApproval {
		return "", false, ErrInvalidTransition
	}
	if current == target {
		return current, true, nil
	}
	return target, false, nil
}
