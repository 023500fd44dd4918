package ads

import (
	"strings"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
)

// IsDisruptive reports whether persisting draft over persisted must pause for
// operator confirmation. A pending-approval record is freely editable; a live
// record (active or inactive) is disruptive to change whenever any persisted
// field differs by value. New binary payloads staged on a slot do not count:
// a slot is compared by its stored URL, so re-uploading artwork without
// touching the record's fields goes through silently.
func IsDisruptive(persisted Advertisement, draft Draft) bool {
	if persisted.Status == enums.AdStatusPendingApproval {
		return false
	}
	return !fieldsEqual(persisted, draft)
}

func fieldsEqual(persisted Advertisement, draft Draft) bool {
	if persisted.SSID != draft.SSID ||
		persisted.TemplateName != draft.TemplateName ||
		persisted.AdType != draft.AdType ||
		persisted.Placement != draft.Placement ||
		persisted.TimeStart != draft.TimeStart ||
		persisted.TimeEnd != draft.TimeEnd {
		return false
	}

	for _, slot := range enums.AssetSlots() {
		if slotURL(persisted.Assets[slot]) != slotURL(draft.Assets[slot].URL) {
			return false
		}
	}

	if len(persisted.SurveyAnswers) != len(draft.SurveyAnswers) {
		return false
	}
	for i, answer := range persisted.SurveyAnswers {
		if answer != draft.SurveyAnswers[i] {
			return false
		}
	}

	return true
}

func slotURL(value string) string {
	return strings.TrimSpace(value)
}
