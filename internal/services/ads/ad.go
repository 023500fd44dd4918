package ads

import (
	"time"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
	"github.com/ivankudzin/adconsole/internal/services/assets"
)

// Advertisement is the persisted unit of moderation. Asset slots hold stored
// URLs only; pending binary payloads live exclusively on drafts and are
// resolved before anything reaches the repo.
type Advertisement struct {
	ID            int64
	SiteID        int64
	SSID          string
	TemplateName  string
	AdType        string
	Placement     string
	TimeStart     string
	TimeEnd       string
	Status        enums.AdStatus
	Assets        map[enums.AssetSlot]string
	SurveyAnswers []SurveyAnswer
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft is the in-memory edit of an advertisement's editable fields, owned by
// a single editing session until saved or discarded.
type Draft struct {
	SSID          string
	TemplateName  string
	AdType        string
	Placement     string
	TimeStart     string
	TimeEnd       string
	Assets        map[enums.AssetSlot]assets.SlotValue
	SurveyAnswers []SurveyAnswer
}

type SurveyAnswer struct {
	Question string
	Answer   string
}

// SaveFields is the fully resolved field set handed to persistence.
type SaveFields struct {
	SSID          string
	TemplateName  string
	AdType        string
	Placement     string
	TimeStart     string
	TimeEnd       string
	Assets        map[enums.AssetSlot]string
	SurveyAnswers []SurveyAnswer
}
