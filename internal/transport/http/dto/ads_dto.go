package dto

import "time"

// AdAssetSlot is one slot value on a submitted draft: a kept URL, inline
// payload bytes for a new upload, or neither to clear the slot. Data is
// base64 on the wire.
type AdAssetSlot struct {
	URL         string `json:"url,omitempty"`
	Data        []byte `json:"data,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type SurveyAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type AdResponse struct {
	Token         string            `json:"token"`
	SiteID        int64             `json:"site_id"`
	SSID          string            `json:"ssid"`
	TemplateName  string            `json:"template_name"`
	AdType        string            `json:"ad_type"`
	Placement     string            `json:"placement"`
	TimeStart     string            `json:"time_start"`
	TimeEnd       string            `json:"time_end"`
	Status        string            `json:"status"`
	StatusCode    int               `json:"status_code"`
	Assets        map[string]string `json:"assets"`
	SurveyAnswers []SurveyAnswer    `json:"survey_answers,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type SubmitEditRequest struct {
	Confirmed     bool                   `json:"confirmed"`
	SSID          string                 `json:"ssid"`
	TemplateName  string                 `json:"template_name"`
	AdType        string                 `json:"ad_type"`
	Placement     string                 `json:"placement"`
	TimeStart     string                 `json:"time_start"`
	TimeEnd       string                 `json:"time_end"`
	Assets        map[string]AdAssetSlot `json:"assets"`
	SurveyAnswers []SurveyAnswer         `json:"survey_answers,omitempty"`
}

type ChangeStatusRequest struct {
	Target string `json:"target"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}
