package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
	"github.com/ivankudzin/adconsole/internal/pkg/validate"
	adssvc "github.com/ivankudzin/adconsole/internal/services/ads"
	"github.com/ivankudzin/adconsole/internal/services/assets"
	authsvc "github.com/ivankudzin/adconsole/internal/services/auth"
	"github.com/ivankudzin/adconsole/internal/services/idcodec"
	"github.com/ivankudzin/adconsole/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/adconsole/internal/transport/http/errors"
)

const maxSubmitBodySize = 64 << 20 // room for inline asset payloads

type AdsHandler struct {
	service *adssvc.Service
	codec   *idcodec.Codec
}

func NewAdsHandler(service *adssvc.Service, codec *idcodec.Codec) *AdsHandler {
	return &AdsHandler{
		service: service,
		codec:   codec,
	}
}

func (h *AdsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil || h.codec == nil {
		writeInternal(w, "ADS_SERVICE_UNAVAILABLE", "ads service is unavailable")
		return
	}

	siteID, adID, ok := h.resolveRef(w, r)
	if !ok {
		return
	}

	ad, err := h.service.Get(r.Context(), siteID, adID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeAd(w, ad)
}

func (h *AdsHandler) SubmitEdit(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	siteID, adID, ok := h.resolveRef(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodySize)
	var req dto.SubmitEditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	draft, err := draftFromRequest(req)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		return
	}

	ad, err := h.service.SubmitEdit(r.Context(), identity.UserID, siteID, adID, draft, req.Confirmed)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeAd(w, ad)
}

func (h *AdsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	siteID, adID, ok := h.resolveRef(w, r)
	if !ok {
		return
	}

	ad, err := h.service.Approve(r.Context(), identity.UserID, siteID, adID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeAd(w, ad)
}

func (h *AdsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	siteID, adID, ok := h.resolveRef(w, r)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	target := enums.AdStatus(strings.ToLower(strings.TrimSpace(req.Target)))
	ad, err := h.service.ChangeStatus(r.Context(), identity.UserID, siteID, adID, target)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeAd(w, ad)
}

func (h *AdsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireWrite(w, r)
	if !ok {
		return
	}

	siteID, adID, ok := h.resolveRef(w, r)
	if !ok {
		return
	}

	soft := queryFlag(r, "soft", true)
	confirmed := queryFlag(r, "confirmed", false)

	if err := h.service.Delete(r.Context(), identity.UserID, siteID, adID, soft, confirmed); err != nil {
		h.handleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.DeleteResponse{OK: true})
}

// resolveRef accepts the {ref} path segment in either form: the current
// obfuscated token or a legacy raw numeric id. Anything that fits neither
// shape, or a token that fails to decode, is a not-found.
func (h *AdsHandler) resolveRef(w http.ResponseWriter, r *http.Request) (siteID, adID int64, ok bool) {
	siteID, err := strconv.ParseInt(chi.URLParam(r, "siteID"), 10, 64)
	if err != nil || siteID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid site id")
		return 0, 0, false
	}

	ref := chi.URLParam(r, "ref")
	if idcodec.IsObfuscated(ref) {
		adID, err = h.codec.Deobfuscate(ref)
		if err != nil {
			writeNotFound(w)
			return 0, 0, false
		}
		return siteID, adID, true
	}

	adID, err = strconv.ParseInt(ref, 10, 64)
	if err != nil || adID <= 0 {
		writeNotFound(w)
		return 0, 0, false
	}
	return siteID, adID, true
}

func (h *AdsHandler) requireWrite(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	if h.service == nil || h.codec == nil {
		writeInternal(w, "ADS_SERVICE_UNAVAILABLE", "ads service is unavailable")
		return authsvc.Identity{}, false
	}
	if !identity.CanWrite() {
		writeForbidden(w, "FORBIDDEN", "write capability required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

// writeAd always carries the canonical token so the client can rewrite a
// legacy raw-id address without navigating; the raw id never appears in the
// response.
func (h *AdsHandler) writeAd(w http.ResponseWriter, ad adssvc.Advertisement) {
	token, err := h.codec.Obfuscate(ad.ID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to derive ad token")
		return
	}

	assetURLs := make(map[string]string, len(ad.Assets))
	for slot, url := range ad.Assets {
		if url != "" {
			assetURLs[string(slot)] = url
		}
	}

	answers := make([]dto.SurveyAnswer, 0, len(ad.SurveyAnswers))
	for _, answer := range ad.SurveyAnswers {
		answers = append(answers, dto.SurveyAnswer{
			Question: answer.Question,
			Answer:   answer.Answer,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.AdResponse{
		Token:         token,
		SiteID:        ad.SiteID,
		SSID:          ad.SSID,
		TemplateName:  ad.TemplateName,
		AdType:        ad.AdType,
		Placement:     ad.Placement,
		TimeStart:     ad.TimeStart,
		TimeEnd:       ad.TimeEnd,
		Status:        string(ad.Status),
		StatusCode:    ad.Status.Code(),
		Assets:        assetURLs,
		SurveyAnswers: answers,
		CreatedAt:     ad.CreatedAt,
		UpdatedAt:     ad.UpdatedAt,
	})
}

func (h *AdsHandler) handleError(w http.ResponseWriter, err error) {
	var uploadErr *assets.UploadError
	switch {
	case errors.Is(err, adssvc.ErrAdNotFound):
		writeNotFound(w)
	case errors.Is(err, adssvc.ErrConfirmationRequired):
		httperrors.Write(w, http.StatusConflict, httperrors.ConfirmationError{
			Code:            "CONFIRMATION_REQUIRED",
			Message:         "this change affects a live advertisement and must be confirmed",
			ConfirmRequired: true,
		})
	case errors.Is(err, adssvc.ErrInvalidTransition):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "INVALID_TRANSITION",
			Message: "the requested status change is not allowed from the current status",
		})
	case errors.Is(err, adssvc.ErrOperationInFlight):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "OPERATION_IN_FLIGHT",
			Message: "another operation on this advertisement is still running",
		})
	case errors.As(err, &uploadErr):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "ASSET_UPLOAD_FAILED",
			Message: fmt.Sprintf("upload failed for asset slot %s", uploadErr.Slot),
		})
	case errors.Is(err, adssvc.ErrValidation), errors.Is(err, assets.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid advertisement request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "advertisement operation failed")
	}
}

func draftFromRequest(req dto.SubmitEditRequest) (adssvc.Draft, error) {
	if !validate.Required(req.TemplateName) {
		return adssvc.Draft{}, fmt.Errorf("template_name is required")
	}
	if !validate.Required(req.AdType) {
		return adssvc.Draft{}, fmt.Errorf("ad_type is required")
	}

	slots := make(map[enums.AssetSlot]assets.SlotValue, len(req.Assets))
	for name, value := range req.Assets {
		slot := enums.AssetSlot(name)
		if !slot.Valid() {
			return adssvc.Draft{}, fmt.Errorf("unknown asset slot %q", name)
		}
		slotValue := assets.SlotValue{URL: value.URL}
		if len(value.Data) > 0 {
			slotValue.Payload = &assets.Payload{
				Data:        value.Data,
				FileName:    value.FileName,
				ContentType: value.ContentType,
			}
		}
		slots[slot] = slotValue
	}

	answers := make([]adssvc.SurveyAnswer, 0, len(req.SurveyAnswers))
	for _, answer := range req.SurveyAnswers {
		answers = append(answers, adssvc.SurveyAnswer{
			Question: answer.Question,
			Answer:   answer.Answer,
		})
	}
	if len(answers) == 0 {
		answers = nil
	}

	return adssvc.Draft{
		SSID:          req.SSID,
		TemplateName:  req.TemplateName,
		AdType:        req.AdType,
		Placement:     req.Placement,
		TimeStart:     req.TimeStart,
		TimeEnd:       req.TimeEnd,
		Assets:        slots,
		SurveyAnswers: answers,
	}, nil
}

func queryFlag(r *http.Request, name string, fallback bool) bool {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
		Code:    "NOT_FOUND",
		Message: "advertisement not found",
	})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}
