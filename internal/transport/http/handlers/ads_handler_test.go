package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
	adssvc "github.com/ivankudzin/adconsole/internal/services/ads"
	"github.com/ivankudzin/adconsole/internal/services/assets"
	authsvc "github.com/ivankudzin/adconsole/internal/services/auth"
	"github.com/ivankudzin/adconsole/internal/services/idcodec"
	"github.com/ivankudzin/adconsole/internal/transport/http/dto"
)

type memoryAdStore struct {
	ads map[int64]adssvc.Advertisement
}

func (s *memoryAdStore) Get(_ context.Context, siteID, adID int64) (adssvc.Advertisement, error) {
	ad, ok := s.ads[adID]
	if !ok || ad.SiteID != siteID {
		return adssvc.Advertisement{}, adssvc.ErrAdNotFound
	}
	return ad, nil
}

func (s *memoryAdStore) Save(_ context.Context, adID int64, fields adssvc.SaveFields) error {
	ad := s.ads[adID]
	ad.SSID = fields.SSID
	ad.TemplateName = fields.TemplateName
	ad.AdType = fields.AdType
	ad.Placement = fields.Placement
	ad.TimeStart = fields.TimeStart
	ad.TimeEnd = fields.TimeEnd
	ad.Assets = fields.Assets
	ad.SurveyAnswers = fields.SurveyAnswers
	s.ads[adID] = ad
	return nil
}

func (s *memoryAdStore) SetStatus(_ context.Context, adID int64, statusCode int) error {
	status, err := enums.AdStatusFromCode(statusCode)
	if err != nil {
		return err
	}
	ad := s.ads[adID]
	ad.Status = status
	s.ads[adID] = ad
	return nil
}

func (s *memoryAdStore) Approve(_ context.Context, adID int64) error {
	ad := s.ads[adID]
	ad.Status = enums.AdStatusActive
	s.ads[adID] = ad
	return nil
}

func (s *memoryAdStore) SoftDelete(_ context.Context, adID int64) error {
	delete(s.ads, adID)
	return nil
}

func (s *memoryAdStore) Delete(_ context.Context, adID int64) error {
	delete(s.ads, adID)
	return nil
}

type passthroughResolver struct{}

func (passthroughResolver) ResolveDraft(_ context.Context, ownerID int64, slots map[enums.AssetSlot]assets.SlotValue) (map[enums.AssetSlot]string, error) {
	resolved := make(map[enums.AssetSlot]string, len(slots))
	for slot, value := range slots {
		if value.Pending() {
			resolved[slot] = fmt.Sprintf("https://cdn.test/ads/%d/%s/uploaded.png", ownerID, slot)
			continue
		}
		resolved[slot] = value.URL
	}
	return resolved, nil
}

func newTestHandler(t *testing.T, records ...adssvc.Advertisement) (*AdsHandler, *memoryAdStore, *idcodec.Codec) {
	t.Helper()

	store := &memoryAdStore{ads: make(map[int64]adssvc.Advertisement)}
	for _, ad := range records {
		store.ads[ad.ID] = ad
	}

	codec, err := idcodec.New("handler-test-key")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	service := adssvc.NewService(store, passthroughResolver{}, nil, nil)
	return NewAdsHandler(service, codec), store, codec
}

func testAd() adssvc.Advertisement {
	return adssvc.Advertisement{
		ID:           42,
		SiteID:       3,
		SSID:         "guest-wifi",
		TemplateName: "Summer Sale",
		AdType:       "banner",
		Placement:    "splash",
		TimeStart:    "08:00",
		TimeEnd:      "22:00",
		Status:       enums.AdStatusActive,
		Assets: map[enums.AssetSlot]string{
			enums.AssetSlotLogo: "https://cdn.test/ads/42/logo/a.png",
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func performAdRequest(h *AdsHandler, method, ref, path string, body []byte, identity *authsvc.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://console.test"+path, bytes.NewReader(body))
	if identity != nil {
		req = req.WithContext(authsvc.WithIdentity(req.Context(), *identity))
	}

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("siteID", "3")
	routeCtx.URLParams.Add("ref", ref)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	switch {
	case method == http.MethodGet:
		h.Get(rec, req)
	case method == http.MethodPut:
		h.SubmitEdit(rec, req)
	case method == http.MethodDelete:
		h.Delete(rec, req)
	}
	return rec
}

func moderator() *authsvc.Identity {
	return &authsvc.Identity{UserID: 9, Role: authsvc.RoleModerator}
}

func TestGetAcceptsRawIDAndReturnsCanonicalToken(t *testing.T) {
	h, _, codec := newTestHandler(t, testAd())

	rec := performAdRequest(h, http.MethodGet, "42", "/sites/3/ads/42", nil, moderator())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp dto.AdResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// the raw id never appears; the canonical token decodes back to it
	if resp.Token == "42" {
		t.Fatalf("response leaked the raw id")
	}
	id, err := codec.Deobfuscate(resp.Token)
	if err != nil || id != 42 {
		t.Fatalf("canonical token does not decode to the record id: id=%d err=%v", id, err)
	}
	if resp.StatusCode != 1 {
		t.Fatalf("unexpected wire status code: %d", resp.StatusCode)
	}
}

func TestGetAcceptsObfuscatedToken(t *testing.T) {
	h, _, codec := newTestHandler(t, testAd())

	token, err := codec.Obfuscate(42)
	if err != nil {
		t.Fatalf("obfuscate: %v", err)
	}

	rec := performAdRequest(h, http.MethodGet, token, "/sites/3/ads/"+token, nil, moderator())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	var resp dto.AdResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TemplateName != "Summer Sale" {
		t.Fatalf("unexpected record: %+v", resp)
	}
}

func TestGetInvalidTokenIsNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t, testAd())

	// right shape, wrong key material
	rec := performAdRequest(h, http.MethodGet, "AAAABBBBCCCCDDDa", "/sites/3/ads/AAAABBBBCCCCDDDa", nil, moderator())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign token, got %d", rec.Code)
	}
}

func TestSubmitEditDisruptiveConflict(t *testing.T) {
	h, store, _ := newTestHandler(t, testAd())

	body, _ := json.Marshal(dto.SubmitEditRequest{
		Confirmed:    false,
		SSID:         "guest-wifi",
		TemplateName: "Winter Sale",
		AdType:       "banner",
		Placement:    "splash",
		TimeStart:    "08:00",
		TimeEnd:      "22:00",
		Assets: map[string]dto.AdAssetSlot{
			"logo": {URL: "https://cdn.test/ads/42/logo/a.png"},
		},
	})

	rec := performAdRequest(h, http.MethodPut, "42", "/sites/3/ads/42", body, moderator())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Code            string `json:"code"`
		ConfirmRequired bool   `json:"confirm_required"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "CONFIRMATION_REQUIRED" || !payload.ConfirmRequired {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if store.ads[42].TemplateName != "Summer Sale" {
		t.Fatalf("record mutated without confirmation")
	}
}

func TestSubmitEditConfirmedPersists(t *testing.T) {
	h, store, _ := newTestHandler(t, testAd())

	body, _ := json.Marshal(dto.SubmitEditRequest{
		Confirmed:    true,
		SSID:         "guest-wifi",
		TemplateName: "Winter Sale",
		AdType:       "banner",
		Placement:    "splash",
		TimeStart:    "08:00",
		TimeEnd:      "22:00",
		Assets: map[string]dto.AdAssetSlot{
			"logo": {URL: "https://cdn.test/ads/42/logo/a.png"},
		},
	})

	rec := performAdRequest(h, http.MethodPut, "42", "/sites/3/ads/42", body, moderator())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if store.ads[42].TemplateName != "Winter Sale" {
		t.Fatalf("confirmed edit not persisted: %q", store.ads[42].TemplateName)
	}
}

func TestSubmitEditRequiresWriteCapability(t *testing.T) {
	h, _, _ := newTestHandler(t, testAd())

	body, _ := json.Marshal(dto.SubmitEditRequest{Confirmed: true})

	viewer := &authsvc.Identity{UserID: 5, Role: authsvc.RoleViewer}
	rec := performAdRequest(h, http.MethodPut, "42", "/sites/3/ads/42", body, viewer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", rec.Code)
	}

	rec = performAdRequest(h, http.MethodPut, "42", "/sites/3/ads/42", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestDeleteRequiresConfirmationFlag(t *testing.T) {
	h, store, _ := newTestHandler(t, testAd())

	rec := performAdRequest(h, http.MethodDelete, "42", "/sites/3/ads/42?soft=true", nil, moderator())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without confirmation, got %d", rec.Code)
	}
	if _, ok := store.ads[42]; !ok {
		t.Fatalf("record deleted without confirmation")
	}

	rec = performAdRequest(h, http.MethodDelete, "42", "/sites/3/ads/42?soft=true&confirmed=true", nil, moderator())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	if _, ok := store.ads[42]; ok {
		t.Fatalf("record not deleted after confirmation")
	}
}

func TestGetUnknownSiteIsNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t, testAd())

	req := httptest.NewRequest(http.MethodGet, "http://console.test/sites/8/ads/42", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), *moderator()))

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("siteID", strconv.Itoa(8))
	routeCtx.URLParams.Add("ref", "42")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for wrong site, got %d", rec.Code)
	}
}
