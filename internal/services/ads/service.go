package ads

import (
	"context"
	"errors"
	"fmt"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
	"github.com/ivankudzin/adconsole/internal/services/assets"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrAdNotFound           = errors.New("advertisement not found")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrOperationInFlight    = errors.New("operation already in flight")
)

type Store interface {
	Get(ctx context.Context, siteID, adID int64) (Advertisement, error)
	Save(ctx context.Context, adID int64, fields SaveFields) error
	SetStatus(ctx context.Context, adID int64, statusCode int) error
	Approve(ctx context.Context, adID int64) error
	SoftDelete(ctx context.Context, adID int64) error
	Delete(ctx context.Context, adID int64) error
}

type AssetResolver interface {
	ResolveDraft(ctx context.Context, ownerID int64, slots map[enums.AssetSlot]assets.SlotValue) (map[enums.AssetSlot]string, error)
}

// OpLocker serializes gateway operations per advertisement. A second caller
// for the same record is turned away until the holder releases.
type OpLocker interface {
	Acquire(ctx context.Context, adID int64) (token string, ok bool, err error)
	Release(ctx context.Context, adID int64, token string) error
}

type AuditLog interface {
	Record(ctx context.Context, adID, actorID int64, action string, meta map[string]any) error
}

// Service is the moderation gateway. Every mutating operation runs under the
// record's operation lock, short-circuits on the first failing step and only
// reports state read back from the store after a successful write.
type Service struct {
	store    Store
	resolver AssetResolver
	locks    OpLocker
	audit    AuditLog
}

func NewService(store Store, resolver AssetResolver, locks OpLocker, audit AuditLog) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		locks:    locks,
		audit:    audit,
	}
}

func (s *Service) Get(ctx context.Context, siteID, adID int64) (Advertisement, error) {
	if siteID <= 0 || adID <= 0 {
		return Advertisement{}, ErrValidation
	}
	if s.store == nil {
		return Advertisement{}, fmt.Errorf("ads store is not configured")
	}
	return s.store.Get(ctx, siteID, adID)
}

// SubmitEdit runs the full edit chain: diff guard, optional confirmation,
// asset resolution, persist, then a re-fetch from the store. The re-fetched
// record is the result; the locally resolved draft is never returned. When
// the edit is disruptive and confirmed is false nothing is uploaded or
// persisted.
func (s *Service) SubmitEdit(ctx context.Context, actorID, siteID, adID int64, draft Draft, confirmed bool) (Advertisement, error) {
	if actorID <= 0 || siteID <= 0 || adID <= 0 {
		return Advertisement{}, ErrValidation
	}
	if s.store == nil || s.resolver == nil {
		return Advertisement{}, fmt.Errorf("ads service dependencies are not configured")
	}

	release, err := s.acquire(ctx, adID)
	if err != nil {
		return Advertisement{}, err
	}
	defer release()

	persisted, err := s.store.Get(ctx, siteID, adID)
	if err != nil {
		return Advertisement{}, err
	}

	if IsDisruptive(persisted, draft) && !confirmed {
		return Advertisement{}, ErrConfirmationRequired
	}

	resolved, err := s.resolver.ResolveDraft(ctx, adID, draft.Assets)
	if err != nil {
		return Advertisement{}, err
	}

	if err := s.store.Save(ctx, adID, SaveFields{
		SSID:          draft.SSID,
		TemplateName:  draft.TemplateName,
		AdType:        draft.AdType,
		Placement:     draft.Placement,
		TimeStart:     draft.TimeStart,
		TimeEnd:       draft.TimeEnd,
		Assets:        resolved,
		SurveyAnswers: draft.SurveyAnswers,
	}); err != nil {
		return Advertisement{}, fmt.Errorf("save advertisement: %w", err)
	}

	s.record(ctx, adID, actorID, "edit", map[string]any{"confirmed": confirmed})

	return s.store.Get(ctx, siteID, adID)
}

// Approve moves a pending-approval record to active. The transition is
// validated locally first; an illegal approve never reaches the store.
func (s *Service) Approve(ctx context.Context, actorID, siteID, adID int64) (Advertisement, error) {
	if actorID <= 0 || siteID <= 0 || adID <= 0 {
		return Advertisement{}, ErrValidation
	}
	if s.store == nil {
		return Advertisement{}, fmt.Errorf("ads store is not configured")
	}

	release, err := s.acquire(ctx, adID)
	if err != nil {
		return Advertisement{}, err
	}
	defer release()

	persisted, err := s.store.Get(ctx, siteID, adID)
	if err != nil {
		return Advertisement{}, err
	}

	if _, err := approveTransition(persisted.Status); err != nil {
		return Advertisement{}, err
	}

	if err := s.store.Approve(ctx, adID); err != nil {
		return Advertisement{}, fmt.Errorf("approve advertisement: %w", err)
	}

	s.record(ctx, adID, actorID, "approve", nil)

	return s.store.Get(ctx, siteID, adID)
}

// ChangeStatus flips a live record between active and inactive. Toggling to
// the current status succeeds without touching the store.
func (s *Service) ChangeStatus(ctx context.Context, actorID, siteID, adID int64, target enums.AdStatus) (Advertisement, error) {
	if actorID <= 0 || siteID <= 0 || adID <= 0 {
		return Advertisement{}, ErrValidation
	}
	if s.store == nil {
		return Advertisement{}, fmt.Errorf("ads store is not configured")
	}

	release, err := s.acquire(ctx, adID)
	if err != nil {
		return Advertisement{}, err
	}
	defer release()

	persisted, err := s.store.Get(ctx, siteID, adID)
	if err != nil {
		return Advertisement{}, err
	}

	next, noop, err := toggleTransition(persisted.Status, target)
	if err != nil {
		return Advertisement{}, err
	}
	if noop {
		return persisted, nil
	}

	if err := s.store.SetStatus(ctx, adID, next.Code()); err != nil {
		return Advertisement{}, fmt.Errorf("set advertisement status: %w", err)
	}

	s.record(ctx, adID, actorID, "change_status", map[string]any{"target": string(next)})

	return s.store.Get(ctx, siteID, adID)
}

// Delete removes a record in any status. The two-step confirmation is carried
// as an explicit flag; without it no call leaves the process.
func (s *Service) Delete(ctx context.Context, actorID, siteID, adID int64, soft, confirmed bool) error {
	if actorID <= 0 || siteID <= 0 || adID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("ads store is not configured")
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	release, err := s.acquire(ctx, adID)
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.store.Get(ctx, siteID, adID); err != nil {
		return err
	}

	if soft {
		err = s.store.SoftDelete(ctx, adID)
	} else {
		err = s.store.Delete(ctx, adID)
	}
	if err != nil {
		return fmt.Errorf("delete advertisement: %w", err)
	}

	s.record(ctx, adID, actorID, "delete", map[string]any{"soft": soft})

	return nil
}

func (s *Service) acquire(ctx context.Context, adID int64) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	token, ok, err := s.locks.Acquire(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("acquire operation lock: %w", err)
	}
	if !ok {
		return nil, ErrOperationInFlight
	}

	return func() {
		_ = s.locks.Release(ctx, adID, token)
	}, nil
}

func (s *Service) record(ctx context.Context, adID, actorID int64, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, adID, actorID, action, meta)
}
