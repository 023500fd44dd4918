package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
)

var ErrValidation = errors.New("validation error")

// UploadError reports the first slot whose upload failed. The submit that
// triggered the resolution must abort before anything is persisted; objects
// already uploaded for earlier slots stay behind until the cleanup job
// reclaims them.
type UploadError struct {
	Slot enums.AssetSlot
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload asset slot %s: %v", e.Slot, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Payload is a new binary asset staged on a draft, not yet in object storage.
type Payload struct {
	Data        []byte
	FileName    string
	ContentType string
}

// SlotValue is the state of one asset slot on a draft: empty, an already
// stored URL, or a pending payload. A payload takes precedence over URL.
type SlotValue struct {
	URL     string
	Payload *Payload
}

func (v SlotValue) Pending() bool {
	return v.Payload != nil
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body *bytes.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// Service resolves a draft's asset slots to stored URLs before persistence.
type Service struct {
	storage ObjectStorage
	now     func() time.Time
}

func NewService(storage ObjectStorage) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
	}
}

// ResolveDraft walks the fixed slot set in order and uploads every pending
// payload, substituting the resulting URL. Slots holding a URL or nothing
// pass through untouched. The first failing slot aborts the rest; the caller
// must not persist anything when an error is returned.
func (s *Service) ResolveDraft(ctx context.Context, ownerID int64, slots map[enums.AssetSlot]SlotValue) (map[enums.AssetSlot]string, error) {
	if ownerID <= 0 {
		return nil, ErrValidation
	}
	if s.storage == nil {
		return nil, fmt.Errorf("asset storage is not configured")
	}

	for slot := range slots {
		if !slot.Valid() {
			return nil, fmt.Errorf("%w: unknown asset slot %q", ErrValidation, slot)
		}
	}

	resolved := make(map[enums.AssetSlot]string, len(slots))
	for _, slot := range enums.AssetSlots() {
		value, ok := slots[slot]
		if !ok {
			continue
		}

		if !value.Pending() {
			resolved[slot] = strings.TrimSpace(value.URL)
			continue
		}

		url, err := s.uploadPayload(ctx, ownerID, slot, value.Payload)
		if err != nil {
			return nil, &UploadError{Slot: slot, Err: err}
		}
		resolved[slot] = url
	}

	return resolved, nil
}

func (s *Service) uploadPayload(ctx context.Context, ownerID int64, slot enums.AssetSlot, payload *Payload) (string, error) {
	if payload == nil || len(payload.Data) == 0 {
		return "", ErrValidation
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := s.buildObjectKey(ownerID, slot, payload.FileName)

	contentType := strings.TrimSpace(payload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := bytes.NewReader(payload.Data)
	if err := s.storage.Put(ctx, key, body, int64(len(payload.Data)), contentType); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.storage.PublicURL(key), nil
}

func (s *Service) buildObjectKey(ownerID int64, slot enums.AssetSlot, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}

	stamp := s.now().UTC().Format("20060102T150405")
	return fmt.Sprintf("ads/%d/%s/%s_%s%s", ownerID, slot, stamp, uuid.NewString(), ext)
}
