package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/adconsole/internal/domain/enums"
	adssvc "github.com/ivankudzin/adconsole/internal/services/ads"
)

type AdRepo struct {
	pool *pgxpool.Pool
}

func NewAdRepo(pool *pgxpool.Pool) *AdRepo {
	return &AdRepo{pool: pool}
}

func (r *AdRepo) Get(ctx context.Context, siteID, adID int64) (adssvc.Advertisement, error) {
	if siteID <= 0 || adID <= 0 {
		return adssvc.Advertisement{}, fmt.Errorf("invalid advertisement reference")
	}
	if r.pool == nil {
		return adssvc.Advertisement{}, fmt.Errorf("postgres pool is nil")
	}

	var (
		ad         adssvc.Advertisement
		statusCode int
		logo       string
		banner     string
		image      string
		imgTablet  string
		imgDesktop string
		video      string
		answersRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
SELECT
	id,
	site_id,
	COALESCE(ssid, ''),
	COALESCE(template_name, ''),
	COALESCE(ad_type, ''),
	COALESCE(placement, ''),
	COALESCE(time_start, ''),
	COALESCE(time_end, ''),
	status,
	COALESCE(logo_url, ''),
	COALESCE(banner_url, ''),
	COALESCE(image_url, ''),
	COALESCE(image_tablet_url, ''),
	COALESCE(image_desktop_url, ''),
	COALESCE(video_url, ''),
	COALESCE(survey_answers, '[]'::jsonb),
	created_at,
	updated_at
FROM advertisements
WHERE id = $1 AND site_id = $2 AND deleted_at IS NULL
`, adID, siteID).Scan(
		&ad.ID,
		&ad.SiteID,
		&ad.SSID,
		&ad.TemplateName,
		&ad.AdType,
		&ad.Placement,
		&ad.TimeStart,
		&ad.TimeEnd,
		&statusCode,
		&logo,
		&banner,
		&image,
		&imgTablet,
		&imgDesktop,
		&video,
		&answersRaw,
		&ad.CreatedAt,
		&ad.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return adssvc.Advertisement{}, adssvc.ErrAdNotFound
	}
	if err != nil {
		return adssvc.Advertisement{}, fmt.Errorf("get advertisement: %w", err)
	}

	status, err := enums.AdStatusFromCode(statusCode)
	if err != nil {
		return adssvc.Advertisement{}, fmt.Errorf("get advertisement: %w", err)
	}
	ad.Status = status

	ad.Assets = map[enums.AssetSlot]string{
		enums.AssetSlotLogo:         logo,
		enums.AssetSlotBanner:       banner,
		enums.AssetSlotImage:        image,
		enums.AssetSlotImageTablet:  imgTablet,
		enums.AssetSlotImageDesktop: imgDesktop,
		enums.AssetSlotVideo:        video,
	}

	if len(answersRaw) > 0 {
		if err := json.Unmarshal(answersRaw, &ad.SurveyAnswers); err != nil {
			return adssvc.Advertisement{}, fmt.Errorf("decode survey answers: %w", err)
		}
	}

	return ad, nil
}

func (r *AdRepo) Save(ctx context.Context, adID int64, fields adssvc.SaveFields) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	answers := "[]"
	if len(fields.SurveyAnswers) > 0 {
		raw, err := json.Marshal(fields.SurveyAnswers)
		if err != nil {
			return fmt.Errorf("marshal survey answers: %w", err)
		}
		answers = string(raw)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE advertisements
SET
	ssid = $2,
	template_name = $3,
	ad_type = $4,
	placement = $5,
	time_start = $6,
	time_end = $7,
	logo_url = $8,
	banner_url = $9,
	image_url = $10,
	image_tablet_url = $11,
	image_desktop_url = $12,
	video_url = $13,
	survey_answers = $14::jsonb,
	updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`,
		adID,
		fields.SSID,
		fields.TemplateName,
		fields.AdType,
		fields.Placement,
		fields.TimeStart,
		fields.TimeEnd,
		fields.Assets[enums.AssetSlotLogo],
		fields.Assets[enums.AssetSlotBanner],
		fields.Assets[enums.AssetSlotImage],
		fields.Assets[enums.AssetSlotImageTablet],
		fields.Assets[enums.AssetSlotImageDesktop],
		fields.Assets[enums.AssetSlotVideo],
		answers,
	)
	if err != nil {
		return fmt.Errorf("save advertisement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return adssvc.ErrAdNotFound
	}
	return nil
}

func (r *AdRepo) SetStatus(ctx context.Context, adID int64, statusCode int) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if _, err := enums.AdStatusFromCode(statusCode); err != nil {
		return err
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE advertisements
SET status = $2, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, adID, statusCode)
	if err != nil {
		return fmt.Errorf("set advertisement status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return adssvc.ErrAdNotFound
	}
	return nil
}

// Approve flips pending_approval to active. The status predicate guards the
// narrow race between the service's local check and this write.
func (r *AdRepo) Approve(ctx context.Context, adID int64) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE advertisements
SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = $3 AND deleted_at IS NULL
`, adID, enums.AdStatusCodeActive, enums.AdStatusCodePendingApproval)
	if err != nil {
		return fmt.Errorf("approve advertisement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return adssvc.ErrInvalidTransition
	}
	return nil
}

func (r *AdRepo) SoftDelete(ctx context.Context, adID int64) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE advertisements
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, adID)
	if err != nil {
		return fmt.Errorf("soft delete advertisement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return adssvc.ErrAdNotFound
	}
	return nil
}

func (r *AdRepo) Delete(ctx context.Context, adID int64) error {
	if adID <= 0 {
		return fmt.Errorf("invalid advertisement id")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE id = $1`, adID); err != nil {
		return fmt.Errorf("delete advertisement: %w", err)
	}
	return nil
}

// ListAssetURLs returns every stored asset URL still referenced by any
// advertisement, soft-deleted ones included. The cleanup job treats objects
// outside this set as orphans.
func (r *AdRepo) ListAssetURLs(ctx context.Context) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT url
FROM advertisements,
LATERAL unnest(ARRAY[
	COALESCE(logo_url, ''),
	COALESCE(banner_url, ''),
	COALESCE(image_url, ''),
	COALESCE(image_tablet_url, ''),
	COALESCE(image_desktop_url, ''),
	COALESCE(video_url, '')
]) AS url
WHERE url <> ''
`)
	if err != nil {
		return nil, fmt.Errorf("list asset urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan asset url: %w", err)
		}
		urls = append(urls, url)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate asset urls: %w", rows.Err())
	}

	return urls, nil
}
