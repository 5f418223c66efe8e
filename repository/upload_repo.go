// Package repository persists uploads and their verification results.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/yash-flix/VeriDoc-Ai/models"
	"github.com/yash-flix/VeriDoc-Ai/verification"
)

var ErrNotFound = errors.New("upload not found")

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// similarScanLimit bounds the perceptual-hash scan to the newest uploads.
	similarScanLimit = 5000
)

// ListFilter selects a page of uploads. Zero values mean "any".
type ListFilter struct {
	Status   models.Status
	FileType models.FileType
	Page     int
	PageSize int
}

func (f *ListFilter) normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

type UploadRepo struct {
	db *gorm.DB
}

func NewUploadRepo(db *gorm.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

func (r *UploadRepo) Create(ctx context.Context, u *models.Upload) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *UploadRepo) Get(ctx context.Context, id string) (*models.Upload, error) {
	var u models.Upload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload %s: %w", id, err)
	}
	return &u, nil
}

// List returns one page of uploads, newest first, plus the total match count.
func (r *UploadRepo) List(ctx context.Context, f ListFilter) ([]models.Upload, int64, error) {
	f.normalize()
	q := r.db.WithContext(ctx).Model(&models.Upload{})
	if f.Status != "" {
		q = q.Where("result_status = ?", f.Status)
	}
	if f.FileType != "" {
		q = q.Where("file_type = ?", f.FileType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count uploads: %w", err)
	}
	uploads := make([]models.Upload, 0, f.PageSize)
	if err := q.Order("created_at DESC").Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&uploads).Error; err != nil {
		return nil, 0, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, total, nil
}

// PendingBefore returns ids of uploads still pending that were created
// before cutoff, oldest first.
func (r *UploadRepo) PendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Upload{}).
		Where("result_status = ? AND created_at <= ?", models.StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	return ids, nil
}

// UpdateResult overwrites the stored result wholesale. An empty hash leaves
// the stored perceptual hash untouched.
func (r *UploadRepo) UpdateResult(ctx context.Context, id string, res models.VerificationResult, perceptualHash string) error {
	res = res.Normalized()
	cols := map[string]any{
		"result_authenticity_score": res.AuthenticityScore,
		"result_anomalies":          res.Anomalies,
		"result_verified_against":   res.VerifiedAgainst,
		"result_status":             res.Status,
		"result_verified_at":        res.VerifiedAt,
	}
	if perceptualHash != "" {
		cols["perceptual_hash"] = perceptualHash
	}
	tx := r.db.WithContext(ctx).Model(&models.Upload{}).Where("id = ?", id).Updates(cols)
	if tx.Error != nil {
		return fmt.Errorf("update result of %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindSimilar returns earlier uploads whose perceptual hash lies within
// maxDistance (exclusive) of hash, closest first.
func (r *UploadRepo) FindSimilar(ctx context.Context, hash, excludeID string, maxDistance int) ([]verification.SimilarUpload, error) {
	var rows []struct {
		ID             string
		PerceptualHash string
	}
	err := r.db.WithContext(ctx).Model(&models.Upload{}).
		Select("id", "perceptual_hash").
		Where("perceptual_hash <> ? AND id <> ?", "", excludeID).
		Order("created_at DESC").
		Limit(similarScanLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("scan perceptual hashes: %w", err)
	}

	var out []verification.SimilarUpload
	for _, row := range rows {
		d, err := verification.HashDistance(hash, row.PerceptualHash)
		if err != nil {
			continue
		}
		if d < maxDistance {
			out = append(out, verification.SimilarUpload{ID: row.ID, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}
