package models

import (
	"time"

	"gorm.io/gorm"
)

// FileType is the category an uploader declares for a file.
type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeText     FileType = "text"
)

// ParseFileType validates a declared category string.
func ParseFileType(s string) (FileType, bool) {
	switch ft := FileType(s); ft {
	case FileTypeDocument, FileTypeImage, FileTypeVideo, FileTypeText:
		return ft, true
	default:
		return "", false
	}
}

// Upload is a stored file together with its latest verification result.
type Upload struct {
	ID              string             `gorm:"primaryKey;size:36" json:"id"`
	FileType        FileType           `gorm:"size:16;index;not null" json:"fileType"`
	FileURL         string             `gorm:"size:1024" json:"fileUrl"`
	FileName        string             `gorm:"size:255" json:"fileName"`
	StorageProvider string             `gorm:"size:32" json:"storageProvider"`
	StorageID       string             `gorm:"size:512" json:"storageId"`
	ContentType     string             `gorm:"size:128" json:"contentType"`
	Size            int64              `json:"size"`
	PerceptualHash  string             `gorm:"size:16;index" json:"-"`
	Result          VerificationResult `gorm:"embedded;embeddedPrefix:result_" json:"result"`
	CreatedAt       time.Time          `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// BeforeCreate makes sure a fresh record starts out pending with empty lists.
func (u *Upload) BeforeCreate(tx *gorm.DB) error {
	if u.Result.Status == "" {
		u.Result = PendingResult()
	}
	u.Result.normalize()
	return nil
}
