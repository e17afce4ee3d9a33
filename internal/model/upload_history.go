package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadHistory is an append-only audit row written once per processed
// upload batch.
type UploadHistory struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Filename         string    `gorm:"type:text;not null" json:"filename"`
	RecordsProcessed int       `gorm:"not null" json:"recordsProcessed"`
	RecordsSkipped   int       `gorm:"not null;default:0" json:"recordsSkipped"`
	FileSize         *int64    `json:"fileSize"`
	UploadedAt       time.Time `gorm:"autoCreateTime;index" json:"uploadedAt"`
}

func (UploadHistory) TableName() string {
	return "upload_history"
}

func (u *UploadHistory) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
