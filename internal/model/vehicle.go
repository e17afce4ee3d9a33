package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "active"
	VehicleStatusInactive    VehicleStatus = "inactive"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusActive, VehicleStatusInactive, VehicleStatusMaintenance:
		return true
	}
	return false
}

type Vehicle struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Plate        string        `gorm:"type:varchar(10);uniqueIndex;not null" json:"plate"`
	Model        string        `gorm:"type:varchar(50);not null" json:"model"`
	DeviceID     string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"deviceId"`
	Status       VehicleStatus `gorm:"type:varchar(20);not null;default:active" json:"status"`
	Manufacturer *string       `gorm:"type:text" json:"manufacturer"`
	Notes        *string       `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
