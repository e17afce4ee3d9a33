package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GpsPoint is one telemetry reading. Timestamp is the device's own clock
// and the sort/filter key; CreatedAt is ingestion time.
type GpsPoint struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID     *uuid.UUID     `gorm:"type:uuid;index" json:"vehicleId"`
	DeviceID      string         `gorm:"type:varchar(50);not null;index" json:"deviceId"`
	Latitude      float64        `gorm:"not null" json:"latitude"`
	Longitude     float64        `gorm:"not null" json:"longitude"`
	Speed         *float64       `json:"speed"`
	Direction     *float64       `json:"direction"`
	Altitude      *float64       `json:"altitude"`
	Satellites    *int           `json:"satellites"`
	Ignition      *bool          `json:"ignition"`
	MainBattery   *float64       `json:"mainBattery"`
	BackupBattery *float64       `json:"backupBattery"`
	Odometer      *float64       `json:"odometer"`
	Horimeter     *float64       `json:"horimeter"`
	Timestamp     time.Time      `gorm:"index;not null" json:"timestamp"`
	RawData       datatypes.JSON `gorm:"type:jsonb" json:"rawData"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}

func (GpsPoint) TableName() string {
	return "gps_points"
}

func (p *GpsPoint) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
