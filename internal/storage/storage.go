package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
)

var (
	ErrDuplicatePlate    = errors.New("vehicle with this plate already exists")
	ErrDuplicateDeviceID = errors.New("vehicle with this device ID already exists")
	ErrDuplicateUsername = errors.New("username already taken")
)

// VehicleUpdate carries a partial vehicle update; nil fields are left
// untouched.
type VehicleUpdate struct {
	Plate        *string
	Model        *string
	DeviceID     *string
	Status       *model.VehicleStatus
	Manufacturer *string
	Notes        *string
}

// GpsQuery filters are conjunctive; StartDate/EndDate bound the point's
// Timestamp inclusively. Limit of 0 means the default of 100; a negative
// limit disables truncation.
type GpsQuery struct {
	VehicleID *uuid.UUID
	DeviceID  *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

const DefaultQueryLimit = 100

// Storage is the persistence contract. The in-memory implementation is
// the default; the postgres one is selected when DB_DSN is configured.
// Not found is reported as (nil, nil); uniqueness violations as the
// typed errors above.
type Storage interface {
	// Vehicles. List is ordered most-recently-updated first. Delete
	// cascades to GPS points referencing the vehicle.
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	GetVehicleByDeviceID(ctx context.Context, deviceID string) (*model.Vehicle, error)
	CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error
	UpdateVehicle(ctx context.Context, id uuid.UUID, update VehicleUpdate) (*model.Vehicle, error)
	DeleteVehicle(ctx context.Context, id uuid.UUID) (bool, error)

	// GPS points. Query returns timestamp-descending, truncated to the
	// limit. BulkCreate is best-effort: points inserted before a failure
	// stay committed.
	QueryGpsPoints(ctx context.Context, query GpsQuery) ([]model.GpsPoint, error)
	LatestGpsPoint(ctx context.Context, vehicleID uuid.UUID) (*model.GpsPoint, error)
	CreateGpsPoint(ctx context.Context, point *model.GpsPoint) error
	BulkCreateGpsPoints(ctx context.Context, points []model.GpsPoint) ([]model.GpsPoint, error)

	// Upload history, append-only.
	ListUploadHistory(ctx context.Context) ([]model.UploadHistory, error)
	CreateUploadHistory(ctx context.Context, entry *model.UploadHistory) error

	// Users.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error

	// Statistics.
	VehicleCount(ctx context.Context) (int, error)
	ActiveVehicleCount(ctx context.Context) (int, error)
	RoutesTrackedToday(ctx context.Context) (int, error)
}
