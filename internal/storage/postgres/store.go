package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// Store implements the storage contract on top of postgres. Uniqueness
// is pre-checked inside a transaction and additionally backed by the
// unique indexes created in the migrations.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ storage.Storage = (*Store)(nil)

func (s *Store) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&vehicles).Error
	return vehicles, err
}

func (s *Store) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (s *Store) GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	if plate == "" {
		return nil, nil
	}
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).
		Where("plate = ?", plate).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (s *Store) GetVehicleByDeviceID(ctx context.Context, deviceID string) (*model.Vehicle, error) {
	if deviceID == "" {
		return nil, nil
	}
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (s *Store) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if vehicle.Status == "" {
		vehicle.Status = model.VehicleStatusActive
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Vehicle{}).Where("plate = ?", vehicle.Plate).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrDuplicatePlate
		}
		if err := tx.Model(&model.Vehicle{}).Where("device_id = ?", vehicle.DeviceID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrDuplicateDeviceID
		}
		return tx.Create(vehicle).Error
	})
}

func (s *Store) UpdateVehicle(ctx context.Context, id uuid.UUID, update storage.VehicleUpdate) (*model.Vehicle, error) {
	var updated *model.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle model.Vehicle
		if err := tx.Where("id = ?", id).First(&vehicle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if update.Plate != nil && *update.Plate != vehicle.Plate {
			var count int64
			if err := tx.Model(&model.Vehicle{}).
				Where("plate = ? AND id <> ?", *update.Plate, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return storage.ErrDuplicatePlate
			}
			vehicle.Plate = *update.Plate
		}
		if update.DeviceID != nil && *update.DeviceID != vehicle.DeviceID {
			var count int64
			if err := tx.Model(&model.Vehicle{}).
				Where("device_id = ? AND id <> ?", *update.DeviceID, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return storage.ErrDuplicateDeviceID
			}
			vehicle.DeviceID = *update.DeviceID
		}
		if update.Model != nil {
			vehicle.Model = *update.Model
		}
		if update.Status != nil {
			vehicle.Status = *update.Status
		}
		if update.Manufacturer != nil {
			vehicle.Manufacturer = update.Manufacturer
		}
		if update.Notes != nil {
			vehicle.Notes = update.Notes
		}
		vehicle.UpdatedAt = time.Now()

		if err := tx.Save(&vehicle).Error; err != nil {
			return err
		}
		updated = &vehicle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", id).Delete(&model.GpsPoint{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Vehicle{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (s *Store) QueryGpsPoints(ctx context.Context, query storage.GpsQuery) ([]model.GpsPoint, error) {
	q := s.db.WithContext(ctx).Model(&model.GpsPoint{})
	if query.VehicleID != nil {
		q = q.Where("vehicle_id = ?", *query.VehicleID)
	}
	if query.DeviceID != nil {
		q = q.Where("device_id = ?", *query.DeviceID)
	}
	if query.StartDate != nil {
		q = q.Where("timestamp >= ?", *query.StartDate)
	}
	if query.EndDate != nil {
		q = q.Where("timestamp <= ?", *query.EndDate)
	}

	limit := query.Limit
	if limit == 0 {
		limit = storage.DefaultQueryLimit
	}

	var points []model.GpsPoint
	err := q.Order("timestamp DESC").Limit(limit).Find(&points).Error
	return points, err
}

func (s *Store) LatestGpsPoint(ctx context.Context, vehicleID uuid.UUID) (*model.GpsPoint, error) {
	var point model.GpsPoint
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("timestamp DESC").
		First(&point).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &point, nil
}

func (s *Store) CreateGpsPoint(ctx context.Context, point *model.GpsPoint) error {
	return s.db.WithContext(ctx).Create(point).Error
}

// BulkCreateGpsPoints inserts each point independently; a failure leaves
// earlier inserts committed.
func (s *Store) BulkCreateGpsPoints(ctx context.Context, points []model.GpsPoint) ([]model.GpsPoint, error) {
	inserted := make([]model.GpsPoint, 0, len(points))
	for i := range points {
		if err := s.db.WithContext(ctx).Create(&points[i]).Error; err != nil {
			return inserted, err
		}
		inserted = append(inserted, points[i])
	}
	return inserted, nil
}

func (s *Store) ListUploadHistory(ctx context.Context) ([]model.UploadHistory, error) {
	var history []model.UploadHistory
	err := s.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Find(&history).Error
	return history, err
}

func (s *Store) CreateUploadHistory(ctx context.Context, entry *model.UploadHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = "user"
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return storage.ErrDuplicateUsername
		}
		return tx.Create(user).Error
	})
}

func (s *Store) VehicleCount(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Vehicle{}).Count(&count).Error
	return int(count), err
}

func (s *Store) ActiveVehicleCount(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Vehicle{}).
		Where("status = ?", model.VehicleStatusActive).
		Count(&count).Error
	return int(count), err
}

func (s *Store) RoutesTrackedToday(ctx context.Context) (int, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := s.db.WithContext(ctx).Model(&model.GpsPoint{}).
		Where("vehicle_id IS NOT NULL").
		Where("timestamp >= ? AND timestamp < ?", dayStart, dayEnd).
		Distinct("vehicle_id").
		Count(&count).Error
	return int(count), err
}
