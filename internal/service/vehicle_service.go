package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

type VehicleService struct {
	store storage.Storage
}

func NewVehicleService(store storage.Storage) *VehicleService {
	return &VehicleService{store: store}
}

type CreateVehicleInput struct {
	Plate        string
	Model        string
	DeviceID     string
	Status       string
	Manufacturer *string
	Notes        *string
}

type UpdateVehicleInput struct {
	Plate        *string
	Model        *string
	DeviceID     *string
	Status       *string
	Manufacturer *string
	Notes        *string
}

const (
	maxPlateLen    = 10
	maxModelLen    = 50
	maxDeviceIDLen = 50
)

func (s *VehicleService) Create(ctx context.Context, input CreateVehicleInput) (*model.Vehicle, error) {
	var fields []FieldError
	if input.Plate == "" {
		fields = append(fields, FieldError{Field: "plate", Message: "plate is required"})
	} else if len(input.Plate) > maxPlateLen {
		fields = append(fields, FieldError{Field: "plate", Message: fmt.Sprintf("plate must be at most %d characters", maxPlateLen)})
	}
	if input.Model == "" {
		fields = append(fields, FieldError{Field: "model", Message: "model is required"})
	} else if len(input.Model) > maxModelLen {
		fields = append(fields, FieldError{Field: "model", Message: fmt.Sprintf("model must be at most %d characters", maxModelLen)})
	}
	if input.DeviceID == "" {
		fields = append(fields, FieldError{Field: "deviceId", Message: "device ID is required"})
	} else if len(input.DeviceID) > maxDeviceIDLen {
		fields = append(fields, FieldError{Field: "deviceId", Message: fmt.Sprintf("device ID must be at most %d characters", maxDeviceIDLen)})
	}

	status := model.VehicleStatus(input.Status)
	if input.Status == "" {
		status = model.VehicleStatusActive
	} else if !status.Valid() {
		fields = append(fields, FieldError{Field: "status", Message: "status must be one of active, inactive, maintenance"})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	vehicle := &model.Vehicle{
		Plate:        input.Plate,
		Model:        input.Model,
		DeviceID:     input.DeviceID,
		Status:       status,
		Manufacturer: input.Manufacturer,
		Notes:        input.Notes,
	}
	if err := s.store.CreateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *VehicleService) Update(ctx context.Context, id string, input UpdateVehicleInput) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var fields []FieldError
	update := storage.VehicleUpdate{
		Manufacturer: input.Manufacturer,
		Notes:        input.Notes,
	}
	if input.Plate != nil {
		if *input.Plate == "" {
			fields = append(fields, FieldError{Field: "plate", Message: "plate must not be empty"})
		} else if len(*input.Plate) > maxPlateLen {
			fields = append(fields, FieldError{Field: "plate", Message: fmt.Sprintf("plate must be at most %d characters", maxPlateLen)})
		}
		update.Plate = input.Plate
	}
	if input.Model != nil {
		if *input.Model == "" {
			fields = append(fields, FieldError{Field: "model", Message: "model must not be empty"})
		} else if len(*input.Model) > maxModelLen {
			fields = append(fields, FieldError{Field: "model", Message: fmt.Sprintf("model must be at most %d characters", maxModelLen)})
		}
		update.Model = input.Model
	}
	if input.DeviceID != nil {
		if *input.DeviceID == "" {
			fields = append(fields, FieldError{Field: "deviceId", Message: "device ID must not be empty"})
		} else if len(*input.DeviceID) > maxDeviceIDLen {
			fields = append(fields, FieldError{Field: "deviceId", Message: fmt.Sprintf("device ID must be at most %d characters", maxDeviceIDLen)})
		}
		update.DeviceID = input.DeviceID
	}
	if input.Status != nil {
		status := model.VehicleStatus(*input.Status)
		if !status.Valid() {
			fields = append(fields, FieldError{Field: "status", Message: "status must be one of active, inactive, maintenance"})
		}
		update.Status = &status
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	vehicle, err := s.store.UpdateVehicle(ctx, vehicleID, update)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	vehicle, err := s.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	return vehicle, nil
}

func (s *VehicleService) List(ctx context.Context) ([]model.Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

func (s *VehicleService) Delete(ctx context.Context, id string) error {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	deleted, err := s.store.DeleteVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
