package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
	"fleet-service/internal/utils"
)

type TelemetryService struct {
	store storage.Storage
}

func NewTelemetryService(store storage.Storage) *TelemetryService {
	return &TelemetryService{store: store}
}

// QueryInput carries the raw query parameters; empty strings mean the
// filter is absent.
type QueryInput struct {
	VehicleID string
	DeviceID  string
	StartDate string
	EndDate   string
	Limit     string
}

// Query returns matching points most recent first, truncated to the
// limit (default 100). Callers that need chronological route order must
// re-sort; see Route.
func (s *TelemetryService) Query(ctx context.Context, input QueryInput) ([]model.GpsPoint, error) {
	var fields []FieldError
	query := storage.GpsQuery{}

	if input.VehicleID != "" {
		id, err := uuid.Parse(input.VehicleID)
		if err != nil {
			fields = append(fields, FieldError{Field: "vehicleId", Message: "must be a valid UUID"})
		} else {
			query.VehicleID = &id
		}
	}
	if input.DeviceID != "" {
		deviceID := input.DeviceID
		query.DeviceID = &deviceID
	}
	if input.StartDate != "" {
		ts, err := utils.ParseTime(input.StartDate)
		if err != nil {
			fields = append(fields, FieldError{Field: "startDate", Message: "must be a valid date"})
		} else {
			query.StartDate = &ts
		}
	}
	if input.EndDate != "" {
		ts, err := utils.ParseTime(input.EndDate)
		if err != nil {
			fields = append(fields, FieldError{Field: "endDate", Message: "must be a valid date"})
		} else {
			query.EndDate = &ts
		}
	}
	if input.Limit != "" {
		limit, err := strconv.Atoi(input.Limit)
		if err != nil || limit <= 0 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be a positive integer"})
		} else {
			query.Limit = limit
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	points, err := s.store.QueryGpsPoints(ctx, query)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []model.GpsPoint{}
	}
	return points, nil
}

func (s *TelemetryService) Latest(ctx context.Context, vehicleID string) (*model.GpsPoint, error) {
	id, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, ErrNotFound
	}
	point, err := s.store.LatestGpsPoint(ctx, id)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, ErrNotFound
	}
	return point, nil
}

// Route returns every point for a vehicle in chronological order, the
// shape route-rendering consumers expect.
func (s *TelemetryService) Route(ctx context.Context, vehicleID string) ([]model.GpsPoint, error) {
	id, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, ErrNotFound
	}
	vehicle, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}

	points, err := s.store.QueryGpsPoints(ctx, storage.GpsQuery{VehicleID: &id, Limit: -1})
	if err != nil {
		return nil, err
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	if points == nil {
		points = []model.GpsPoint{}
	}
	return points, nil
}

type Stats struct {
	VehicleCount       int       `json:"vehicleCount"`
	ActiveVehicleCount int       `json:"activeVehicleCount"`
	RoutesTrackedToday int       `json:"routesTrackedToday"`
	LastUpdate         time.Time `json:"lastUpdate"`
}

func (s *TelemetryService) Stats(ctx context.Context) (*Stats, error) {
	vehicleCount, err := s.store.VehicleCount(ctx)
	if err != nil {
		return nil, err
	}
	activeCount, err := s.store.ActiveVehicleCount(ctx)
	if err != nil {
		return nil, err
	}
	routesToday, err := s.store.RoutesTrackedToday(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		VehicleCount:       vehicleCount,
		ActiveVehicleCount: activeCount,
		RoutesTrackedToday: routesToday,
		LastUpdate:         time.Now(),
	}, nil
}
