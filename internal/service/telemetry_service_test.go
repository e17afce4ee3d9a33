package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-service/internal/model"
	"fleet-service/internal/storage/memory"
)

func seedPoints(t *testing.T, store *memory.Store, vehicle *model.Vehicle, n int, base time.Time) {
	t.Helper()
	points := make([]model.GpsPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, model.GpsPoint{
			VehicleID: &vehicle.ID,
			DeviceID:  vehicle.DeviceID,
			Latitude:  -29.9,
			Longitude: -51.2,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	_, err := store.BulkCreateGpsPoints(context.Background(), points)
	require.NoError(t, err)
}

func TestTelemetryQueryDefaultLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTelemetryService(store)

	vehicle := seedVehicle(t, store, "ABC1234", "999")
	seedPoints(t, store, vehicle, 150, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	points, err := svc.Query(ctx, QueryInput{})
	require.NoError(t, err)
	assert.Len(t, points, 100)
}

func TestTelemetryQueryFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTelemetryService(store)

	vehicle := seedVehicle(t, store, "ABC1234", "999")
	other := seedVehicle(t, store, "DEF5678", "888")
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	seedPoints(t, store, vehicle, 5, base)
	seedPoints(t, store, other, 5, base)

	points, err := svc.Query(ctx, QueryInput{
		VehicleID: vehicle.ID.String(),
		StartDate: "2025-01-01T10:01:00Z",
		EndDate:   "2025-01-01T10:03:00Z",
		Limit:     "10",
	})
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.True(t, points[0].Timestamp.After(points[1].Timestamp))
	assert.True(t, points[1].Timestamp.After(points[2].Timestamp))
	for _, p := range points {
		assert.Equal(t, vehicle.ID, *p.VehicleID)
	}
}

func TestTelemetryQueryValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewTelemetryService(memory.New())

	cases := map[string]QueryInput{
		"bad vehicleId": {VehicleID: "not-a-uuid"},
		"bad startDate": {StartDate: "next tuesday"},
		"bad endDate":   {EndDate: "whenever"},
		"bad limit":     {Limit: "lots"},
		"zero limit":    {Limit: "0"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Query(ctx, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTelemetryQueryEmptyResultIsSlice(t *testing.T) {
	ctx := context.Background()
	svc := NewTelemetryService(memory.New())

	points, err := svc.Query(ctx, QueryInput{})
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestTelemetryLatest(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTelemetryService(store)

	vehicle := seedVehicle(t, store, "ABC1234", "999")

	_, err := svc.Latest(ctx, vehicle.ID.String())
	assert.ErrorIs(t, err, ErrNotFound)

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	seedPoints(t, store, vehicle, 3, base)

	latest, err := svc.Latest(ctx, vehicle.ID.String())
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Minute), latest.Timestamp)

	_, err = svc.Latest(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTelemetryRouteChronological(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTelemetryService(store)

	vehicle := seedVehicle(t, store, "ABC1234", "999")
	// More points than the default query limit: routes are never truncated.
	seedPoints(t, store, vehicle, 120, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	route, err := svc.Route(ctx, vehicle.ID.String())
	require.NoError(t, err)
	require.Len(t, route, 120)
	for i := 1; i < len(route); i++ {
		assert.True(t, route[i].Timestamp.After(route[i-1].Timestamp))
	}
}

func TestTelemetryRouteUnknownVehicle(t *testing.T) {
	ctx := context.Background()
	svc := NewTelemetryService(memory.New())

	_, err := svc.Route(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTelemetryStats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewTelemetryService(store)

	active := seedVehicle(t, store, "ABC1234", "999")
	inactive := &model.Vehicle{Plate: "DEF5678", Model: "ST310", DeviceID: "888", Status: model.VehicleStatusInactive}
	require.NoError(t, store.CreateVehicle(ctx, inactive))

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	seedPoints(t, store, active, 2, dayStart.Add(time.Minute))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.VehicleCount)
	assert.Equal(t, 1, stats.ActiveVehicleCount)
	assert.Equal(t, 1, stats.RoutesTrackedToday)
	assert.WithinDuration(t, time.Now(), stats.LastUpdate, time.Minute)
}
