package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

func newVehicle(plate, deviceID string) *model.Vehicle {
	return &model.Vehicle{
		Plate:    plate,
		Model:    "ST310",
		DeviceID: deviceID,
		Status:   model.VehicleStatusActive,
	}
}

func newPoint(vehicleID uuid.UUID, deviceID string, ts time.Time) model.GpsPoint {
	return model.GpsPoint{
		VehicleID: &vehicleID,
		DeviceID:  deviceID,
		Latitude:  -29.9,
		Longitude: -51.2,
		Timestamp: ts,
	}
}

func TestCreateVehicleUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.CreateVehicle(ctx, newVehicle("ABC1234", "999")))

	err := store.CreateVehicle(ctx, newVehicle("ABC1234", "888"))
	assert.ErrorIs(t, err, storage.ErrDuplicatePlate)

	err = store.CreateVehicle(ctx, newVehicle("DEF5678", "999"))
	assert.ErrorIs(t, err, storage.ErrDuplicateDeviceID)

	count, err := store.VehicleCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateVehicleUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()

	first := newVehicle("ABC1234", "999")
	second := newVehicle("DEF5678", "888")
	require.NoError(t, store.CreateVehicle(ctx, first))
	require.NoError(t, store.CreateVehicle(ctx, second))

	takenPlate := "ABC1234"
	_, err := store.UpdateVehicle(ctx, second.ID, storage.VehicleUpdate{Plate: &takenPlate})
	assert.ErrorIs(t, err, storage.ErrDuplicatePlate)

	takenDevice := "999"
	_, err = store.UpdateVehicle(ctx, second.ID, storage.VehicleUpdate{DeviceID: &takenDevice})
	assert.ErrorIs(t, err, storage.ErrDuplicateDeviceID)

	// Re-submitting its own plate is not a conflict.
	ownPlate := "DEF5678"
	updated, err := store.UpdateVehicle(ctx, second.ID, storage.VehicleUpdate{Plate: &ownPlate})
	require.NoError(t, err)
	assert.Equal(t, "DEF5678", updated.Plate)
}

func TestUpdateVehicleReindexes(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))

	newPlate := "XYZ9876"
	newDevice := "777"
	_, err := store.UpdateVehicle(ctx, vehicle.ID, storage.VehicleUpdate{Plate: &newPlate, DeviceID: &newDevice})
	require.NoError(t, err)

	old, err := store.GetVehicleByPlate(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Nil(t, old)

	found, err := store.GetVehicleByPlate(ctx, "XYZ9876")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, vehicle.ID, found.ID)

	byDevice, err := store.GetVehicleByDeviceID(ctx, "777")
	require.NoError(t, err)
	require.NotNil(t, byDevice)
	assert.Equal(t, vehicle.ID, byDevice.ID)
}

func TestVehicleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))

	byPlate, err := store.GetVehicleByPlate(ctx, "ABC1234")
	require.NoError(t, err)
	require.NotNil(t, byPlate)

	byDevice, err := store.GetVehicleByDeviceID(ctx, "999")
	require.NoError(t, err)
	require.NotNil(t, byDevice)

	assert.Equal(t, byPlate.ID, byDevice.ID)
	assert.Equal(t, *byPlate, *byDevice)
}

func TestDeleteVehicleCascadesPoints(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	other := newVehicle("DEF5678", "888")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))
	require.NoError(t, store.CreateVehicle(ctx, other))

	now := time.Now()
	_, err := store.BulkCreateGpsPoints(ctx, []model.GpsPoint{
		newPoint(vehicle.ID, "999", now),
		newPoint(vehicle.ID, "999", now.Add(time.Minute)),
		newPoint(other.ID, "888", now),
	})
	require.NoError(t, err)

	deleted, err := store.DeleteVehicle(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	points, err := store.QueryGpsPoints(ctx, storage.GpsQuery{VehicleID: &vehicle.ID})
	require.NoError(t, err)
	assert.Empty(t, points)

	remaining, err := store.QueryGpsPoints(ctx, storage.GpsQuery{VehicleID: &other.ID})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteVehicleNotFound(t *testing.T) {
	ctx := context.Background()
	store := New()

	deleted, err := store.DeleteVehicle(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestQueryGpsPointsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	points := make([]model.GpsPoint, 0, 5)
	for i := 0; i < 5; i++ {
		points = append(points, newPoint(vehicle.ID, "999", base.Add(time.Duration(i)*time.Minute)))
	}
	_, err := store.BulkCreateGpsPoints(ctx, points)
	require.NoError(t, err)

	got, err := store.QueryGpsPoints(ctx, storage.GpsQuery{VehicleID: &vehicle.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(4*time.Minute), got[0].Timestamp)
	assert.Equal(t, base.Add(3*time.Minute), got[1].Timestamp)
}

func TestQueryGpsPointsTimeWindowInclusive(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.BulkCreateGpsPoints(ctx, []model.GpsPoint{
		newPoint(vehicle.ID, "999", base.Add(-time.Hour)),
		newPoint(vehicle.ID, "999", base),
		newPoint(vehicle.ID, "999", base.Add(time.Hour)),
		newPoint(vehicle.ID, "999", base.Add(2*time.Hour)),
	})
	require.NoError(t, err)

	start := base
	end := base.Add(time.Hour)
	got, err := store.QueryGpsPoints(ctx, storage.GpsQuery{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestQueryGpsPointsConjunctiveFilters(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	other := newVehicle("DEF5678", "888")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))
	require.NoError(t, store.CreateVehicle(ctx, other))

	now := time.Now()
	_, err := store.BulkCreateGpsPoints(ctx, []model.GpsPoint{
		newPoint(vehicle.ID, "999", now),
		newPoint(other.ID, "888", now),
	})
	require.NoError(t, err)

	deviceID := "888"
	got, err := store.QueryGpsPoints(ctx, storage.GpsQuery{VehicleID: &vehicle.ID, DeviceID: &deviceID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLatestGpsPoint(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))

	latest, err := store.LatestGpsPoint(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err = store.BulkCreateGpsPoints(ctx, []model.GpsPoint{
		newPoint(vehicle.ID, "999", base),
		newPoint(vehicle.ID, "999", base.Add(2*time.Minute)),
		newPoint(vehicle.ID, "999", base.Add(time.Minute)),
	})
	require.NoError(t, err)

	latest, err = store.LatestGpsPoint(ctx, vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, base.Add(2*time.Minute), latest.Timestamp)
}

func TestRoutesTrackedToday(t *testing.T) {
	ctx := context.Background()
	store := New()

	vehicle := newVehicle("ABC1234", "999")
	other := newVehicle("DEF5678", "888")
	require.NoError(t, store.CreateVehicle(ctx, vehicle))
	require.NoError(t, store.CreateVehicle(ctx, other))

	// Anchor inside the current local day so the test holds next to
	// midnight.
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	_, err := store.BulkCreateGpsPoints(ctx, []model.GpsPoint{
		newPoint(vehicle.ID, "999", dayStart.Add(time.Minute)),
		newPoint(vehicle.ID, "999", dayStart.Add(2*time.Minute)),
		newPoint(other.ID, "888", dayStart.Add(-time.Minute)),
		newPoint(other.ID, "888", dayStart.AddDate(0, 0, 1).Add(time.Minute)),
	})
	require.NoError(t, err)

	count, err := store.RoutesTrackedToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListVehiclesOrderedByUpdate(t *testing.T) {
	ctx := context.Background()
	store := New()

	first := newVehicle("ABC1234", "999")
	second := newVehicle("DEF5678", "888")
	require.NoError(t, store.CreateVehicle(ctx, first))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.CreateVehicle(ctx, second))

	vehicles, err := store.ListVehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 2)
	assert.Equal(t, second.ID, vehicles[0].ID)

	time.Sleep(5 * time.Millisecond)
	notes := "back in service"
	_, err = store.UpdateVehicle(ctx, first.ID, storage.VehicleUpdate{Notes: &notes})
	require.NoError(t, err)

	vehicles, err = store.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, vehicles[0].ID)
}

func TestUploadHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	store := New()

	size := int64(1024)
	require.NoError(t, store.CreateUploadHistory(ctx, &model.UploadHistory{
		Filename:         "batch1.json",
		RecordsProcessed: 3,
		RecordsSkipped:   1,
		FileSize:         &size,
	}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.CreateUploadHistory(ctx, &model.UploadHistory{
		Filename:         "batch2.json",
		RecordsProcessed: 2,
	}))

	history, err := store.ListUploadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "batch2.json", history[0].Filename)
	assert.Equal(t, "batch1.json", history[1].Filename)
}

func TestCreateUserUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.CreateUser(ctx, &model.User{Username: "admin", Password: "x", Name: "Admin"}))
	err := store.CreateUser(ctx, &model.User{Username: "admin", Password: "y", Name: "Other"})
	assert.ErrorIs(t, err, storage.ErrDuplicateUsername)
}
