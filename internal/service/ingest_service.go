package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// IngestService drives the upload pipeline: parse the buffer, normalize
// and resolve each record, bulk-persist the accepted ones, then write a
// single upload-history row with the final counts.
type IngestService struct {
	store storage.Storage
	log   zerolog.Logger
}

func NewIngestService(store storage.Storage, log zerolog.Logger) *IngestService {
	return &IngestService{store: store, log: log}
}

type IngestResult struct {
	RecordsProcessed int `json:"recordsProcessed"`
	RecordsSkipped   int `json:"recordsSkipped"`
	TotalRecords     int `json:"totalRecords"`
}

// IngestBatch is the generic bulk path keyed by deviceId. Per-record
// failures are counted as skipped and never abort the batch; a top-level
// value that is not a JSON array aborts the whole call before any
// persistence.
func (s *IngestService) IngestBatch(ctx context.Context, data []byte, filename string, fileSize int64) (*IngestResult, error) {
	records, err := parseRecordArray(data)
	if err != nil {
		return nil, err
	}

	processed := 0
	skipped := 0
	staged := make([]model.GpsPoint, 0, len(records))

	for _, raw := range records {
		var record map[string]interface{}
		if err := json.Unmarshal(raw, &record); err != nil {
			skipped++
			continue
		}

		point, err := normalizeRecord(record, raw)
		if err != nil {
			s.log.Debug().Err(err).Msg("skipping record")
			skipped++
			continue
		}

		vehicle, err := s.store.GetVehicleByDeviceID(ctx, point.DeviceID)
		if err != nil {
			return nil, err
		}
		if vehicle == nil {
			s.log.Debug().Str("device_id", point.DeviceID).Msg("skipping record for unknown device")
			skipped++
			continue
		}
		point.VehicleID = &vehicle.ID

		staged = append(staged, *point)
		processed++
	}

	if _, err := s.store.BulkCreateGpsPoints(ctx, staged); err != nil {
		return nil, err
	}

	entry := &model.UploadHistory{
		Filename:         filename,
		RecordsProcessed: processed,
		RecordsSkipped:   skipped,
		FileSize:         &fileSize,
	}
	if err := s.store.CreateUploadHistory(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("filename", filename).
		Int("processed", processed).
		Int("skipped", skipped).
		Msg("upload batch ingested")

	return &IngestResult{
		RecordsProcessed: processed,
		RecordsSkipped:   skipped,
		TotalRecords:     len(records),
	}, nil
}

// IngestForVehicle is the strict per-vehicle tracking path: each record
// must carry the target vehicle's plate, guarding against cross-vehicle
// contamination. Bad numerics default to zero here rather than null, and
// no upload-history row is written. Returns the number of points stored.
func (s *IngestService) IngestForVehicle(ctx context.Context, vehicleID string, data []byte) (int, error) {
	id, err := uuid.Parse(vehicleID)
	if err != nil {
		return 0, ErrNotFound
	}
	vehicle, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return 0, err
	}
	if vehicle == nil {
		return 0, ErrNotFound
	}

	records, err := parseRecordArray(data)
	if err != nil {
		return 0, err
	}

	staged := make([]model.GpsPoint, 0, len(records))
	for _, raw := range records {
		var record map[string]interface{}
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}

		plate, ok := coerceString(record["plate"])
		if !ok || plate == "" {
			s.log.Debug().Msg("skipping tracking point without plate")
			continue
		}
		if plate != vehicle.Plate {
			s.log.Debug().Str("plate", plate).Msg("skipping tracking point for different vehicle")
			continue
		}

		latitude, ok := coerceFloat(record["latitude"])
		if !ok {
			continue
		}
		longitude, ok := coerceFloat(record["longitude"])
		if !ok {
			continue
		}
		timestamp, err := coerceTimestamp(record)
		if err != nil {
			continue
		}

		deviceID, ok := coerceString(record["deviceId"])
		if !ok || deviceID == "" {
			deviceID = vehicle.DeviceID
		}

		speed := floatOrZero(record["speed"])
		direction := floatOrZero(record["direction"])
		odometer := floatOrZero(record["odometer"])

		point := model.GpsPoint{
			VehicleID: &vehicle.ID,
			DeviceID:  deviceID,
			Latitude:  latitude,
			Longitude: longitude,
			Speed:     &speed,
			Direction: &direction,
			Odometer:  &odometer,
			Timestamp: timestamp,
			RawData:   datatypes.JSON(raw),
		}
		point.Ignition = optionalBool(record["ignition"])
		point.MainBattery = optionalFloat(record["mainBattery"])
		point.BackupBattery = optionalFloat(record["backupBattery"])

		staged = append(staged, point)
	}

	inserted, err := s.store.BulkCreateGpsPoints(ctx, staged)
	if err != nil {
		return len(inserted), err
	}

	s.log.Info().
		Str("vehicle_id", vehicle.ID.String()).
		Int("processed", len(inserted)).
		Msg("tracking points ingested")

	return len(inserted), nil
}

// History lists the audit log, newest upload first.
func (s *IngestService) History(ctx context.Context) ([]model.UploadHistory, error) {
	history, err := s.store.ListUploadHistory(ctx)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []model.UploadHistory{}
	}
	return history, nil
}

// parseRecordArray rejects anything that is not a top-level JSON array,
// distinguishing malformed JSON from a well-formed non-array value.
func parseRecordArray(data []byte) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		if json.Valid(data) {
			return nil, ErrNotArray
		}
		return nil, ErrInvalidJSON
	}
	// A top-level null unmarshals into a nil slice without error; an
	// actual empty array yields a non-nil one.
	if records == nil {
		return nil, ErrNotArray
	}
	return records, nil
}
