package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"fleet-service/internal/model"
	"fleet-service/internal/utils"
)

// normalizeRecord turns one raw upload record into a GpsPoint candidate.
// deviceId, latitude, longitude and a timestamp (field "timestamp" or
// "date") are required: missing or uncoercible values reject the record.
// Optional fields that fail coercion become nil. The raw record is kept
// verbatim for audit.
func normalizeRecord(record map[string]interface{}, raw json.RawMessage) (*model.GpsPoint, error) {
	deviceID, ok := coerceString(record["deviceId"])
	if !ok || deviceID == "" {
		return nil, errors.New("missing deviceId")
	}

	latitude, ok := coerceFloat(record["latitude"])
	if !ok {
		return nil, errors.New("missing or invalid latitude")
	}
	longitude, ok := coerceFloat(record["longitude"])
	if !ok {
		return nil, errors.New("missing or invalid longitude")
	}

	timestamp, err := coerceTimestamp(record)
	if err != nil {
		return nil, err
	}

	point := &model.GpsPoint{
		DeviceID:  deviceID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: timestamp,
		RawData:   datatypes.JSON(raw),
	}

	point.Speed = optionalFloat(record["speed"])
	point.Direction = optionalFloat(record["direction"])
	point.Altitude = optionalFloat(record["altitude"])
	point.MainBattery = optionalFloat(record["mainBattery"])
	point.BackupBattery = optionalFloat(record["backupBattery"])
	point.Odometer = optionalFloat(record["odometer"])
	point.Horimeter = optionalFloat(record["horimeter"])
	point.Satellites = optionalInt(record["satellites"])
	point.Ignition = optionalBool(record["ignition"])

	return point, nil
}

func coerceTimestamp(record map[string]interface{}) (time.Time, error) {
	value, ok := record["timestamp"]
	if !ok || value == nil {
		value, ok = record["date"]
	}
	if !ok || value == nil {
		return time.Time{}, errors.New("missing timestamp")
	}

	switch v := value.(type) {
	case string:
		ts, err := utils.ParseTime(v)
		if err != nil {
			return time.Time{}, errors.New("invalid timestamp")
		}
		return ts, nil
	case float64:
		return time.Unix(int64(v), 0), nil
	}
	return time.Time{}, errors.New("invalid timestamp")
}

func coerceFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func coerceInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func coerceBool(value interface{}) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case float64:
		return v != 0, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func coerceString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		// Tracker exports sometimes carry numeric device ids.
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func optionalFloat(value interface{}) *float64 {
	if value == nil {
		return nil
	}
	f, ok := coerceFloat(value)
	if !ok {
		return nil
	}
	return &f
}

func optionalInt(value interface{}) *int {
	if value == nil {
		return nil
	}
	i, ok := coerceInt(value)
	if !ok {
		return nil
	}
	return &i
}

func optionalBool(value interface{}) *bool {
	if value == nil {
		return nil
	}
	b, ok := coerceBool(value)
	if !ok {
		return nil
	}
	return &b
}

// floatOrZero is the lenient coercion used by the per-vehicle tracking
// path, where bad numerics default to zero instead of null.
func floatOrZero(value interface{}) float64 {
	f, ok := coerceFloat(value)
	if !ok {
		return 0
	}
	return f
}
