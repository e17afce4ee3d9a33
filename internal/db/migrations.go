package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate VARCHAR(10) NOT NULL,
		model VARCHAR(50) NOT NULL,
		device_id VARCHAR(50) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		manufacturer TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_plate ON vehicles (plate);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_device_id ON vehicles (device_id);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_updated_at ON vehicles (updated_at);`,
	`CREATE TABLE IF NOT EXISTS gps_points (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID REFERENCES vehicles(id) ON DELETE CASCADE,
		device_id VARCHAR(50) NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		speed DOUBLE PRECISION,
		direction DOUBLE PRECISION,
		altitude DOUBLE PRECISION,
		satellites INTEGER,
		ignition BOOLEAN,
		main_battery DOUBLE PRECISION,
		backup_battery DOUBLE PRECISION,
		odometer DOUBLE PRECISION,
		horimeter DOUBLE PRECISION,
		timestamp TIMESTAMPTZ NOT NULL,
		raw_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_gps_points_vehicle_id ON gps_points (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_gps_points_device_id ON gps_points (device_id);`,
	`CREATE INDEX IF NOT EXISTS idx_gps_points_timestamp ON gps_points (timestamp);`,
	`CREATE TABLE IF NOT EXISTS upload_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		filename TEXT NOT NULL,
		records_processed INTEGER NOT NULL,
		records_skipped INTEGER NOT NULL DEFAULT 0,
		file_size BIGINT,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_upload_history_uploaded_at ON upload_history (uploaded_at);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(50) NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (username);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
