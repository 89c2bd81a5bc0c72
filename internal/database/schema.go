package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema contains the PostgreSQL table definitions for the dashboard store.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id         BIGSERIAL PRIMARY KEY,
	city       TEXT NOT NULL,
	state      TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT 'India',
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS aqi_readings (
	id                BIGSERIAL PRIMARY KEY,
	location_id       BIGINT NOT NULL,
	aqi               INTEGER NOT NULL,
	level             TEXT NOT NULL,
	primary_pollutant TEXT NOT NULL,
	pm25              DOUBLE PRECISION NOT NULL DEFAULT 0,
	pm10              DOUBLE PRECISION NOT NULL DEFAULT 0,
	o3                DOUBLE PRECISION NOT NULL DEFAULT 0,
	no2               DOUBLE PRECISION NOT NULL DEFAULT 0,
	so2               DOUBLE PRECISION NOT NULL DEFAULT 0,
	co                DOUBLE PRECISION NOT NULL DEFAULT 0,
	timestamp         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_aqi_readings_location_time ON aqi_readings(location_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS weather_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	location_id BIGINT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	humidity    INTEGER NOT NULL,
	wind_speed  DOUBLE PRECISION NOT NULL,
	visibility  DOUBLE PRECISION NOT NULL,
	description TEXT NOT NULL,
	icon        TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_weather_snapshots_location_time ON weather_snapshots(location_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS forecast_points (
	id              BIGSERIAL PRIMARY KEY,
	location_id     BIGINT NOT NULL,
	hour            INTEGER NOT NULL CHECK (hour >= 0 AND hour < 48),
	predicted_aqi   INTEGER NOT NULL,
	predicted_level TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_forecast_points_location_hour ON forecast_points(location_id, hour);

CREATE TABLE IF NOT EXISTS alert_preferences (
	id                  BIGSERIAL PRIMARY KEY,
	threshold           INTEGER NOT NULL DEFAULT 100,
	email_notifications BOOLEAN NOT NULL DEFAULT TRUE,
	push_notifications  BOOLEAN NOT NULL DEFAULT FALSE,
	daily_summary       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS feature_flags (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the store tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
