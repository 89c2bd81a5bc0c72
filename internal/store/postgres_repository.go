package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL implementation of Store.
type PostgresStore struct {
	pool *pgxpool.Pool

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	seed := uint64(time.Now().UnixNano())
	return &PostgresStore{
		pool: pool,
		rnd:  rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

const locationColumns = `id, city, state, country, latitude, longitude, created_at`

func scanLocation(row pgx.Row) (*Location, error) {
	var loc Location
	err := row.Scan(&loc.ID, &loc.City, &loc.State, &loc.Country, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return &loc, nil
}

func collectLocations(rows pgx.Rows) ([]Location, error) {
	defer rows.Close()

	locations := []Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}

// CreateLocation inserts a new location.
func (r *PostgresStore) CreateLocation(ctx context.Context, loc Location) (*Location, error) {
	if err := validateLocation(&loc); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO locations (city, state, country, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + locationColumns

	return scanLocation(r.pool.QueryRow(ctx, query, loc.City, loc.State, loc.Country, loc.Latitude, loc.Longitude))
}

// GetLocation retrieves a location by id.
func (r *PostgresStore) GetLocation(ctx context.Context, id int64) (*Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	return scanLocation(r.pool.QueryRow(ctx, query, id))
}

// GetLocationByCoordinates finds the first location within tolerance degrees.
func (r *PostgresStore) GetLocationByCoordinates(ctx context.Context, lat, lon, tolerance float64) (*Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE sqrt(power(latitude - $1, 2) + power(longitude - $2, 2)) < $3
		ORDER BY id
		LIMIT 1
	`
	return scanLocation(r.pool.QueryRow(ctx, query, lat, lon, tolerance))
}

// ListLocations returns all locations in insertion order.
func (r *PostgresStore) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+locationColumns+` FROM locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// FindLocations performs a case-insensitive substring search.
func (r *PostgresStore) FindLocations(ctx context.Context, query string) ([]Location, error) {
	return r.findLocations(ctx, r.pool, query)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresStore) findLocations(ctx context.Context, q querier, query string) ([]Location, error) {
	sql := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE strpos(lower(city), lower($1)) > 0
		   OR strpos(lower(state), lower($1)) > 0
		   OR strpos(lower(country), lower($1)) > 0
		ORDER BY id
	`
	rows, err := q.Query(ctx, sql, query)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// SearchLocations searches and synthesizes a location on a miss. The lookup
// and insert share a transaction guarded by an advisory lock so concurrent
// misses for the same query create a single row.
func (r *PostgresStore) SearchLocations(ctx context.Context, query string) ([]Location, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('locations_search'))`); err != nil {
		return nil, fmt.Errorf("lock locations: %w", err)
	}

	results, err := r.findLocations(ctx, tx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, tx.Commit(ctx)
	}

	r.rndMu.Lock()
	loc := synthesizeLocation(query, r.rnd)
	r.rndMu.Unlock()

	insert := `
		INSERT INTO locations (city, state, country, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + locationColumns
	created, err := scanLocation(tx.QueryRow(ctx, insert, loc.City, loc.State, loc.Country, loc.Latitude, loc.Longitude))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return []Location{*created}, nil
}

const readingColumns = `id, location_id, aqi, level, primary_pollutant, pm25, pm10, o3, no2, so2, co, timestamp`

func scanReading(row pgx.Row) (*AqiReading, error) {
	var rd AqiReading
	err := row.Scan(
		&rd.ID,
		&rd.LocationID,
		&rd.AQI,
		&rd.Level,
		&rd.PrimaryPollutant,
		&rd.Pollutants.PM25,
		&rd.Pollutants.PM10,
		&rd.Pollutants.O3,
		&rd.Pollutants.NO2,
		&rd.Pollutants.SO2,
		&rd.Pollutants.CO,
		&rd.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReadingNotFound
		}
		return nil, err
	}
	return &rd, nil
}

// CreateAqiReading inserts a new reading.
func (r *PostgresStore) CreateAqiReading(ctx context.Context, rd AqiReading) (*AqiReading, error) {
	query := `
		INSERT INTO aqi_readings (location_id, aqi, level, primary_pollutant, pm25, pm10, o3, no2, so2, co)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + readingColumns

	p := rd.Pollutants
	return scanReading(r.pool.QueryRow(ctx, query,
		rd.LocationID, rd.AQI, rd.Level, rd.PrimaryPollutant,
		p.PM25, p.PM10, p.O3, p.NO2, p.SO2, p.CO,
	))
}

// GetLatestAqiReading returns the most recent reading for a location.
func (r *PostgresStore) GetLatestAqiReading(ctx context.Context, locationID int64) (*AqiReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM aqi_readings
		WHERE location_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	return scanReading(r.pool.QueryRow(ctx, query, locationID))
}

// GetAqiHistory returns up to limit readings, newest first.
func (r *PostgresStore) GetAqiHistory(ctx context.Context, locationID int64, limit int) ([]AqiReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM aqi_readings
		WHERE location_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, locationID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []AqiReading{}
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

const weatherColumns = `id, location_id, temperature, humidity, wind_speed, visibility, description, icon, timestamp`

func scanWeather(row pgx.Row) (*WeatherSnapshot, error) {
	var w WeatherSnapshot
	err := row.Scan(&w.ID, &w.LocationID, &w.Temperature, &w.Humidity, &w.WindSpeed, &w.Visibility, &w.Description, &w.Icon, &w.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWeatherNotFound
		}
		return nil, err
	}
	return &w, nil
}

// CreateWeatherSnapshot inserts a new weather snapshot.
func (r *PostgresStore) CreateWeatherSnapshot(ctx context.Context, w WeatherSnapshot) (*WeatherSnapshot, error) {
	query := `
		INSERT INTO weather_snapshots (location_id, temperature, humidity, wind_speed, visibility, description, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + weatherColumns

	return scanWeather(r.pool.QueryRow(ctx, query,
		w.LocationID, w.Temperature, w.Humidity, w.WindSpeed, w.Visibility, w.Description, w.Icon,
	))
}

// GetLatestWeatherSnapshot returns the most recent snapshot for a location.
func (r *PostgresStore) GetLatestWeatherSnapshot(ctx context.Context, locationID int64) (*WeatherSnapshot, error) {
	query := `
		SELECT ` + weatherColumns + `
		FROM weather_snapshots
		WHERE location_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`
	return scanWeather(r.pool.QueryRow(ctx, query, locationID))
}

const alertColumns = `id, threshold, email_notifications, push_notifications, daily_summary, created_at`

func scanAlertPreference(row pgx.Row) (*AlertPreference, error) {
	var p AlertPreference
	err := row.Scan(&p.ID, &p.Threshold, &p.EmailNotifications, &p.PushNotifications, &p.DailySummary, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertPreferenceNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetAlertPreference returns the single stored preference.
func (r *PostgresStore) GetAlertPreference(ctx context.Context) (*AlertPreference, error) {
	query := `SELECT ` + alertColumns + ` FROM alert_preferences ORDER BY id LIMIT 1`
	return scanAlertPreference(r.pool.QueryRow(ctx, query))
}

// GetOrDefaultAlertPreference returns the stored preference or defaults.
func (r *PostgresStore) GetOrDefaultAlertPreference(ctx context.Context) (*AlertPreference, error) {
	pref, err := r.GetAlertPreference(ctx)
	if errors.Is(err, ErrAlertPreferenceNotFound) {
		def := DefaultAlertPreference()
		return &def, nil
	}
	return pref, err
}

// UpsertAlertPreference merges u into the singleton record inside a transaction.
func (r *PostgresStore) UpsertAlertPreference(ctx context.Context, u AlertPreferenceUpdate) (*AlertPreference, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `LOCK TABLE alert_preferences IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock alert preferences: %w", err)
	}

	current, err := scanAlertPreference(tx.QueryRow(ctx, `SELECT `+alertColumns+` FROM alert_preferences ORDER BY id LIMIT 1`))
	switch {
	case errors.Is(err, ErrAlertPreferenceNotFound):
		def := DefaultAlertPreference()
		u.Apply(&def)
		current, err = scanAlertPreference(tx.QueryRow(ctx, `
			INSERT INTO alert_preferences (threshold, email_notifications, push_notifications, daily_summary)
			VALUES ($1, $2, $3, $4)
			RETURNING `+alertColumns,
			def.Threshold, def.EmailNotifications, def.PushNotifications, def.DailySummary,
		))
	case err == nil:
		u.Apply(current)
		current, err = scanAlertPreference(tx.QueryRow(ctx, `
			UPDATE alert_preferences SET
				threshold = $2,
				email_notifications = $3,
				push_notifications = $4,
				daily_summary = $5
			WHERE id = $1
			RETURNING `+alertColumns,
			current.ID, current.Threshold, current.EmailNotifications, current.PushNotifications, current.DailySummary,
		))
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return current, nil
}

const forecastColumns = `id, location_id, hour, predicted_aqi, predicted_level, timestamp`

func scanForecastPoint(row pgx.Row) (*ForecastPoint, error) {
	var p ForecastPoint
	if err := row.Scan(&p.ID, &p.LocationID, &p.Hour, &p.PredictedAQI, &p.PredictedLevel, &p.Timestamp); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetForecast returns the forecast ordered by hour.
func (r *PostgresStore) GetForecast(ctx context.Context, locationID int64) ([]ForecastPoint, error) {
	query := `SELECT ` + forecastColumns + ` FROM forecast_points WHERE location_id = $1 ORDER BY hour, id`
	rows, err := r.pool.Query(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []ForecastPoint{}
	for rows.Next() {
		p, err := scanForecastPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

const insertForecastPoint = `
	INSERT INTO forecast_points (location_id, hour, predicted_aqi, predicted_level)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + forecastColumns

// CreateForecastPoint inserts a single forecast point.
func (r *PostgresStore) CreateForecastPoint(ctx context.Context, p ForecastPoint) (*ForecastPoint, error) {
	if err := validateForecastPoint(p); err != nil {
		return nil, err
	}
	return scanForecastPoint(r.pool.QueryRow(ctx, insertForecastPoint, p.LocationID, p.Hour, p.PredictedAQI, p.PredictedLevel))
}

// ClearForecast deletes all forecast points for a location.
func (r *PostgresStore) ClearForecast(ctx context.Context, locationID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM forecast_points WHERE location_id = $1`, locationID)
	return err
}

// ReplaceForecast swaps the location's forecast for points in one transaction.
func (r *PostgresStore) ReplaceForecast(ctx context.Context, locationID int64, points []ForecastPoint) ([]ForecastPoint, error) {
	for _, p := range points {
		if err := validateForecastPoint(p); err != nil {
			return nil, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM forecast_points WHERE location_id = $1`, locationID); err != nil {
		return nil, err
	}

	out := make([]ForecastPoint, 0, len(points))
	for _, p := range points {
		created, err := scanForecastPoint(tx.QueryRow(ctx, insertForecastPoint, locationID, p.Hour, p.PredictedAQI, p.PredictedLevel))
		if err != nil {
			return nil, err
		}
		out = append(out, *created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

// Ping checks database connectivity.
func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *PostgresStore) Close() {
	r.pool.Close()
}

// Ensure PostgresStore implements Store interface.
var _ Store = (*PostgresStore)(nil)
