package postgres

import (
	"context"
	"database/sql"
	"time"

	"livestock-tracking/internal/domain/cattle"
)

// -------------------------
// Cattle
// -------------------------

type CattleRepo struct {
	db *sql.DB
}

func NewCattleRepo(db *sql.DB) *CattleRepo {
	return &CattleRepo{db: db}
}

const cattleColumns = `
	id, cattle_code, latitude, longitude, health_status,
	device_id, last_update, created_at, updated_at`

func (r *CattleRepo) Create(ctx context.Context, c cattle.Cattle) (int64, error) {
	var id int64
	err := executor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO cattle (
			cattle_code, latitude, longitude, health_status,
			device_id, last_update, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		c.Code,
		toNullFloat(c.Latitude),
		toNullFloat(c.Longitude),
		c.HealthStatus,
		toNullID(c.DeviceID),
		toNullTime(c.LastUpdate),
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *CattleRepo) Update(ctx context.Context, c cattle.Cattle) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE cattle
		SET
			cattle_code = $2,
			latitude = $3,
			longitude = $4,
			health_status = $5,
			device_id = $6,
			last_update = $7,
			updated_at = $8
		WHERE id = $1
	`,
		c.ID,
		c.Code,
		toNullFloat(c.Latitude),
		toNullFloat(c.Longitude),
		c.HealthStatus,
		toNullID(c.DeviceID),
		toNullTime(c.LastUpdate),
		c.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// Delete confía en ON DELETE CASCADE de cattle_metadata y sensor_data.
func (r *CattleRepo) Delete(ctx context.Context, id int64) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM cattle WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func (r *CattleRepo) GetByID(ctx context.Context, id int64) (cattle.Cattle, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+cattleColumns+` FROM cattle WHERE id = $1`, id)
	c, err := scanCattle(row)
	if err != nil {
		return cattle.Cattle{}, mapError(err)
	}
	return c, nil
}

func (r *CattleRepo) GetByCode(ctx context.Context, code string) (cattle.Cattle, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+cattleColumns+` FROM cattle WHERE cattle_code = $1`, code)
	c, err := scanCattle(row)
	if err != nil {
		return cattle.Cattle{}, mapError(err)
	}
	return c, nil
}

func (r *CattleRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cattle WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, mapError(err)
}

func (r *CattleRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cattle WHERE cattle_code = $1)`, code,
	).Scan(&exists)
	return exists, mapError(err)
}

func (r *CattleRepo) List(ctx context.Context, offset, limit int) ([]cattle.Cattle, int, error) {
	var total int
	if err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM cattle`).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	items, err := r.query(ctx, `SELECT `+cattleColumns+` FROM cattle ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *CattleRepo) ListByHealthStatus(ctx context.Context, status string) ([]cattle.Cattle, error) {
	return r.query(ctx, `SELECT `+cattleColumns+` FROM cattle WHERE health_status = $1 ORDER BY id`, status)
}

// ListWithinBounds: caja inclusiva; filas con coordenadas NULL no matchean BETWEEN.
func (r *CattleRepo) ListWithinBounds(ctx context.Context, b cattle.Bounds) ([]cattle.Cattle, error) {
	return r.query(ctx, `
		SELECT `+cattleColumns+`
		FROM cattle
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		ORDER BY id
	`, b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}

func (r *CattleRepo) ListByDevice(ctx context.Context, deviceID int64) ([]cattle.Cattle, error) {
	return r.query(ctx, `SELECT `+cattleColumns+` FROM cattle WHERE device_id = $1 ORDER BY id`, deviceID)
}

func (r *CattleRepo) query(ctx context.Context, q string, args ...any) ([]cattle.Cattle, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]cattle.Cattle, 0)
	for rows.Next() {
		c, err := scanCattle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCattle(s scanner) (cattle.Cattle, error) {
	var (
		c          cattle.Cattle
		lat, lon   sql.NullFloat64
		deviceID   sql.NullInt64
		lastUpdate sql.NullTime
	)
	if err := s.Scan(
		&c.ID,
		&c.Code,
		&lat,
		&lon,
		&c.HealthStatus,
		&deviceID,
		&lastUpdate,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return cattle.Cattle{}, err
	}
	c.Latitude = fromNullFloat(lat)
	c.Longitude = fromNullFloat(lon)
	c.DeviceID = fromNullID(deviceID)
	c.LastUpdate = fromNullTime(lastUpdate)
	return c, nil
}

// -------------------------
// Metadata
// -------------------------

type MetadataRepo struct {
	db *sql.DB
}

func NewMetadataRepo(db *sql.DB) *MetadataRepo {
	return &MetadataRepo{db: db}
}

const metadataColumns = `id, cattle_id, age, weight, breed, notes, created_at, updated_at`

func (r *MetadataRepo) GetByCattleID(ctx context.Context, cattleID int64) (cattle.Metadata, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+metadataColumns+` FROM cattle_metadata WHERE cattle_id = $1`, cattleID)
	m, err := scanMetadata(row)
	if err != nil {
		return cattle.Metadata{}, mapError(err)
	}
	return m, nil
}

func (r *MetadataRepo) Save(ctx context.Context, m cattle.Metadata) (cattle.Metadata, error) {
	q := executor(ctx, r.db)

	if m.ID == 0 {
		err := q.QueryRowContext(ctx, `
			INSERT INTO cattle_metadata (
				cattle_id, age, weight, breed, notes, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`,
			m.CattleID,
			toNullInt(m.Age),
			toNullFloat(m.Weight),
			toNullString(m.Breed),
			toNullString(m.Notes),
			m.CreatedAt,
			m.UpdatedAt,
		).Scan(&m.ID)
		if err != nil {
			return cattle.Metadata{}, mapError(err)
		}
		return m, nil
	}

	res, err := q.ExecContext(ctx, `
		UPDATE cattle_metadata
		SET
			age = $2,
			weight = $3,
			breed = $4,
			notes = $5,
			updated_at = $6
		WHERE id = $1
	`,
		m.ID,
		toNullInt(m.Age),
		toNullFloat(m.Weight),
		toNullString(m.Breed),
		toNullString(m.Notes),
		m.UpdatedAt,
	)
	if err != nil {
		return cattle.Metadata{}, mapError(err)
	}
	if err := affected(res); err != nil {
		return cattle.Metadata{}, err
	}
	return m, nil
}

func (r *MetadataRepo) ListByBreed(ctx context.Context, breed string) ([]cattle.Metadata, error) {
	return r.query(ctx, `SELECT `+metadataColumns+` FROM cattle_metadata WHERE breed = $1 ORDER BY id`, breed)
}

func (r *MetadataRepo) ListByAgeBetween(ctx context.Context, minAge, maxAge int) ([]cattle.Metadata, error) {
	return r.query(ctx, `SELECT `+metadataColumns+` FROM cattle_metadata WHERE age BETWEEN $1 AND $2 ORDER BY id`, minAge, maxAge)
}

func (r *MetadataRepo) ListByWeightGreaterThan(ctx context.Context, weight float64) ([]cattle.Metadata, error) {
	return r.query(ctx, `SELECT `+metadataColumns+` FROM cattle_metadata WHERE weight > $1 ORDER BY id`, weight)
}

func (r *MetadataRepo) query(ctx context.Context, q string, args ...any) ([]cattle.Metadata, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]cattle.Metadata, 0)
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMetadata(s scanner) (cattle.Metadata, error) {
	var (
		m            cattle.Metadata
		age          sql.NullInt64
		weight       sql.NullFloat64
		breed, notes sql.NullString
	)
	if err := s.Scan(
		&m.ID,
		&m.CattleID,
		&age,
		&weight,
		&breed,
		&notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return cattle.Metadata{}, err
	}
	m.Age = fromNullInt(age)
	m.Weight = fromNullFloat(weight)
	m.Breed = breed.String
	m.Notes = notes.String
	return m, nil
}

// -------------------------
// Sensor data
// -------------------------

type SensorDataRepo struct {
	db *sql.DB
}

func NewSensorDataRepo(db *sql.DB) *SensorDataRepo {
	return &SensorDataRepo{db: db}
}

const sensorColumns = `id, cattle_id, timestamp, stomach_temperature, peristaltic_count, created_at`

func (r *SensorDataRepo) Create(ctx context.Context, sd cattle.SensorData) (int64, error) {
	var id int64
	err := executor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO sensor_data (
			cattle_id, timestamp, stomach_temperature, peristaltic_count, created_at
		) VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`,
		sd.CattleID,
		sd.Timestamp,
		sd.StomachTemperature,
		sd.PeristalticCount,
		sd.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// ListByCattle ordena por id (= orden de inserción).
func (r *SensorDataRepo) ListByCattle(ctx context.Context, cattleID int64) ([]cattle.SensorData, error) {
	return r.query(ctx, `SELECT `+sensorColumns+` FROM sensor_data WHERE cattle_id = $1 ORDER BY id`, cattleID)
}

func (r *SensorDataRepo) ListByCattleBetween(ctx context.Context, cattleID int64, from, to time.Time) ([]cattle.SensorData, error) {
	return r.query(ctx, `
		SELECT `+sensorColumns+`
		FROM sensor_data
		WHERE cattle_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY id
	`, cattleID, from, to)
}

func (r *SensorDataRepo) query(ctx context.Context, q string, args ...any) ([]cattle.SensorData, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]cattle.SensorData, 0)
	for rows.Next() {
		var sd cattle.SensorData
		if err := rows.Scan(
			&sd.ID,
			&sd.CattleID,
			&sd.Timestamp,
			&sd.StomachTemperature,
			&sd.PeristalticCount,
			&sd.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}
