package postgres

import (
	"context"
	"database/sql"

	"livestock-tracking/internal/domain/devices"
)

type DevicesRepo struct {
	db *sql.DB
}

func NewDevicesRepo(db *sql.DB) *DevicesRepo {
	return &DevicesRepo{db: db}
}

const deviceColumns = `
	id, device_code, device_type, status,
	last_online, battery_level, firmware_version,
	created_at, updated_at`

func (r *DevicesRepo) Create(ctx context.Context, d devices.Device) (int64, error) {
	var id int64
	err := executor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO devices (
			device_code, device_type, status,
			last_online, battery_level, firmware_version,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		d.Code,
		d.Type,
		d.Status,
		toNullTime(d.LastOnline),
		toNullInt(d.BatteryLevel),
		toNullString(d.FirmwareVersion),
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *DevicesRepo) Update(ctx context.Context, d devices.Device) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `
		UPDATE devices
		SET
			device_code = $2,
			device_type = $3,
			status = $4,
			last_online = $5,
			battery_level = $6,
			firmware_version = $7,
			updated_at = $8
		WHERE id = $1
	`,
		d.ID,
		d.Code,
		d.Type,
		d.Status,
		toNullTime(d.LastOnline),
		toNullInt(d.BatteryLevel),
		toNullString(d.FirmwareVersion),
		d.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// Delete confía en ON DELETE SET NULL de cattle.device_id.
func (r *DevicesRepo) Delete(ctx context.Context, id int64) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func (r *DevicesRepo) GetByID(ctx context.Context, id int64) (devices.Device, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id)
	d, err := scanDevice(row)
	if err != nil {
		return devices.Device{}, mapError(err)
	}
	return d, nil
}

func (r *DevicesRepo) GetByCode(ctx context.Context, code string) (devices.Device, error) {
	row := executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE device_code = $1`, code)
	d, err := scanDevice(row)
	if err != nil {
		return devices.Device{}, mapError(err)
	}
	return d, nil
}

func (r *DevicesRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM devices WHERE device_code = $1)`, code,
	).Scan(&exists)
	return exists, mapError(err)
}

func (r *DevicesRepo) List(ctx context.Context) ([]devices.Device, error) {
	return r.query(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
}

func (r *DevicesRepo) ListByStatus(ctx context.Context, status string) ([]devices.Device, error) {
	return r.query(ctx, `SELECT `+deviceColumns+` FROM devices WHERE status = $1 ORDER BY id`, status)
}

func (r *DevicesRepo) ListByType(ctx context.Context, deviceType string) ([]devices.Device, error) {
	return r.query(ctx, `SELECT `+deviceColumns+` FROM devices WHERE device_type = $1 ORDER BY id`, deviceType)
}

func (r *DevicesRepo) ListBatteryBelow(ctx context.Context, level int) ([]devices.Device, error) {
	return r.query(ctx, `SELECT `+deviceColumns+` FROM devices WHERE battery_level < $1 ORDER BY id`, level)
}

func (r *DevicesRepo) query(ctx context.Context, q string, args ...any) ([]devices.Device, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]devices.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDevice(s scanner) (devices.Device, error) {
	var (
		d        devices.Device
		online   sql.NullTime
		battery  sql.NullInt64
		firmware sql.NullString
	)
	if err := s.Scan(
		&d.ID,
		&d.Code,
		&d.Type,
		&d.Status,
		&online,
		&battery,
		&firmware,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return devices.Device{}, err
	}
	d.LastOnline = fromNullTime(online)
	d.BatteryLevel = fromNullInt(battery)
	d.FirmwareVersion = firmware.String
	return d, nil
}
