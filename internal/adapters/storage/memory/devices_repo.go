package memory

import (
	"context"
	"sort"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/devices"
)

type deviceRepo struct {
	s *Store
}

func NewDeviceRepo(s *Store) devices.Repository {
	return &deviceRepo{s: s}
}

func (r *deviceRepo) Create(ctx context.Context, d devices.Device) (int64, error) {
	var id int64
	err := r.s.write(func(st *state) error {
		for _, other := range st.devices {
			if other.Code == d.Code {
				return apperr.ErrDuplicateKey
			}
		}
		st.seq.devices++
		d.ID = st.seq.devices
		st.devices[d.ID] = copyDevice(d)
		id = d.ID
		return nil
	})
	return id, err
}

func (r *deviceRepo) Update(ctx context.Context, d devices.Device) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.devices[d.ID]; !ok {
			return apperr.ErrNotFound
		}
		for _, other := range st.devices {
			if other.ID != d.ID && other.Code == d.Code {
				return apperr.ErrDuplicateKey
			}
		}
		st.devices[d.ID] = copyDevice(d)
		return nil
	})
}

// Delete equivale a ON DELETE SET NULL sobre cattle.device_id.
func (r *deviceRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.devices[id]; !ok {
			return apperr.ErrNotFound
		}
		delete(st.devices, id)

		for cid, c := range st.cattle {
			if c.DeviceID != nil && *c.DeviceID == id {
				c.DeviceID = nil
				st.cattle[cid] = c
			}
		}
		return nil
	})
}

func (r *deviceRepo) GetByID(ctx context.Context, id int64) (devices.Device, error) {
	var (
		d  devices.Device
		ok bool
	)
	r.s.read(func(st *state) { d, ok = st.devices[id] })
	if !ok {
		return devices.Device{}, apperr.ErrNotFound
	}
	return copyDevice(d), nil
}

func (r *deviceRepo) GetByCode(ctx context.Context, code string) (devices.Device, error) {
	items := r.filter(func(d devices.Device) bool { return d.Code == code })
	if len(items) == 0 {
		return devices.Device{}, apperr.ErrNotFound
	}
	return items[0], nil
}

func (r *deviceRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return len(r.filter(func(d devices.Device) bool { return d.Code == code })) > 0, nil
}

func (r *deviceRepo) List(ctx context.Context) ([]devices.Device, error) {
	return r.filter(func(devices.Device) bool { return true }), nil
}

func (r *deviceRepo) ListByStatus(ctx context.Context, status string) ([]devices.Device, error) {
	return r.filter(func(d devices.Device) bool { return d.Status == status }), nil
}

func (r *deviceRepo) ListByType(ctx context.Context, deviceType string) ([]devices.Device, error) {
	return r.filter(func(d devices.Device) bool { return d.Type == deviceType }), nil
}

func (r *deviceRepo) ListBatteryBelow(ctx context.Context, level int) ([]devices.Device, error) {
	return r.filter(func(d devices.Device) bool {
		return d.BatteryLevel != nil && *d.BatteryLevel < level
	}), nil
}

// filter devuelve las filas que cumplen keep, ordenadas por id.
func (r *deviceRepo) filter(keep func(devices.Device) bool) []devices.Device {
	out := make([]devices.Device, 0)
	r.s.read(func(st *state) {
		for _, d := range st.devices {
			if keep(d) {
				out = append(out, copyDevice(d))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
