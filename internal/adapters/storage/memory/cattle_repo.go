package memory

import (
	"context"
	"sort"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/cattle"
)

// -------------------------
// Cattle
// -------------------------

type cattleRepo struct {
	s *Store
}

func NewCattleRepo(s *Store) cattle.Repository {
	return &cattleRepo{s: s}
}

func (r *cattleRepo) Create(ctx context.Context, c cattle.Cattle) (int64, error) {
	var id int64
	err := r.s.write(func(st *state) error {
		if err := checkCattle(st, c); err != nil {
			return err
		}
		st.seq.cattle++
		c.ID = st.seq.cattle
		st.cattle[c.ID] = copyCattle(c)
		id = c.ID
		return nil
	})
	return id, err
}

func (r *cattleRepo) Update(ctx context.Context, c cattle.Cattle) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.cattle[c.ID]; !ok {
			return apperr.ErrNotFound
		}
		if err := checkCattle(st, c); err != nil {
			return err
		}
		st.cattle[c.ID] = copyCattle(c)
		return nil
	})
}

// checkCattle replica las restricciones de la tabla: código único y FK a devices.
func checkCattle(st *state, c cattle.Cattle) error {
	for _, other := range st.cattle {
		if other.ID != c.ID && other.Code == c.Code {
			return apperr.ErrDuplicateKey
		}
	}
	if c.DeviceID != nil {
		if _, ok := st.devices[*c.DeviceID]; !ok {
			return apperr.ErrNotFound
		}
	}
	return nil
}

// Delete borra en cascada metadata y lecturas.
func (r *cattleRepo) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(st *state) error {
		if _, ok := st.cattle[id]; !ok {
			return apperr.ErrNotFound
		}
		delete(st.cattle, id)

		for mid, m := range st.metadata {
			if m.CattleID == id {
				delete(st.metadata, mid)
			}
		}

		kept := make([]cattle.SensorData, 0, len(st.sensors))
		for _, sd := range st.sensors {
			if sd.CattleID != id {
				kept = append(kept, sd)
			}
		}
		st.sensors = kept
		return nil
	})
}

func (r *cattleRepo) GetByID(ctx context.Context, id int64) (cattle.Cattle, error) {
	var (
		c  cattle.Cattle
		ok bool
	)
	r.s.read(func(st *state) { c, ok = st.cattle[id] })
	if !ok {
		return cattle.Cattle{}, apperr.ErrNotFound
	}
	return copyCattle(c), nil
}

func (r *cattleRepo) GetByCode(ctx context.Context, code string) (cattle.Cattle, error) {
	items := r.filter(func(c cattle.Cattle) bool { return c.Code == code })
	if len(items) == 0 {
		return cattle.Cattle{}, apperr.ErrNotFound
	}
	return items[0], nil
}

func (r *cattleRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var ok bool
	r.s.read(func(st *state) { _, ok = st.cattle[id] })
	return ok, nil
}

func (r *cattleRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return len(r.filter(func(c cattle.Cattle) bool { return c.Code == code })) > 0, nil
}

func (r *cattleRepo) List(ctx context.Context, offset, limit int) ([]cattle.Cattle, int, error) {
	all := r.filter(func(cattle.Cattle) bool { return true })
	total := len(all)
	if offset >= total {
		return []cattle.Cattle{}, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *cattleRepo) ListByHealthStatus(ctx context.Context, status string) ([]cattle.Cattle, error) {
	return r.filter(func(c cattle.Cattle) bool { return c.HealthStatus == status }), nil
}

func (r *cattleRepo) ListWithinBounds(ctx context.Context, b cattle.Bounds) ([]cattle.Cattle, error) {
	return r.filter(func(c cattle.Cattle) bool { return b.Contains(c.Latitude, c.Longitude) }), nil
}

func (r *cattleRepo) ListByDevice(ctx context.Context, deviceID int64) ([]cattle.Cattle, error) {
	return r.filter(func(c cattle.Cattle) bool {
		return c.DeviceID != nil && *c.DeviceID == deviceID
	}), nil
}

func (r *cattleRepo) filter(keep func(cattle.Cattle) bool) []cattle.Cattle {
	out := make([]cattle.Cattle, 0)
	r.s.read(func(st *state) {
		for _, c := range st.cattle {
			if keep(c) {
				out = append(out, copyCattle(c))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// -------------------------
// Metadata
// -------------------------

type metadataRepo struct {
	s *Store
}

func NewMetadataRepo(s *Store) cattle.MetadataRepository {
	return &metadataRepo{s: s}
}

func (r *metadataRepo) GetByCattleID(ctx context.Context, cattleID int64) (cattle.Metadata, error) {
	items := r.filter(func(m cattle.Metadata) bool { return m.CattleID == cattleID })
	if len(items) == 0 {
		return cattle.Metadata{}, apperr.ErrNotFound
	}
	return items[0], nil
}

func (r *metadataRepo) Save(ctx context.Context, m cattle.Metadata) (cattle.Metadata, error) {
	err := r.s.write(func(st *state) error {
		if _, ok := st.cattle[m.CattleID]; !ok {
			return apperr.ErrNotFound
		}
		for _, other := range st.metadata {
			if other.ID != m.ID && other.CattleID == m.CattleID {
				return apperr.ErrDuplicateKey
			}
		}

		if m.ID == 0 {
			st.seq.metadata++
			m.ID = st.seq.metadata
		} else if _, ok := st.metadata[m.ID]; !ok {
			return apperr.ErrNotFound
		}
		st.metadata[m.ID] = copyMetadata(m)
		return nil
	})
	if err != nil {
		return cattle.Metadata{}, err
	}
	return m, nil
}

func (r *metadataRepo) ListByBreed(ctx context.Context, breed string) ([]cattle.Metadata, error) {
	return r.filter(func(m cattle.Metadata) bool { return m.Breed == breed }), nil
}

func (r *metadataRepo) ListByAgeBetween(ctx context.Context, minAge, maxAge int) ([]cattle.Metadata, error) {
	return r.filter(func(m cattle.Metadata) bool {
		return m.Age != nil && *m.Age >= minAge && *m.Age <= maxAge
	}), nil
}

func (r *metadataRepo) ListByWeightGreaterThan(ctx context.Context, weight float64) ([]cattle.Metadata, error) {
	return r.filter(func(m cattle.Metadata) bool {
		return m.Weight != nil && *m.Weight > weight
	}), nil
}

func (r *metadataRepo) filter(keep func(cattle.Metadata) bool) []cattle.Metadata {
	out := make([]cattle.Metadata, 0)
	r.s.read(func(st *state) {
		for _, m := range st.metadata {
			if keep(m) {
				out = append(out, copyMetadata(m))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// -------------------------
// Sensor data
// -------------------------

type sensorDataRepo struct {
	s *Store
}

func NewSensorDataRepo(s *Store) cattle.SensorDataRepository {
	return &sensorDataRepo{s: s}
}

func (r *sensorDataRepo) Create(ctx context.Context, sd cattle.SensorData) (int64, error) {
	var id int64
	err := r.s.write(func(st *state) error {
		if _, ok := st.cattle[sd.CattleID]; !ok {
			return apperr.ErrNotFound
		}
		st.seq.sensors++
		sd.ID = st.seq.sensors
		st.sensors = append(st.sensors, sd)
		id = sd.ID
		return nil
	})
	return id, err
}

func (r *sensorDataRepo) ListByCattle(ctx context.Context, cattleID int64) ([]cattle.SensorData, error) {
	return r.filter(func(sd cattle.SensorData) bool { return sd.CattleID == cattleID }), nil
}

// ListByCattleBetween incluye ambos extremos.
func (r *sensorDataRepo) ListByCattleBetween(ctx context.Context, cattleID int64, from, to time.Time) ([]cattle.SensorData, error) {
	return r.filter(func(sd cattle.SensorData) bool {
		return sd.CattleID == cattleID && !sd.Timestamp.Before(from) && !sd.Timestamp.After(to)
	}), nil
}

func (r *sensorDataRepo) filter(keep func(cattle.SensorData) bool) []cattle.SensorData {
	out := make([]cattle.SensorData, 0)
	r.s.read(func(st *state) {
		for _, sd := range st.sensors {
			if keep(sd) {
				out = append(out, sd)
			}
		}
	})
	return out
}
