package cattle

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type fakeStore struct {
	nextID   int64
	cattle   map[int64]Cattle
	meta     map[int64]Metadata // por cattle_id
	readings []SensorData
	devices  map[int64]devices.Device
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cattle:  map[int64]Cattle{},
		meta:    map[int64]Metadata{},
		devices: map[int64]devices.Device{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// cattle repo

type fakeCattleRepo struct{ s *fakeStore }

func (r fakeCattleRepo) Create(ctx context.Context, c Cattle) (int64, error) {
	for _, other := range r.s.cattle {
		if other.Code == c.Code {
			return 0, apperr.ErrDuplicateKey
		}
	}
	c.ID = r.s.id()
	r.s.cattle[c.ID] = c
	return c.ID, nil
}

func (r fakeCattleRepo) Update(ctx context.Context, c Cattle) error {
	if _, ok := r.s.cattle[c.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.s.cattle[c.ID] = c
	return nil
}

func (r fakeCattleRepo) Delete(ctx context.Context, id int64) error {
	delete(r.s.cattle, id)
	delete(r.s.meta, id)
	kept := r.s.readings[:0]
	for _, sd := range r.s.readings {
		if sd.CattleID != id {
			kept = append(kept, sd)
		}
	}
	r.s.readings = kept
	return nil
}

func (r fakeCattleRepo) GetByID(ctx context.Context, id int64) (Cattle, error) {
	c, ok := r.s.cattle[id]
	if !ok {
		return Cattle{}, apperr.ErrNotFound
	}
	return c, nil
}

func (r fakeCattleRepo) GetByCode(ctx context.Context, code string) (Cattle, error) {
	for _, c := range r.s.cattle {
		if c.Code == code {
			return c, nil
		}
	}
	return Cattle{}, apperr.ErrNotFound
}

func (r fakeCattleRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	_, ok := r.s.cattle[id]
	return ok, nil
}

func (r fakeCattleRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

func (r fakeCattleRepo) sorted(keep func(Cattle) bool) []Cattle {
	out := make([]Cattle, 0)
	for _, c := range r.s.cattle {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeCattleRepo) List(ctx context.Context, offset, limit int) ([]Cattle, int, error) {
	all := r.sorted(func(Cattle) bool { return true })
	if offset >= len(all) {
		return []Cattle{}, len(all), nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], len(all), nil
}

func (r fakeCattleRepo) ListByHealthStatus(ctx context.Context, status string) ([]Cattle, error) {
	return r.sorted(func(c Cattle) bool { return c.HealthStatus == status }), nil
}

func (r fakeCattleRepo) ListWithinBounds(ctx context.Context, b Bounds) ([]Cattle, error) {
	return r.sorted(func(c Cattle) bool { return b.Contains(c.Latitude, c.Longitude) }), nil
}

func (r fakeCattleRepo) ListByDevice(ctx context.Context, deviceID int64) ([]Cattle, error) {
	return r.sorted(func(c Cattle) bool { return c.DeviceID != nil && *c.DeviceID == deviceID }), nil
}

// metadata repo

type fakeMetaRepo struct{ s *fakeStore }

func (r fakeMetaRepo) GetByCattleID(ctx context.Context, cattleID int64) (Metadata, error) {
	m, ok := r.s.meta[cattleID]
	if !ok {
		return Metadata{}, apperr.ErrNotFound
	}
	return m, nil
}

func (r fakeMetaRepo) Save(ctx context.Context, m Metadata) (Metadata, error) {
	if m.ID == 0 {
		if _, exists := r.s.meta[m.CattleID]; exists {
			return Metadata{}, apperr.ErrDuplicateKey
		}
		m.ID = r.s.id()
	}
	r.s.meta[m.CattleID] = m
	return m, nil
}

func (r fakeMetaRepo) filter(keep func(Metadata) bool) []Metadata {
	out := make([]Metadata, 0)
	for _, m := range r.s.meta {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeMetaRepo) ListByBreed(ctx context.Context, breed string) ([]Metadata, error) {
	return r.filter(func(m Metadata) bool { return m.Breed == breed }), nil
}

func (r fakeMetaRepo) ListByAgeBetween(ctx context.Context, minAge, maxAge int) ([]Metadata, error) {
	return r.filter(func(m Metadata) bool { return m.Age != nil && *m.Age >= minAge && *m.Age <= maxAge }), nil
}

func (r fakeMetaRepo) ListByWeightGreaterThan(ctx context.Context, weight float64) ([]Metadata, error) {
	return r.filter(func(m Metadata) bool { return m.Weight != nil && *m.Weight > weight }), nil
}

// sensor repo

type fakeSensorRepo struct{ s *fakeStore }

func (r fakeSensorRepo) Create(ctx context.Context, sd SensorData) (int64, error) {
	sd.ID = r.s.id()
	r.s.readings = append(r.s.readings, sd)
	return sd.ID, nil
}

func (r fakeSensorRepo) ListByCattle(ctx context.Context, cattleID int64) ([]SensorData, error) {
	out := make([]SensorData, 0)
	for _, sd := range r.s.readings {
		if sd.CattleID == cattleID {
			out = append(out, sd)
		}
	}
	return out, nil
}

func (r fakeSensorRepo) ListByCattleBetween(ctx context.Context, cattleID int64, from, to time.Time) ([]SensorData, error) {
	out := make([]SensorData, 0)
	for _, sd := range r.s.readings {
		if sd.CattleID == cattleID && !sd.Timestamp.Before(from) && !sd.Timestamp.After(to) {
			out = append(out, sd)
		}
	}
	return out, nil
}

// devices

type fakeDevices struct{ s *fakeStore }

func (d fakeDevices) Find(ctx context.Context, id int64) (devices.Device, error) {
	dev, ok := d.s.devices[id]
	if !ok {
		return devices.Device{}, apperr.NotFound("Device", "id", id)
	}
	return dev, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(now time.Time) (*Service, *fakeStore) {
	st := newFakeStore()
	svc := NewService(
		fakeCattleRepo{st},
		fakeMetaRepo{st},
		fakeSensorRepo{st},
		fakeDevices{st},
		passthroughTx{},
		logger.Nop(),
	)
	svc.now = func() time.Time { return now }
	return svc, st
}

func (f *fakeStore) addDevice(code, typ string) int64 {
	id := f.id()
	f.devices[id] = devices.Device{ID: id, Code: code, Type: typ, Status: devices.StatusActive}
	return id
}

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }
func i64(v int64) *int64     { return &v }

// -------------------------
// Tests
// -------------------------

func TestService_Create_ExampleScenario(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(now)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, "A1B2C3", c.Code)
	assert.Equal(t, HealthyStatus, c.HealthStatus)
	assert.Nil(t, c.DeviceID)
	assert.Nil(t, c.DeviceInfo)
	assert.Nil(t, c.Metadata)
	assert.NotNil(t, c.SensorData)
	assert.Empty(t, c.SensorData)
	require.NotNil(t, c.LastUpdate)
	assert.Equal(t, now, *c.LastUpdate)

	sd, err := svc.AddSensorData(ctx, c.ID, SensorDataInput{
		StomachTemperature: f64(38.5),
		PeristalticCount:   iptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, now, sd.Timestamp)

	readings, err := svc.ListSensorData(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 38.5, readings[0].StomachTemperature)
	assert.Equal(t, 4, readings[0].PeristalticCount)
	assert.Equal(t, c.ID, readings[0].CattleID)
	assert.False(t, readings[0].Timestamp.IsZero())
}

func TestService_Create_WithDeviceMetadataAndReadings(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, st := newTestService(now)
	devID := st.addDevice("CAP-001", "rumen_capsule")
	earlier := now.Add(-time.Hour)

	c, err := svc.Create(context.Background(), Input{
		Code:         "COW001",
		Latitude:     f64(-34.6),
		Longitude:    f64(-58.4),
		HealthStatus: "sick",
		DeviceID:     i64(devID),
		Metadata:     &MetadataInput{Age: iptr(3), Weight: f64(420.5), Breed: "Angus"},
		SensorData: []SensorDataInput{
			{Timestamp: &earlier, StomachTemperature: f64(39.1), PeristalticCount: iptr(3)},
			{StomachTemperature: f64(39.4), PeristalticCount: iptr(5)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "sick", c.HealthStatus)
	require.NotNil(t, c.DeviceInfo)
	assert.Equal(t, "CAP-001 (rumen_capsule)", *c.DeviceInfo)
	require.NotNil(t, c.Metadata)
	assert.Equal(t, c.ID, c.Metadata.CattleID)
	assert.Equal(t, "Angus", c.Metadata.Breed)
	require.Len(t, c.SensorData, 2)
	assert.Equal(t, earlier, c.SensorData[0].Timestamp)
	assert.Equal(t, now, c.SensorData[1].Timestamp)
	assert.Len(t, st.readings, 2)
}

func TestService_Create_DuplicateCode_LeavesStoreUnchanged(t *testing.T) {
	svc, st := newTestService(time.Now())

	_, err := svc.Create(context.Background(), Input{Code: "A1B2C3"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Input{Code: "A1B2C3", HealthStatus: "sick"})
	require.Error(t, err)

	var dup *apperr.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Cattle", dup.Resource)
	assert.Equal(t, "cattle_code", dup.Field)
	assert.Len(t, st.cattle, 1)
}

func TestService_Create_UnknownDevice(t *testing.T) {
	svc, st := newTestService(time.Now())

	_, err := svc.Create(context.Background(), Input{Code: "A1B2C3", DeviceID: i64(99)})
	require.Error(t, err)

	var nf *apperr.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Device", nf.Resource)
	assert.Empty(t, st.cattle)
}

func TestService_Create_InvalidCode(t *testing.T) {
	svc, st := newTestService(time.Now())

	_, err := svc.Create(context.Background(), Input{Code: "a1-b2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Empty(t, st.cattle)
}

func TestService_GetByID_NotFoundAndIdempotent(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	_, err := svc.GetByID(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, "Cattle not found with id : '42'", err.Error())

	created, err := svc.Create(ctx, Input{Code: "A1B2C3", Latitude: f64(1.5), Longitude: f64(2.5)})
	require.NoError(t, err)

	first, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	second, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, created, first)

	byCode, err := svc.GetByCode(ctx, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, first, byCode)
}

func TestService_GetWithSensorData(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.AddSensorData(ctx, c.ID, SensorDataInput{StomachTemperature: f64(38 + float64(i)/10), PeristalticCount: iptr(i)})
		require.NoError(t, err)
	}

	plain, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, plain.SensorData)

	full, err := svc.GetWithSensorData(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, full.SensorData, 3)
	assert.Equal(t, 0, full.SensorData[0].PeristalticCount)
	assert.Equal(t, 2, full.SensorData[2].PeristalticCount)
}

func TestService_List_Pagination(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	for _, code := range []string{"AAA", "BBB", "CCC", "DDD", "EEE"} {
		_, err := svc.Create(ctx, Input{Code: code})
		require.NoError(t, err)
	}

	p, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 2, p.Size)
	require.Len(t, p.Items, 2)
	assert.Equal(t, "CCC", p.Items[0].Code)
	assert.Equal(t, "DDD", p.Items[1].Code)

	p, err = svc.List(ctx, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.Len(t, p.Items, 5)

	p, err = svc.List(ctx, 0, 10_000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, p.Size)

	p, err = svc.List(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Equal(t, 5, p.Total)
}

func TestService_ListByHealthStatus(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	_, _ = svc.Create(ctx, Input{Code: "AAA"})
	_, _ = svc.Create(ctx, Input{Code: "BBB", HealthStatus: "sick"})
	_, _ = svc.Create(ctx, Input{Code: "CCC", HealthStatus: "sick"})

	sick, err := svc.ListByHealthStatus(ctx, "sick")
	require.NoError(t, err)
	require.Len(t, sick, 2)
	assert.Equal(t, "BBB", sick[0].Code)

	none, err := svc.ListByHealthStatus(ctx, "quarantine")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestService_ListWithinBounds_InclusiveAxisAlignedBox(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	_, _ = svc.Create(ctx, Input{Code: "EDGE", Latitude: f64(10), Longitude: f64(20)})
	_, _ = svc.Create(ctx, Input{Code: "INSIDE", Latitude: f64(10.5), Longitude: f64(20.5)})
	// dentro del radio pero fuera de la caja en longitud
	_, _ = svc.Create(ctx, Input{Code: "OUTSIDE", Latitude: f64(10.5), Longitude: f64(21.01)})
	_, _ = svc.Create(ctx, Input{Code: "NOGPS"})

	got, err := svc.ListWithinBounds(ctx, Bounds{LatMin: 10, LatMax: 11, LonMin: 20, LonMax: 21})
	require.NoError(t, err)

	codes := make([]string, 0, len(got))
	for _, c := range got {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"EDGE", "INSIDE"}, codes)

	_, err = svc.ListWithinBounds(ctx, Bounds{LatMin: 11, LatMax: 10, LonMin: 20, LonMax: 21})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestService_Update_FullReplace(t *testing.T) {
	t0 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, st := newTestService(t0)
	ctx := context.Background()
	devID := st.addDevice("CAP-001", "rumen_capsule")

	c, err := svc.Create(ctx, Input{Code: "A1B2C3", Latitude: f64(1), Longitude: f64(2), HealthStatus: "sick", DeviceID: i64(devID)})
	require.NoError(t, err)
	other, err := svc.Create(ctx, Input{Code: "ZZZ999"})
	require.NoError(t, err)

	// colisión con otro registro
	_, err = svc.Update(ctx, c.ID, Input{Code: other.Code})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))

	// device inexistente
	_, err = svc.Update(ctx, c.ID, Input{Code: "A1B2C3", DeviceID: i64(777)})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	t1 := t0.Add(time.Hour)
	svc.now = func() time.Time { return t1 }

	updated, err := svc.Update(ctx, c.ID, Input{Code: "NEW001"})
	require.NoError(t, err)
	assert.Equal(t, "NEW001", updated.Code)
	assert.Nil(t, updated.Latitude)
	assert.Nil(t, updated.DeviceID)
	assert.Nil(t, updated.DeviceInfo)
	assert.Equal(t, HealthyStatus, updated.HealthStatus)
	assert.Equal(t, t0, updated.CreatedAt)
	assert.Equal(t, t1, updated.UpdatedAt)
	require.NotNil(t, updated.LastUpdate)
	assert.Equal(t, t1, *updated.LastUpdate)

	_, err = svc.Update(ctx, 999, Input{Code: "ABC"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_NarrowUpdates(t *testing.T) {
	t0 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t0)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	svc.now = func() time.Time { return t1 }
	loc, err := svc.UpdateLocation(ctx, c.ID, LocationInput{Latitude: f64(-31.4), Longitude: f64(-64.2)})
	require.NoError(t, err)
	assert.Equal(t, -31.4, *loc.Latitude)
	assert.Equal(t, -64.2, *loc.Longitude)
	assert.Equal(t, t1, *loc.LastUpdate)

	t2 := t1.Add(time.Minute)
	svc.now = func() time.Time { return t2 }
	hs, err := svc.UpdateHealthStatus(ctx, c.ID, HealthStatusInput{HealthStatus: "under_observation"})
	require.NoError(t, err)
	assert.Equal(t, "under_observation", hs.HealthStatus)
	assert.Equal(t, -31.4, *hs.Latitude)
	assert.Equal(t, t2, *hs.LastUpdate)

	_, err = svc.UpdateLocation(ctx, c.ID, LocationInput{Latitude: f64(95), Longitude: f64(0)})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.UpdateHealthStatus(ctx, 404, HealthStatusInput{HealthStatus: "sick"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_Delete_Cascades(t *testing.T) {
	svc, st := newTestService(time.Now())
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3", Metadata: &MetadataInput{Breed: "Hereford"}})
	require.NoError(t, err)
	_, err = svc.AddSensorData(ctx, c.ID, SensorDataInput{StomachTemperature: f64(38.5), PeristalticCount: iptr(4)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.Empty(t, st.meta)
	assert.Empty(t, st.readings)

	_, err = svc.ListSensorData(ctx, c.ID)
	var nf *apperr.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Cattle", nf.Resource)

	assert.True(t, errors.Is(svc.Delete(ctx, c.ID), apperr.ErrNotFound))
}

func TestService_UpdateMetadata_CreateThenReplace(t *testing.T) {
	t0 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, st := newTestService(t0)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	m1, err := svc.UpdateMetadata(ctx, c.ID, MetadataInput{Age: iptr(2), Weight: f64(300), Breed: "Angus", Notes: "first"})
	require.NoError(t, err)
	assert.NotZero(t, m1.ID)
	assert.Equal(t, c.ID, m1.CattleID)

	t1 := t0.Add(time.Hour)
	svc.now = func() time.Time { return t1 }
	m2, err := svc.UpdateMetadata(ctx, c.ID, MetadataInput{Breed: "Hereford"})
	require.NoError(t, err)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Nil(t, m2.Age)
	assert.Nil(t, m2.Weight)
	assert.Equal(t, "Hereford", m2.Breed)
	assert.Empty(t, m2.Notes)
	assert.Equal(t, t0, m2.CreatedAt)
	assert.Equal(t, t1, m2.UpdatedAt)
	assert.Len(t, st.meta, 1)

	got, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "Hereford", got.Metadata.Breed)

	_, err = svc.UpdateMetadata(ctx, 999, MetadataInput{Breed: "Angus"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_SearchMetadata(t *testing.T) {
	svc, _ := newTestService(time.Now())
	ctx := context.Background()

	_, _ = svc.Create(ctx, Input{Code: "AAA", Metadata: &MetadataInput{Age: iptr(2), Weight: f64(250), Breed: "Angus"}})
	_, _ = svc.Create(ctx, Input{Code: "BBB", Metadata: &MetadataInput{Age: iptr(5), Weight: f64(500), Breed: "Hereford"}})
	_, _ = svc.Create(ctx, Input{Code: "CCC", Metadata: &MetadataInput{Age: iptr(7), Weight: f64(610), Breed: "Angus"}})

	angus, err := svc.SearchMetadata(ctx, MetadataFilter{Breed: "Angus"})
	require.NoError(t, err)
	assert.Len(t, angus, 2)

	ages, err := svc.SearchMetadata(ctx, MetadataFilter{MinAge: iptr(2), MaxAge: iptr(5)})
	require.NoError(t, err)
	assert.Len(t, ages, 2)

	heavy, err := svc.SearchMetadata(ctx, MetadataFilter{MinWeight: f64(500)})
	require.NoError(t, err)
	require.Len(t, heavy, 1)
	assert.Equal(t, 7, *heavy[0].Age)

	_, err = svc.SearchMetadata(ctx, MetadataFilter{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.SearchMetadata(ctx, MetadataFilter{MinAge: iptr(3)})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestService_AddSensorData_RefreshesLastUpdate(t *testing.T) {
	t0 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t0)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	t1 := t0.Add(15 * time.Minute)
	svc.now = func() time.Time { return t1 }
	_, err = svc.AddSensorData(ctx, c.ID, SensorDataInput{StomachTemperature: f64(39), PeristalticCount: iptr(2)})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, t1, *got.LastUpdate)

	_, err = svc.AddSensorData(ctx, c.ID, SensorDataInput{PeristalticCount: iptr(2)})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.AddSensorData(ctx, 999, SensorDataInput{StomachTemperature: f64(39), PeristalticCount: iptr(2)})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_NumericBoundsFitStorage(t *testing.T) {
	svc, st := newTestService(time.Now())
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	_, err = svc.AddSensorData(ctx, c.ID, SensorDataInput{StomachTemperature: f64(1000), PeristalticCount: iptr(2)})
	var verrs apperr.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "stomach_temperature", verrs[0].Field)
	assert.Equal(t, "lte", verrs[0].Rule)
	assert.Empty(t, st.readings)

	_, err = svc.AddSensorData(ctx, c.ID, SensorDataInput{StomachTemperature: f64(999.99), PeristalticCount: iptr(2)})
	require.NoError(t, err)

	_, err = svc.UpdateMetadata(ctx, c.ID, MetadataInput{Weight: f64(100000)})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "weight", verrs[0].Field)
	assert.Equal(t, "lte", verrs[0].Rule)

	_, err = svc.Create(ctx, Input{Code: "D4E5F6", Metadata: &MetadataInput{Weight: f64(1e6)}})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.UpdateMetadata(ctx, c.ID, MetadataInput{Weight: f64(99999.99)})
	require.NoError(t, err)
}

func TestService_ListSensorDataBetween(t *testing.T) {
	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	svc, _ := newTestService(base)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)
	for h := 0; h < 5; h++ {
		ts := base.Add(time.Duration(h) * time.Hour)
		_, err := svc.AddSensorData(ctx, c.ID, SensorDataInput{Timestamp: &ts, StomachTemperature: f64(38.5), PeristalticCount: iptr(h)})
		require.NoError(t, err)
	}

	got, err := svc.ListSensorDataBetween(ctx, c.ID, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].PeristalticCount)
	assert.Equal(t, 3, got[2].PeristalticCount)

	_, err = svc.ListSensorDataBetween(ctx, c.ID, base.Add(time.Hour), base)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = svc.ListSensorDataBetween(ctx, 999, base, base)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_AssignAndRemoveDevice(t *testing.T) {
	t0 := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc, st := newTestService(t0)
	ctx := context.Background()
	devID := st.addDevice("GPS-7", "gps_collar")

	c, err := svc.Create(ctx, Input{Code: "A1B2C3"})
	require.NoError(t, err)

	_, err = svc.AssignDevice(ctx, c.ID, 555)
	var nf *apperr.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Device", nf.Resource)

	_, err = svc.AssignDevice(ctx, 555, devID)
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Cattle", nf.Resource)

	t1 := t0.Add(time.Minute)
	svc.now = func() time.Time { return t1 }
	assigned, err := svc.AssignDevice(ctx, c.ID, devID)
	require.NoError(t, err)
	require.NotNil(t, assigned.DeviceID)
	assert.Equal(t, devID, *assigned.DeviceID)
	assert.Equal(t, "GPS-7 (gps_collar)", *assigned.DeviceInfo)
	assert.Equal(t, t1, *assigned.LastUpdate)

	byDevice, err := svc.ListByDevice(ctx, devID)
	require.NoError(t, err)
	require.Len(t, byDevice, 1)
	assert.Equal(t, c.ID, byDevice[0].ID)

	_, err = svc.ListByDevice(ctx, 555)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	removed, err := svc.RemoveDevice(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, removed.DeviceID)
	assert.Nil(t, removed.DeviceInfo)

	_, err = svc.RemoveDevice(ctx, 555)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
