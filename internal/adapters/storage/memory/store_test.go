package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/cattle"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestCattleDelete_CascadesMetadataAndReadings(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)
	metaRepo := NewMetadataRepo(st)
	sensorRepo := NewSensorDataRepo(st)

	a, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "AAA", HealthStatus: cattle.HealthyStatus})
	require.NoError(t, err)
	b, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "BBB", HealthStatus: cattle.HealthyStatus})
	require.NoError(t, err)

	_, err = metaRepo.Save(ctx, cattle.Metadata{CattleID: a, Breed: "Angus"})
	require.NoError(t, err)
	_, err = metaRepo.Save(ctx, cattle.Metadata{CattleID: b, Breed: "Angus"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = sensorRepo.Create(ctx, cattle.SensorData{CattleID: a, Timestamp: time.Now(), StomachTemperature: 38.5})
		require.NoError(t, err)
	}
	_, err = sensorRepo.Create(ctx, cattle.SensorData{CattleID: b, Timestamp: time.Now(), StomachTemperature: 39})
	require.NoError(t, err)

	require.NoError(t, cattleRepo.Delete(ctx, a))

	_, err = metaRepo.GetByCattleID(ctx, a)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	readings, err := sensorRepo.ListByCattle(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, readings)

	// el otro animal queda intacto
	readings, err = sensorRepo.ListByCattle(ctx, b)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
	angus, err := metaRepo.ListByBreed(ctx, "Angus")
	require.NoError(t, err)
	assert.Len(t, angus, 1)

	assert.True(t, errors.Is(cattleRepo.Delete(ctx, a), apperr.ErrNotFound))
}

func TestDeviceDelete_ClearsCattleLink(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	deviceRepo := NewDeviceRepo(st)
	cattleRepo := NewCattleRepo(st)

	devID, err := deviceRepo.Create(ctx, devices.Device{Code: "CAP-001", Type: "rumen_capsule", Status: devices.StatusActive})
	require.NoError(t, err)

	cid, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "AAA", DeviceID: &devID})
	require.NoError(t, err)

	linked, err := cattleRepo.ListByDevice(ctx, devID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	require.NoError(t, deviceRepo.Delete(ctx, devID))

	c, err := cattleRepo.GetByID(ctx, cid)
	require.NoError(t, err)
	assert.Nil(t, c.DeviceID)

	// FK: no se puede apuntar a un dispositivo inexistente
	_, err = cattleRepo.Create(ctx, cattle.Cattle{Code: "BBB", DeviceID: &devID})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUniqueKeys(t *testing.T) {
	ctx := context.Background()
	st := NewStore()

	cattleRepo := NewCattleRepo(st)
	_, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "AAA"})
	require.NoError(t, err)
	bid, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "BBB"})
	require.NoError(t, err)
	_, err = cattleRepo.Create(ctx, cattle.Cattle{Code: "AAA"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))
	err = cattleRepo.Update(ctx, cattle.Cattle{ID: bid, Code: "AAA"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))

	metaRepo := NewMetadataRepo(st)
	_, err = metaRepo.Save(ctx, cattle.Metadata{CattleID: bid})
	require.NoError(t, err)
	_, err = metaRepo.Save(ctx, cattle.Metadata{CattleID: bid})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))

	userRepo := NewUserRepo(st)
	_, err = userRepo.Create(ctx, users.User{Username: "u1", Email: "u1@x.com"})
	require.NoError(t, err)
	_, err = userRepo.Create(ctx, users.User{Username: "u2", Email: "U1@X.com"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))
	assert.Contains(t, err.Error(), "email")
	_, err = userRepo.Create(ctx, users.User{Username: "u1", Email: "other@x.com"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))
	assert.Contains(t, err.Error(), "username")

	exists, err := userRepo.ExistsByEmail(ctx, "U1@x.COM")
	require.NoError(t, err)
	assert.True(t, exists)

	deviceRepo := NewDeviceRepo(st)
	_, err = deviceRepo.Create(ctx, devices.Device{Code: "CAP-001"})
	require.NoError(t, err)
	_, err = deviceRepo.Create(ctx, devices.Device{Code: "CAP-001"})
	assert.True(t, errors.Is(err, apperr.ErrDuplicateKey))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)
	sensorRepo := NewSensorDataRepo(st)

	keep, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "KEEP"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = st.WithinTx(ctx, func(ctx context.Context) error {
		id, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "GONE"})
		require.NoError(t, err)
		_, err = sensorRepo.Create(ctx, cattle.SensorData{CattleID: id, Timestamp: time.Now()})
		require.NoError(t, err)
		require.NoError(t, cattleRepo.Delete(ctx, keep))
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := cattleRepo.ExistsByCode(ctx, "GONE")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = cattleRepo.GetByID(ctx, keep)
	assert.NoError(t, err)

	// la secuencia también vuelve atrás
	next, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "NEXT"})
	require.NoError(t, err)
	assert.Equal(t, keep+1, next)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)

	assert.Panics(t, func() {
		_ = st.WithinTx(ctx, func(ctx context.Context) error {
			_, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "GONE"})
			require.NoError(t, err)
			panic("boom")
		})
	})

	exists, err := cattleRepo.ExistsByCode(ctx, "GONE")
	require.NoError(t, err)
	assert.False(t, exists)

	// txMu quedó libre
	err = st.WithinTx(ctx, func(ctx context.Context) error {
		_, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "NEXT"})
		return err
	})
	require.NoError(t, err)
	c, err := cattleRepo.GetByCode(ctx, "NEXT")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestRowsAreCopied(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)
	metaRepo := NewMetadataRepo(st)

	lat := -34.6
	id, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "AAA", Latitude: &lat})
	require.NoError(t, err)
	lat = 10

	got, err := cattleRepo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.Latitude)
	assert.Equal(t, -34.6, *got.Latitude)

	*got.Latitude = 99
	again, err := cattleRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, -34.6, *again.Latitude)

	m, err := metaRepo.Save(ctx, cattle.Metadata{CattleID: id, Weight: f64(300)})
	require.NoError(t, err)
	*m.Weight = 1

	stored, err := metaRepo.GetByCattleID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 300.0, *stored.Weight)

	listed, err := cattleRepo.ListByHealthStatus(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	*listed[0].Latitude = 5
	again, err = cattleRepo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, -34.6, *again.Latitude)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)

	err := st.WithinTx(ctx, func(ctx context.Context) error {
		return st.WithinTx(ctx, func(ctx context.Context) error {
			_, err := cattleRepo.Create(ctx, cattle.Cattle{Code: "INNER"})
			return err
		})
	})
	require.NoError(t, err)

	err = st.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		_, err := cattleRepo.GetByCode(ctx, "INNER")
		return err
	})
	assert.NoError(t, err)
}

func TestWithinTx_SerializesWriters(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)

	// check-then-insert concurrente: solo uno debe ganar
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.WithinTx(ctx, func(ctx context.Context) error {
				exists, err := cattleRepo.ExistsByCode(ctx, "RACE")
				if err != nil || exists {
					return err
				}
				_, err = cattleRepo.Create(ctx, cattle.Cattle{Code: "RACE"})
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	cattleRepo := NewCattleRepo(st)
	sensorRepo := NewSensorDataRepo(st)
	deviceRepo := NewDeviceRepo(st)

	for i, code := range []string{"AAA", "BBB", "CCC"} {
		_, err := cattleRepo.Create(ctx, cattle.Cattle{
			Code:         code,
			HealthStatus: map[bool]string{true: "sick", false: cattle.HealthyStatus}[i == 1],
			Latitude:     f64(float64(i)),
			Longitude:    f64(float64(i)),
		})
		require.NoError(t, err)
	}

	page, total, err := cattleRepo.List(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "BBB", page[0].Code)

	sick, err := cattleRepo.ListByHealthStatus(ctx, "sick")
	require.NoError(t, err)
	require.Len(t, sick, 1)
	assert.Equal(t, "BBB", sick[0].Code)

	boxed, err := cattleRepo.ListWithinBounds(ctx, cattle.Bounds{LatMin: 1, LatMax: 2, LonMin: 0, LonMax: 1})
	require.NoError(t, err)
	require.Len(t, boxed, 1)
	assert.Equal(t, "BBB", boxed[0].Code)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 4; h++ {
		_, err := sensorRepo.Create(ctx, cattle.SensorData{CattleID: 1, Timestamp: base.Add(time.Duration(h) * time.Hour), PeristalticCount: h})
		require.NoError(t, err)
	}
	window, err := sensorRepo.ListByCattleBetween(ctx, 1, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, 1, window[0].PeristalticCount)

	_, err = sensorRepo.Create(ctx, cattle.SensorData{CattleID: 99})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	low := 15
	_, err = deviceRepo.Create(ctx, devices.Device{Code: "CAP-1", Type: "rumen_capsule", Status: devices.StatusActive, BatteryLevel: &low})
	require.NoError(t, err)
	_, err = deviceRepo.Create(ctx, devices.Device{Code: "GPS-1", Type: "gps_collar", Status: devices.StatusInactive})
	require.NoError(t, err)

	lowBattery, err := deviceRepo.ListBatteryBelow(ctx, 20)
	require.NoError(t, err)
	require.Len(t, lowBattery, 1)
	assert.Equal(t, "CAP-1", lowBattery[0].Code)

	inactive, err := deviceRepo.ListByStatus(ctx, devices.StatusInactive)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "GPS-1", inactive[0].Code)
}
