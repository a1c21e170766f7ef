package cattle

import (
	"context"
	"errors"
	"strings"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/validate"
)

const (
	resource = "Cattle"

	DefaultPageSize = 20
	MaxPageSize     = 200
)

type Service struct {
	repo    Repository
	meta    MetadataRepository
	sensors SensorDataRepository
	devices DeviceReader
	tx      Transactor
	log     logger.Logger
	now     func() time.Time
}

func NewService(
	repo Repository,
	meta MetadataRepository,
	sensors SensorDataRepository,
	devs DeviceReader,
	tx Transactor,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		meta:    meta,
		sensors: sensors,
		devices: devs,
		tx:      tx,
		log:     log.With(map[string]any{"component": "cattle"}),
		now:     time.Now,
	}
}

// -------------------------
// Alta
// -------------------------

func (s *Service) Create(ctx context.Context, in Input) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out DTO
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateKey(resource, "cattle_code", in.Code)
		}

		device, err := s.resolveDevice(ctx, in.DeviceID)
		if err != nil {
			return err
		}

		now := s.now()
		c := Cattle{
			Code:         in.Code,
			Latitude:     in.Latitude,
			Longitude:    in.Longitude,
			HealthStatus: in.HealthStatus,
			DeviceID:     in.DeviceID,
			LastUpdate:   &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		id, err := s.repo.Create(ctx, c)
		if err != nil {
			return translateWrite(err, in.Code)
		}
		c.ID = id

		var meta *Metadata
		if in.Metadata != nil {
			m, err := s.meta.Save(ctx, newMetadata(c.ID, *in.Metadata, now))
			if err != nil {
				return err
			}
			meta = &m
		}

		readings := make([]SensorData, 0, len(in.SensorData))
		for _, sin := range in.SensorData {
			r := newSensorData(c.ID, sin, now)
			rid, err := s.sensors.Create(ctx, r)
			if err != nil {
				return err
			}
			r.ID = rid
			readings = append(readings, r)
		}

		out = toDTO(c, device, meta, readings)
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("cattle created", map[string]any{
		"id":          out.ID,
		"cattle_code": out.Code,
		"readings":    len(out.SensorData),
	})
	return out, nil
}

func newMetadata(cattleID int64, in MetadataInput, now time.Time) Metadata {
	return Metadata{
		CattleID:  cattleID,
		Age:       in.Age,
		Weight:    in.Weight,
		Breed:     strings.TrimSpace(in.Breed),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newSensorData aplica el default de timestamp (momento del alta).
func newSensorData(cattleID int64, in SensorDataInput, now time.Time) SensorData {
	ts := now
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		ts = *in.Timestamp
	}
	return SensorData{
		CattleID:           cattleID,
		Timestamp:          ts,
		StomachTemperature: *in.StomachTemperature,
		PeristalticCount:   *in.PeristalticCount,
		CreatedAt:          now,
	}
}

// -------------------------
// Lecturas
// -------------------------

func (s *Service) GetByID(ctx context.Context, id int64) (DTO, error) {
	return s.get(ctx, id, false)
}

// GetWithSensorData incluye todas las lecturas del animal.
func (s *Service) GetWithSensorData(ctx context.Context, id int64) (DTO, error) {
	return s.get(ctx, id, true)
}

func (s *Service) get(ctx context.Context, id int64, withReadings bool) (DTO, error) {
	var out DTO
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		c, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		out, err = s.view(ctx, c, withReadings)
		return err
	})
	if err != nil {
		return DTO{}, err
	}
	return out, nil
}

// GetByCode busca por clave natural.
func (s *Service) GetByCode(ctx context.Context, code string) (DTO, error) {
	code = strings.TrimSpace(code)

	var out DTO
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.NotFound(resource, "cattle_code", code)
			}
			return err
		}
		out, err = s.view(ctx, c, false)
		return err
	})
	if err != nil {
		return DTO{}, err
	}
	return out, nil
}

// List pagina por id ascendente. page es base cero; size se acota a [1, MaxPageSize].
func (s *Service) List(ctx context.Context, page, size int) (Page, error) {
	page, size = normalizePage(page, size)

	out := Page{Page: page, Size: size}
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		items, total, err := s.repo.List(ctx, page*size, size)
		if err != nil {
			return err
		}
		out.Total = total
		out.Items, err = s.views(ctx, items)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return out, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func (s *Service) ListByHealthStatus(ctx context.Context, status string) ([]DTO, error) {
	status = strings.TrimSpace(status)
	return s.list(ctx, func(ctx context.Context) ([]Cattle, error) {
		return s.repo.ListByHealthStatus(ctx, status)
	})
}

// ListWithinBounds filtra por caja lat/lon inclusiva, cada eje por separado.
func (s *Service) ListWithinBounds(ctx context.Context, b Bounds) ([]DTO, error) {
	if b.LatMin > b.LatMax {
		return nil, apperr.Invalid("lat_min", "ltefield", "lat_min must be <= lat_max")
	}
	if b.LonMin > b.LonMax {
		return nil, apperr.Invalid("lon_min", "ltefield", "lon_min must be <= lon_max")
	}
	return s.list(ctx, func(ctx context.Context) ([]Cattle, error) {
		return s.repo.ListWithinBounds(ctx, b)
	})
}

// ListByDevice devuelve los animales que llevan el dispositivo.
func (s *Service) ListByDevice(ctx context.Context, deviceID int64) ([]DTO, error) {
	return s.list(ctx, func(ctx context.Context) ([]Cattle, error) {
		if _, err := s.devices.Find(ctx, deviceID); err != nil {
			return nil, err
		}
		return s.repo.ListByDevice(ctx, deviceID)
	})
}

func (s *Service) list(ctx context.Context, fetch func(ctx context.Context) ([]Cattle, error)) ([]DTO, error) {
	var out []DTO
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		items, err := fetch(ctx)
		if err != nil {
			return err
		}
		out, err = s.views(ctx, items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// -------------------------
// Modificaciones
// -------------------------

// Update reemplaza todos los campos escalares y re-resuelve el dispositivo
// (sin device_id el animal queda sin dispositivo).
func (s *Service) Update(ctx context.Context, id int64, in Input) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out DTO
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.find(ctx, id)
		if err != nil {
			return err
		}

		if c.Code != in.Code {
			exists, err := s.repo.ExistsByCode(ctx, in.Code)
			if err != nil {
				return err
			}
			if exists {
				return apperr.DuplicateKey(resource, "cattle_code", in.Code)
			}
		}

		if _, err := s.resolveDevice(ctx, in.DeviceID); err != nil {
			return err
		}

		c.Code = in.Code
		c.Latitude = in.Latitude
		c.Longitude = in.Longitude
		c.HealthStatus = in.HealthStatus
		c.DeviceID = in.DeviceID

		if err := s.save(ctx, &c); err != nil {
			return err
		}
		out, err = s.view(ctx, c, false)
		return err
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("cattle updated", map[string]any{"id": out.ID, "cattle_code": out.Code})
	return out, nil
}

func (s *Service) UpdateLocation(ctx context.Context, id int64, in LocationInput) (DTO, error) {
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}
	return s.mutate(ctx, id, "cattle location updated", func(c *Cattle) {
		c.Latitude = in.Latitude
		c.Longitude = in.Longitude
	})
}

func (s *Service) UpdateHealthStatus(ctx context.Context, id int64, in HealthStatusInput) (DTO, error) {
	in.HealthStatus = strings.TrimSpace(in.HealthStatus)
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}
	return s.mutate(ctx, id, "cattle health status updated", func(c *Cattle) {
		c.HealthStatus = in.HealthStatus
	})
}

// AssignDevice vincula el dispositivo; ambos ids deben existir.
func (s *Service) AssignDevice(ctx context.Context, id, deviceID int64) (DTO, error) {
	var out DTO
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.devices.Find(ctx, deviceID); err != nil {
			return err
		}

		c.DeviceID = &deviceID
		if err := s.save(ctx, &c); err != nil {
			return err
		}
		out, err = s.view(ctx, c, false)
		return err
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("device assigned to cattle", map[string]any{"id": id, "device_id": deviceID})
	return out, nil
}

func (s *Service) RemoveDevice(ctx context.Context, id int64) (DTO, error) {
	return s.mutate(ctx, id, "device removed from cattle", func(c *Cattle) {
		c.DeviceID = nil
	})
}

// mutate carga, aplica fn, refresca timestamps y persiste dentro de una transacción.
func (s *Service) mutate(ctx context.Context, id int64, msg string, fn func(c *Cattle)) (DTO, error) {
	var out DTO
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.find(ctx, id)
		if err != nil {
			return err
		}

		fn(&c)
		if err := s.save(ctx, &c); err != nil {
			return err
		}
		out, err = s.view(ctx, c, false)
		return err
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info(msg, map[string]any{"id": out.ID, "cattle_code": out.Code})
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("cattle deleted", map[string]any{"id": id})
	return nil
}

// -------------------------
// Metadata
// -------------------------

// UpdateMetadata crea la metadata si no existe o reemplaza todos sus campos.
func (s *Service) UpdateMetadata(ctx context.Context, cattleID int64, in MetadataInput) (MetadataDTO, error) {
	if err := validate.Struct(in); err != nil {
		return MetadataDTO{}, err
	}

	var out Metadata
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.mustExist(ctx, cattleID); err != nil {
			return err
		}

		now := s.now()
		m, err := s.meta.GetByCattleID(ctx, cattleID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			m = newMetadata(cattleID, in, now)
		case err != nil:
			return err
		default:
			m.Age = in.Age
			m.Weight = in.Weight
			m.Breed = strings.TrimSpace(in.Breed)
			m.Notes = in.Notes
			m.UpdatedAt = now
		}

		out, err = s.meta.Save(ctx, m)
		return err
	})
	if err != nil {
		return MetadataDTO{}, err
	}

	s.log.Info("cattle metadata saved", map[string]any{"cattle_id": cattleID, "metadata_id": out.ID})
	return toMetadataDTO(out), nil
}

// SearchMetadata aplica el primer criterio presente del filtro; sin criterios es un error.
func (s *Service) SearchMetadata(ctx context.Context, f MetadataFilter) ([]MetadataDTO, error) {
	var fetch func(ctx context.Context) ([]Metadata, error)

	breed := strings.TrimSpace(f.Breed)
	switch {
	case breed != "":
		fetch = func(ctx context.Context) ([]Metadata, error) {
			return s.meta.ListByBreed(ctx, breed)
		}
	case f.MinAge != nil || f.MaxAge != nil:
		if f.MinAge == nil || f.MaxAge == nil {
			return nil, apperr.Invalid("age", "required_with", "min_age and max_age go together")
		}
		if *f.MinAge > *f.MaxAge {
			return nil, apperr.Invalid("min_age", "ltefield", "min_age must be <= max_age")
		}
		fetch = func(ctx context.Context) ([]Metadata, error) {
			return s.meta.ListByAgeBetween(ctx, *f.MinAge, *f.MaxAge)
		}
	case f.MinWeight != nil:
		fetch = func(ctx context.Context) ([]Metadata, error) {
			return s.meta.ListByWeightGreaterThan(ctx, *f.MinWeight)
		}
	default:
		return nil, apperr.Invalid("filter", "required", "one of breed, min_age/max_age or min_weight is required")
	}

	var items []Metadata
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		var err error
		items, err = fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toMetadataDTOs(items), nil
}

// -------------------------
// Lecturas de sensor
// -------------------------

// AddSensorData agrega una lectura y refresca last_update del animal.
func (s *Service) AddSensorData(ctx context.Context, cattleID int64, in SensorDataInput) (SensorDataDTO, error) {
	if err := validate.Struct(in); err != nil {
		return SensorDataDTO{}, err
	}

	var out SensorData
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.find(ctx, cattleID)
		if err != nil {
			return err
		}

		r := newSensorData(cattleID, in, s.now())
		id, err := s.sensors.Create(ctx, r)
		if err != nil {
			return err
		}
		r.ID = id
		out = r

		return s.save(ctx, &c)
	})
	if err != nil {
		return SensorDataDTO{}, err
	}

	s.log.Debug("sensor reading stored", map[string]any{"cattle_id": cattleID, "reading_id": out.ID})
	return toSensorDTO(out), nil
}

func (s *Service) ListSensorData(ctx context.Context, cattleID int64) ([]SensorDataDTO, error) {
	return s.readings(ctx, cattleID, func(ctx context.Context) ([]SensorData, error) {
		return s.sensors.ListByCattle(ctx, cattleID)
	})
}

// ListSensorDataBetween filtra por timestamp con ambos extremos inclusivos.
func (s *Service) ListSensorDataBetween(ctx context.Context, cattleID int64, from, to time.Time) ([]SensorDataDTO, error) {
	if to.Before(from) {
		return nil, apperr.Invalid("from", "ltefield", "from must be <= to")
	}
	return s.readings(ctx, cattleID, func(ctx context.Context) ([]SensorData, error) {
		return s.sensors.ListByCattleBetween(ctx, cattleID, from, to)
	})
}

func (s *Service) readings(ctx context.Context, cattleID int64, fetch func(ctx context.Context) ([]SensorData, error)) ([]SensorDataDTO, error) {
	var out []SensorData
	err := s.tx.WithinReadOnlyTx(ctx, func(ctx context.Context) error {
		if err := s.mustExist(ctx, cattleID); err != nil {
			return err
		}
		var err error
		out, err = fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSensorDTOs(out), nil
}

// -------------------------
// Helpers
// -------------------------

func (s *Service) find(ctx context.Context, id int64) (Cattle, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Cattle{}, apperr.NotFound(resource, "id", id)
		}
		return Cattle{}, err
	}
	return c, nil
}

func (s *Service) mustExist(ctx context.Context, id int64) error {
	ok, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(resource, "id", id)
	}
	return nil
}

// save refresca last_update/updated_at y persiste.
func (s *Service) save(ctx context.Context, c *Cattle) error {
	now := s.now()
	c.LastUpdate = &now
	c.UpdatedAt = now
	if err := s.repo.Update(ctx, *c); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound(resource, "id", c.ID)
		}
		return translateWrite(err, c.Code)
	}
	return nil
}

func (s *Service) resolveDevice(ctx context.Context, id *int64) (*devices.Device, error) {
	if id == nil {
		return nil, nil
	}
	d, err := s.devices.Find(ctx, *id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// view arma el DTO con dispositivo, metadata y (opcional) lecturas.
func (s *Service) view(ctx context.Context, c Cattle, withReadings bool) (DTO, error) {
	var device *devices.Device
	if c.DeviceID != nil {
		d, err := s.devices.Find(ctx, *c.DeviceID)
		switch {
		case err == nil:
			device = &d
		case !errors.Is(err, apperr.ErrNotFound):
			return DTO{}, err
		}
	}

	var meta *Metadata
	m, err := s.meta.GetByCattleID(ctx, c.ID)
	switch {
	case err == nil:
		meta = &m
	case !errors.Is(err, apperr.ErrNotFound):
		return DTO{}, err
	}

	var readings []SensorData
	if withReadings {
		readings, err = s.sensors.ListByCattle(ctx, c.ID)
		if err != nil {
			return DTO{}, err
		}
	}

	return toDTO(c, device, meta, readings), nil
}

func (s *Service) views(ctx context.Context, items []Cattle) ([]DTO, error) {
	out := make([]DTO, 0, len(items))
	for _, c := range items {
		v, err := s.view(ctx, c, false)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func translateWrite(err error, code string) error {
	if errors.Is(err, apperr.ErrDuplicateKey) {
		return apperr.DuplicateKey(resource, "cattle_code", code)
	}
	return err
}
