package devices

import (
	"context"
	"errors"
	"strings"
	"time"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/validate"
)

const resource = "Device"

type Service struct {
	repo Repository
	tx   Transactor
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, tx Transactor, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		tx:   tx,
		log:  log.With(map[string]any{"component": "devices"}),
		now:  time.Now,
	}
}

// newDevice aplica los defaults de alta (status "active").
func newDevice(in Input, now time.Time) Device {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	return Device{
		Code:            in.Code,
		Type:            in.Type,
		Status:          status,
		LastOnline:      in.LastOnline,
		BatteryLevel:    in.BatteryLevel,
		FirmwareVersion: in.FirmwareVersion,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Service) Create(ctx context.Context, in Input) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out Device
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByCode(ctx, in.Code)
		if err != nil {
			return err
		}
		if exists {
			return apperr.DuplicateKey(resource, "device_code", in.Code)
		}

		d := newDevice(in, s.now())
		id, err := s.repo.Create(ctx, d)
		if err != nil {
			return translateWrite(err, in.Code)
		}
		d.ID = id
		out = d
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("device created", map[string]any{"id": out.ID, "device_code": out.Code})
	return ToDTO(out), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (DTO, error) {
	d, err := s.Find(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	return ToDTO(d), nil
}

// Find devuelve la entidad (lo usa el servicio de ganado para resolver la referencia).
func (s *Service) Find(ctx context.Context, id int64) (Device, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Device{}, apperr.NotFound(resource, "id", id)
		}
		return Device{}, err
	}
	return d, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (DTO, error) {
	code = strings.TrimSpace(code)
	d, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return DTO{}, apperr.NotFound(resource, "device_code", code)
		}
		return DTO{}, err
	}
	return ToDTO(d), nil
}

func (s *Service) List(ctx context.Context) ([]DTO, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]DTO, error) {
	items, err := s.repo.ListByStatus(ctx, strings.TrimSpace(status))
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

func (s *Service) ListByType(ctx context.Context, deviceType string) ([]DTO, error) {
	items, err := s.repo.ListByType(ctx, strings.TrimSpace(deviceType))
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

// ListLowBattery devuelve los dispositivos con batería estrictamente menor a level.
func (s *Service) ListLowBattery(ctx context.Context, level int) ([]DTO, error) {
	items, err := s.repo.ListBatteryBelow(ctx, level)
	if err != nil {
		return nil, err
	}
	return toDTOs(items), nil
}

// Update reemplaza todos los campos escalares (no es un PATCH).
func (s *Service) Update(ctx context.Context, id int64, in Input) (DTO, error) {
	in = in.normalized()
	if err := validate.Struct(in); err != nil {
		return DTO{}, err
	}

	var out Device
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.Find(ctx, id)
		if err != nil {
			return err
		}

		if d.Code != in.Code {
			exists, err := s.repo.ExistsByCode(ctx, in.Code)
			if err != nil {
				return err
			}
			if exists {
				return apperr.DuplicateKey(resource, "device_code", in.Code)
			}
		}

		status := in.Status
		if status == "" {
			status = StatusActive
		}

		d.Code = in.Code
		d.Type = in.Type
		d.Status = status
		d.LastOnline = in.LastOnline
		d.BatteryLevel = in.BatteryLevel
		d.FirmwareVersion = in.FirmwareVersion
		d.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, d); err != nil {
			return translateWrite(err, in.Code)
		}
		out = d
		return nil
	})
	if err != nil {
		return DTO{}, err
	}

	s.log.Info("device updated", map[string]any{"id": out.ID, "device_code": out.Code})
	return ToDTO(out), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.Find(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("device deleted", map[string]any{"id": id})
	return nil
}

// translateWrite cubre la carrera entre ExistsByCode y el INSERT/UPDATE:
// el índice único del store tiene la última palabra.
func translateWrite(err error, code string) error {
	if errors.Is(err, apperr.ErrDuplicateKey) {
		return apperr.DuplicateKey(resource, "device_code", code)
	}
	return err
}
