package cattle

import (
	"context"
	"time"

	"livestock-tracking/internal/domain/devices"
)

type Repository interface {
	Create(ctx context.Context, c Cattle) (int64, error)
	Update(ctx context.Context, c Cattle) error
	// Delete borra el animal junto con su metadata y sus lecturas.
	Delete(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (Cattle, error)
	GetByCode(ctx context.Context, code string) (Cattle, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// List devuelve la página pedida (orden por id) y el total.
	List(ctx context.Context, offset, limit int) ([]Cattle, int, error)
	ListByHealthStatus(ctx context.Context, status string) ([]Cattle, error)
	ListWithinBounds(ctx context.Context, b Bounds) ([]Cattle, error)
	ListByDevice(ctx context.Context, deviceID int64) ([]Cattle, error)
}

type MetadataRepository interface {
	GetByCattleID(ctx context.Context, cattleID int64) (Metadata, error)
	// Save inserta si m.ID == 0 y actualiza en otro caso; devuelve la fila guardada.
	Save(ctx context.Context, m Metadata) (Metadata, error)

	ListByBreed(ctx context.Context, breed string) ([]Metadata, error)
	ListByAgeBetween(ctx context.Context, minAge, maxAge int) ([]Metadata, error)
	ListByWeightGreaterThan(ctx context.Context, weight float64) ([]Metadata, error)
}

type SensorDataRepository interface {
	Create(ctx context.Context, s SensorData) (int64, error)
	// ListByCattle respeta el orden de inserción.
	ListByCattle(ctx context.Context, cattleID int64) ([]SensorData, error)
	ListByCattleBetween(ctx context.Context, cattleID int64, from, to time.Time) ([]SensorData, error)
}

// DeviceReader resuelve la referencia al dispositivo; devuelve apperr.NotFoundError si no existe.
type DeviceReader interface {
	Find(ctx context.Context, id int64) (devices.Device, error)
}

type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error
}
