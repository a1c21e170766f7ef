package devices

import "context"

type Repository interface {
	Create(ctx context.Context, d Device) (int64, error)
	Update(ctx context.Context, d Device) error
	// Delete borra el dispositivo; los animales que lo referencian quedan sin dispositivo.
	Delete(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (Device, error)
	GetByCode(ctx context.Context, code string) (Device, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)

	List(ctx context.Context) ([]Device, error)
	ListByStatus(ctx context.Context, status string) ([]Device, error)
	ListByType(ctx context.Context, deviceType string) ([]Device, error)
	ListBatteryBelow(ctx context.Context, level int) ([]Device, error)
}

// Transactor delimita una unidad de trabajo; los repos llamados con el ctx
// del callback participan de la misma transacción.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error
}
