package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"livestock-tracking/internal/domain/cattle"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/domain/users"
)

type txKey struct{}

// state son todas las "tablas" del store.
type state struct {
	devices  map[int64]devices.Device
	cattle   map[int64]cattle.Cattle
	metadata map[int64]cattle.Metadata
	sensors  []cattle.SensorData // orden de inserción
	users    map[int64]users.User

	seq sequences
}

type sequences struct {
	devices, cattle, metadata, sensors, users int64
}

func newState() *state {
	return &state{
		devices:  make(map[int64]devices.Device),
		cattle:   make(map[int64]cattle.Cattle),
		metadata: make(map[int64]cattle.Metadata),
		sensors:  make([]cattle.SensorData, 0),
		users:    make(map[int64]users.User),
	}
}

func (s *state) clone() *state {
	return &state{
		devices:  maps.Clone(s.devices),
		cattle:   maps.Clone(s.cattle),
		metadata: maps.Clone(s.metadata),
		sensors:  slices.Clone(s.sensors),
		users:    maps.Clone(s.users),
		seq:      s.seq,
	}
}

// Store es el almacenamiento in-memory (modo dev y tests).
//
// Las transacciones se serializan con txMu; si el callback falla (error o
// panic) se restaura el snapshot tomado al empezar. Las lecturas fuera de transacción pueden ver
// escrituras de una transacción en curso.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
		return err
	}
	return nil
}

// WithinReadOnlyTx solo aísla de transacciones concurrentes; no toma snapshot.
func (s *Store) WithinReadOnlyTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Ping existe para el health check; el store in-memory siempre está disponible.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
