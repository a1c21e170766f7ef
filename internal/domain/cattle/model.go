package cattle

import "time"

// HealthyStatus es el estado sanitario por defecto.
const HealthyStatus = "healthy"

// Cattle es la raíz del agregado: metadata y lecturas de sensor se guardan
// aparte y lo referencian solo por CattleID.
type Cattle struct {
	ID   int64
	Code string // clave natural, única (^[A-Z0-9]{3,20}$)

	Latitude  *float64
	Longitude *float64

	HealthStatus string
	DeviceID     *int64

	LastUpdate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata es 1:1 con Cattle (cattle_id único).
type Metadata struct {
	ID       int64
	CattleID int64

	Age    *int
	Weight *float64
	Breed  string
	Notes  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SensorData es una lectura inmutable; solo tiene CreatedAt.
type SensorData struct {
	ID       int64
	CattleID int64

	Timestamp          time.Time
	StomachTemperature float64
	PeristalticCount   int

	CreatedAt time.Time
}

// Bounds es una caja alineada a los ejes, inclusiva en ambos extremos.
// No es una distancia geodésica.
type Bounds struct {
	LatMin, LatMax float64
	LonMin, LonMax float64
}

// Contains indica si la posición cae dentro de la caja. Sin coordenadas nunca matchea.
func (b Bounds) Contains(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	return *lat >= b.LatMin && *lat <= b.LatMax &&
		*lon >= b.LonMin && *lon <= b.LonMax
}

// MetadataFilter: se usa el primer criterio presente (breed, rango de edad, peso mínimo).
type MetadataFilter struct {
	Breed     string
	MinAge    *int
	MaxAge    *int
	MinWeight *float64
}
