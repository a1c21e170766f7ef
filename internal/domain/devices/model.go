package devices

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Device es un dispositivo IoT (cápsula ruminal, collar GPS) que puede
// estar asignado a cero o más animales.
type Device struct {
	ID   int64
	Code string // clave natural, única

	Type   string
	Status string

	LastOnline      *time.Time
	BatteryLevel    *int
	FirmwareVersion string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary es el texto que se muestra junto al animal: "<code> (<type>)".
func (d Device) Summary() string {
	return d.Code + " (" + d.Type + ")"
}
