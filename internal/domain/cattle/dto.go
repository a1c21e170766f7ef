package cattle

import (
	"strings"
	"time"

	"livestock-tracking/internal/domain/devices"
)

// -------------------------
// Inputs
// -------------------------

// Input es el cuerpo de alta y de actualización completa.
// Metadata y SensorData solo se consideran en el alta.
type Input struct {
	Code         string            `json:"cattle_code" validate:"required,cattlecode"`
	Latitude     *float64          `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64          `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	HealthStatus string            `json:"health_status" validate:"max=20"`
	DeviceID     *int64            `json:"device_id" validate:"omitempty,gt=0"`
	Metadata     *MetadataInput    `json:"metadata,omitempty"`
	SensorData   []SensorDataInput `json:"sensor_data,omitempty" validate:"omitempty,dive"`
}

func (in Input) normalized() Input {
	in.Code = strings.TrimSpace(in.Code)
	in.HealthStatus = strings.TrimSpace(in.HealthStatus)
	if in.HealthStatus == "" {
		in.HealthStatus = HealthyStatus
	}
	return in
}

type MetadataInput struct {
	Age    *int     `json:"age" validate:"omitempty,gte=0"`
	Weight *float64 `json:"weight" validate:"omitempty,gte=0,lte=99999.99"`
	Breed  string   `json:"breed" validate:"max=100"`
	Notes  string   `json:"notes"`
}

type SensorDataInput struct {
	Timestamp          *time.Time `json:"timestamp"`
	StomachTemperature *float64   `json:"stomach_temperature" validate:"required,gte=-999.99,lte=999.99"`
	PeristalticCount   *int       `json:"peristaltic_count" validate:"required,gte=0"`
}

type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type HealthStatusInput struct {
	HealthStatus string `json:"health_status" validate:"required,max=20"`
}

// -------------------------
// Outputs
// -------------------------

type DTO struct {
	ID           int64           `json:"id"`
	Code         string          `json:"cattle_code"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	HealthStatus string          `json:"health_status"`
	DeviceID     *int64          `json:"device_id"`
	DeviceInfo   *string         `json:"device_info"`
	LastUpdate   *time.Time      `json:"last_update"`
	Metadata     *MetadataDTO    `json:"metadata"`
	SensorData   []SensorDataDTO `json:"sensor_data"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type MetadataDTO struct {
	ID        int64     `json:"id"`
	CattleID  int64     `json:"cattle_id"`
	Age       *int      `json:"age"`
	Weight    *float64  `json:"weight"`
	Breed     string    `json:"breed"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SensorDataDTO struct {
	ID                 int64     `json:"id"`
	CattleID           int64     `json:"cattle_id"`
	Timestamp          time.Time `json:"timestamp"`
	StomachTemperature float64   `json:"stomach_temperature"`
	PeristalticCount   int       `json:"peristaltic_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// Page es una página de animales (page es base cero).
type Page struct {
	Items []DTO `json:"items"`
	Total int   `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// toDTO arma la representación; device, metadata y readings pueden venir vacíos.
func toDTO(c Cattle, device *devices.Device, meta *Metadata, readings []SensorData) DTO {
	out := DTO{
		ID:           c.ID,
		Code:         c.Code,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		HealthStatus: c.HealthStatus,
		DeviceID:     c.DeviceID,
		LastUpdate:   c.LastUpdate,
		SensorData:   toSensorDTOs(readings),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	if device != nil {
		info := device.Summary()
		out.DeviceInfo = &info
	}
	if meta != nil {
		m := toMetadataDTO(*meta)
		out.Metadata = &m
	}
	return out
}

func toMetadataDTO(m Metadata) MetadataDTO {
	return MetadataDTO{
		ID:        m.ID,
		CattleID:  m.CattleID,
		Age:       m.Age,
		Weight:    m.Weight,
		Breed:     m.Breed,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMetadataDTOs(items []Metadata) []MetadataDTO {
	out := make([]MetadataDTO, 0, len(items))
	for _, m := range items {
		out = append(out, toMetadataDTO(m))
	}
	return out
}

func toSensorDTO(s SensorData) SensorDataDTO {
	return SensorDataDTO{
		ID:                 s.ID,
		CattleID:           s.CattleID,
		Timestamp:          s.Timestamp,
		StomachTemperature: s.StomachTemperature,
		PeristalticCount:   s.PeristalticCount,
		CreatedAt:          s.CreatedAt,
	}
}

func toSensorDTOs(items []SensorData) []SensorDataDTO {
	out := make([]SensorDataDTO, 0, len(items))
	for _, s := range items {
		out = append(out, toSensorDTO(s))
	}
	return out
}
