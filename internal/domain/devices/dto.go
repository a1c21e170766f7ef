package devices

import (
	"strings"
	"time"
)

// Input es el cuerpo de alta/actualización (reemplazo completo).
type Input struct {
	Code            string     `json:"device_code" validate:"required,max=50"`
	Type            string     `json:"device_type" validate:"required,max=50"`
	Status          string     `json:"status" validate:"omitempty,max=20"`
	LastOnline      *time.Time `json:"last_online"`
	BatteryLevel    *int       `json:"battery_level" validate:"omitempty,gte=0,lte=100"`
	FirmwareVersion string     `json:"firmware_version" validate:"max=50"`
}

func (in Input) normalized() Input {
	in.Code = strings.TrimSpace(in.Code)
	in.Type = strings.TrimSpace(in.Type)
	in.Status = strings.TrimSpace(in.Status)
	in.FirmwareVersion = strings.TrimSpace(in.FirmwareVersion)
	return in
}

type DTO struct {
	ID              int64      `json:"id"`
	Code            string     `json:"device_code"`
	Type            string     `json:"device_type"`
	Status          string     `json:"status"`
	LastOnline      *time.Time `json:"last_online,omitempty"`
	BatteryLevel    *int       `json:"battery_level,omitempty"`
	FirmwareVersion string     `json:"firmware_version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ToDTO(d Device) DTO {
	return DTO{
		ID:              d.ID,
		Code:            d.Code,
		Type:            d.Type,
		Status:          d.Status,
		LastOnline:      d.LastOnline,
		BatteryLevel:    d.BatteryLevel,
		FirmwareVersion: d.FirmwareVersion,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func toDTOs(items []Device) []DTO {
	out := make([]DTO, 0, len(items))
	for _, d := range items {
		out = append(out, ToDTO(d))
	}
	return out
}
