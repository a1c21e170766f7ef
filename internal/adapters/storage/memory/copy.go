package memory

import (
	"livestock-tracking/internal/domain/cattle"
	"livestock-tracking/internal/domain/devices"
	"livestock-tracking/internal/domain/users"
)

// Las filas se copian al guardar y al leer: el llamador nunca comparte
// punteros con lo almacenado (igual que con un driver SQL).

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyCattle(c cattle.Cattle) cattle.Cattle {
	c.Latitude = clonePtr(c.Latitude)
	c.Longitude = clonePtr(c.Longitude)
	c.DeviceID = clonePtr(c.DeviceID)
	c.LastUpdate = clonePtr(c.LastUpdate)
	return c
}

func copyMetadata(m cattle.Metadata) cattle.Metadata {
	m.Age = clonePtr(m.Age)
	m.Weight = clonePtr(m.Weight)
	return m
}

func copyDevice(d devices.Device) devices.Device {
	d.LastOnline = clonePtr(d.LastOnline)
	d.BatteryLevel = clonePtr(d.BatteryLevel)
	return d
}

func copyUser(u users.User) users.User {
	u.LastLogin = clonePtr(u.LastLogin)
	return u
}
