package devices

import (
	"net/http"
	"strconv"
	"strings"

	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /devices. extra permite a otros módulos colgar
// sub-rutas (p.ej. /devices/{id}/cattle) sin importar este paquete al revés.
func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger, extra ...func(dr chi.Router)) {
	r.Route("/devices", func(dr chi.Router) {
		dr.Post("/", createDeviceHandler(svc, log))
		dr.Get("/", listDevicesHandler(svc, log))
		dr.Get("/code/{code}", getDeviceByCodeHandler(svc, log))

		dr.Get("/{id}", getDeviceHandler(svc, log))
		dr.Put("/{id}", updateDeviceHandler(svc, log))
		dr.Delete("/{id}", deleteDeviceHandler(svc, log))

		for _, fn := range extra {
			fn(dr)
		}
	})
}

// createDeviceHandler godoc
// @Summary Registrar dispositivo
// @Description Registra un dispositivo IoT. `device_code` es único; `status` por defecto es `active`.
// @Tags devices
// @Accept json
// @Produce json
// @Param payload body Input true "Datos del dispositivo"
// @Success 201 {object} DTO
// @Failure 400 {object} map[string]any "json inválido / validación / device_code duplicado"
// @Router /devices [post]
func createDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		d, err := svc.Create(r.Context(), in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, d)
	}
}

// listDevicesHandler godoc
// @Summary Listar dispositivos
// @Description Sin filtros devuelve todos. Filtros excluyentes: `status`, `type` o `battery_below`.
// @Tags devices
// @Produce json
// @Param status query string false "Estado exacto (active, inactive, ...)"
// @Param type query string false "Tipo de dispositivo"
// @Param battery_below query int false "Batería estrictamente menor a este valor"
// @Success 200 {array} DTO
// @Failure 400 {object} map[string]any
// @Router /devices [get]
func listDevicesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var (
			items []DTO
			err   error
		)
		switch {
		case strings.TrimSpace(q.Get("status")) != "":
			items, err = svc.ListByStatus(r.Context(), q.Get("status"))
		case strings.TrimSpace(q.Get("type")) != "":
			items, err = svc.ListByType(r.Context(), q.Get("type"))
		case strings.TrimSpace(q.Get("battery_below")) != "":
			level, convErr := strconv.Atoi(strings.TrimSpace(q.Get("battery_below")))
			if convErr != nil {
				respond.BadRequest(w, "battery_below must be an integer")
				return
			}
			items, err = svc.ListLowBattery(r.Context(), level)
		default:
			items, err = svc.List(r.Context())
		}
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, items)
	}
}

func getDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid device id")
			return
		}

		d, err := svc.GetByID(r.Context(), id)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, d)
	}
}

func getDeviceByCodeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, d)
	}
}

// updateDeviceHandler godoc
// @Summary Actualizar dispositivo
// @Description Reemplazo completo: hay que reenviar todos los campos.
// @Tags devices
// @Accept json
// @Produce json
// @Param id path int true "ID del dispositivo"
// @Param payload body Input true "Datos completos del dispositivo"
// @Success 200 {object} DTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /devices/{id} [put]
func updateDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid device id")
			return
		}

		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		d, err := svc.Update(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, d)
	}
}

func deleteDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid device id")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			respond.Error(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
