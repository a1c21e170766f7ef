package cattle

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/cattle", func(cr chi.Router) {
		cr.Post("/", createCattleHandler(svc, log))
		cr.Get("/", listCattleHandler(svc, log))
		cr.Get("/code/{code}", getCattleByCodeHandler(svc, log))

		cr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", getCattleHandler(svc, log))
			ir.Put("/", updateCattleHandler(svc, log))
			ir.Delete("/", deleteCattleHandler(svc, log))

			ir.Patch("/location", updateLocationHandler(svc, log))
			ir.Patch("/health-status", updateHealthStatusHandler(svc, log))

			ir.Put("/metadata", updateMetadataHandler(svc, log))

			ir.Post("/sensor-data", addSensorDataHandler(svc, log))
			ir.Get("/sensor-data", listSensorDataHandler(svc, log))

			ir.Put("/device/{deviceID}", assignDeviceHandler(svc, log))
			ir.Delete("/device", removeDeviceHandler(svc, log))
		})
	})

	r.Get("/cattle-metadata", searchMetadataHandler(svc, log))
}

// DeviceCattleRoutes cuelga GET /{id}/cattle bajo el router de /devices.
func DeviceCattleRoutes(svc *Service, log logger.Logger) func(dr chi.Router) {
	return func(dr chi.Router) {
		dr.Get("/{id}/cattle", listByDeviceHandler(svc, log))
	}
}

// createCattleHandler godoc
// @Summary Registrar animal
// @Description Alta de un animal con metadata y lecturas iniciales opcionales. `health_status` por defecto es `healthy`.
// @Tags cattle
// @Accept json
// @Produce json
// @Param payload body Input true "Datos del animal"
// @Success 201 {object} DTO
// @Failure 400 {object} map[string]any "json inválido / validación / cattle_code duplicado"
// @Failure 404 {object} map[string]any "device_id inexistente"
// @Router /cattle [post]
func createCattleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.Create(r.Context(), in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, out)
	}
}

// listCattleHandler godoc
// @Summary Listar animales
// @Description Sin filtros devuelve una página (`page` base cero, `size` por defecto 20).
// @Description Con `health_status` o con la caja `lat_min,lat_max,lon_min,lon_max` devuelve la lista completa filtrada.
// @Tags cattle
// @Produce json
// @Param page query int false "Página (base cero)"
// @Param size query int false "Tamaño de página (máx 200)"
// @Param health_status query string false "Estado sanitario exacto"
// @Param lat_min query number false "Latitud mínima (inclusiva)"
// @Param lat_max query number false "Latitud máxima (inclusiva)"
// @Param lon_min query number false "Longitud mínima (inclusiva)"
// @Param lon_max query number false "Longitud máxima (inclusiva)"
// @Success 200 {object} Page
// @Failure 400 {object} map[string]any
// @Router /cattle [get]
func listCattleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if status := strings.TrimSpace(q.Get("health_status")); status != "" {
			items, err := svc.ListByHealthStatus(r.Context(), status)
			if err != nil {
				respond.Error(w, log, err)
				return
			}
			respond.JSON(w, http.StatusOK, items)
			return
		}

		if hasAny(q, "lat_min", "lat_max", "lon_min", "lon_max") {
			b, ok := parseBounds(q)
			if !ok {
				respond.BadRequest(w, "lat_min, lat_max, lon_min and lon_max must all be numbers")
				return
			}
			items, err := svc.ListWithinBounds(r.Context(), b)
			if err != nil {
				respond.Error(w, log, err)
				return
			}
			respond.JSON(w, http.StatusOK, items)
			return
		}

		page, ok := intParam(q, "page", 0)
		if !ok {
			respond.BadRequest(w, "page must be an integer")
			return
		}
		size, ok := intParam(q, "size", DefaultPageSize)
		if !ok {
			respond.BadRequest(w, "size must be an integer")
			return
		}

		out, err := svc.List(r.Context(), page, size)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// getCattleHandler godoc
// @Summary Obtener animal
// @Description `include=sensor_data` agrega todas las lecturas del animal.
// @Tags cattle
// @Produce json
// @Param id path int true "ID del animal"
// @Param include query string false "sensor_data"
// @Success 200 {object} DTO
// @Failure 404 {object} map[string]any
// @Router /cattle/{id} [get]
func getCattleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var (
			out DTO
			err error
		)
		if r.URL.Query().Get("include") == "sensor_data" {
			out, err = svc.GetWithSensorData(r.Context(), id)
		} else {
			out, err = svc.GetByID(r.Context(), id)
		}
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func getCattleByCodeHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// updateCattleHandler godoc
// @Summary Actualizar animal
// @Description Reemplazo completo de los campos escalares. Sin `device_id` el animal queda sin dispositivo.
// @Tags cattle
// @Accept json
// @Produce json
// @Param id path int true "ID del animal"
// @Param payload body Input true "Datos completos del animal"
// @Success 200 {object} DTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /cattle/{id} [put]
func updateCattleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.Update(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func updateLocationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var in LocationInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.UpdateLocation(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func updateHealthStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var in HealthStatusInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.UpdateHealthStatus(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func deleteCattleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			respond.Error(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// updateMetadataHandler godoc
// @Summary Guardar metadata
// @Description Crea la metadata del animal si no existe; si existe reemplaza todos sus campos.
// @Tags cattle
// @Accept json
// @Produce json
// @Param id path int true "ID del animal"
// @Param payload body MetadataInput true "Metadata"
// @Success 200 {object} MetadataDTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /cattle/{id}/metadata [put]
func updateMetadataHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var in MetadataInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.UpdateMetadata(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// addSensorDataHandler godoc
// @Summary Agregar lectura de sensor
// @Description Sin `timestamp` se usa el momento del alta. Refresca `last_update` del animal.
// @Tags cattle
// @Accept json
// @Produce json
// @Param id path int true "ID del animal"
// @Param payload body SensorDataInput true "Lectura"
// @Success 201 {object} SensorDataDTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /cattle/{id}/sensor-data [post]
func addSensorDataHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var in SensorDataInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		out, err := svc.AddSensorData(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, out)
	}
}

// listSensorDataHandler godoc
// @Summary Listar lecturas
// @Description `from` y `to` (RFC3339, inclusivos) van juntos.
// @Tags cattle
// @Produce json
// @Param id path int true "ID del animal"
// @Param from query string false "Desde (RFC3339)"
// @Param to query string false "Hasta (RFC3339)"
// @Success 200 {array} SensorDataDTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /cattle/{id}/sensor-data [get]
func listSensorDataHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		q := r.URL.Query()
		var (
			out []SensorDataDTO
			err error
		)
		if hasAny(q, "from", "to") {
			from, errFrom := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("from")))
			to, errTo := time.Parse(time.RFC3339, strings.TrimSpace(q.Get("to")))
			if errFrom != nil || errTo != nil {
				respond.BadRequest(w, "from and to must both be RFC3339 timestamps")
				return
			}
			out, err = svc.ListSensorDataBetween(r.Context(), id, from, to)
		} else {
			out, err = svc.ListSensorData(r.Context(), id)
		}
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func assignDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		deviceID, ok := pathID(w, r, "deviceID")
		if !ok {
			return
		}

		out, err := svc.AssignDevice(r.Context(), id, deviceID)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func removeDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		out, err := svc.RemoveDevice(r.Context(), id)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

func listByDeviceHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		out, err := svc.ListByDevice(r.Context(), deviceID)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// searchMetadataHandler godoc
// @Summary Buscar metadata
// @Description Un criterio por request: `breed`, o `min_age`+`max_age`, o `min_weight` (estrictamente mayor).
// @Tags cattle
// @Produce json
// @Param breed query string false "Raza exacta"
// @Param min_age query int false "Edad mínima (inclusiva)"
// @Param max_age query int false "Edad máxima (inclusiva)"
// @Param min_weight query number false "Peso estrictamente mayor a"
// @Success 200 {array} MetadataDTO
// @Failure 400 {object} map[string]any
// @Router /cattle-metadata [get]
func searchMetadataHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := MetadataFilter{Breed: q.Get("breed")}

		for _, p := range []struct {
			name string
			dst  **int
		}{{"min_age", &f.MinAge}, {"max_age", &f.MaxAge}} {
			raw := strings.TrimSpace(q.Get(p.name))
			if raw == "" {
				continue
			}
			v, err := strconv.Atoi(raw)
			if err != nil {
				respond.BadRequest(w, p.name+" must be an integer")
				return
			}
			*p.dst = &v
		}

		if raw := strings.TrimSpace(q.Get("min_weight")); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respond.BadRequest(w, "min_weight must be a number")
				return
			}
			f.MinWeight = &v
		}

		out, err := svc.SearchMetadata(r.Context(), f)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, out)
	}
}

// -------------------------
// Helpers de parseo
// -------------------------

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, ok := respond.ParseID(chi.URLParam(r, name))
	if !ok {
		respond.BadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

func hasAny(q url.Values, keys ...string) bool {
	for _, k := range keys {
		if strings.TrimSpace(q.Get(k)) != "" {
			return true
		}
	}
	return false
}

func intParam(q url.Values, key string, def int) (int, bool) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBounds(q url.Values) (Bounds, bool) {
	var vals [4]float64
	for i, k := range []string{"lat_min", "lat_max", "lon_min", "lon_max"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(q.Get(k)), 64)
		if err != nil {
			return Bounds{}, false
		}
		vals[i] = v
	}
	return Bounds{LatMin: vals[0], LatMax: vals[1], LonMin: vals[2], LonMax: vals[3]}, true
}
