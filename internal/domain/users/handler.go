package users

import (
	"net/http"
	"strings"

	"livestock-tracking/internal/platform/logger"
	"livestock-tracking/internal/platform/respond"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/users", func(ur chi.Router) {
		ur.Post("/", createUserHandler(svc, log))
		ur.Get("/", listUsersHandler(svc, log))
		ur.Get("/exists", existsHandler(svc, log))
		ur.Get("/username/{username}", getUserByUsernameHandler(svc, log))

		ur.Get("/{id}", getUserHandler(svc, log))
		ur.Put("/{id}", updateUserHandler(svc, log))
		ur.Delete("/{id}", deleteUserHandler(svc, log))

		ur.Patch("/{id}/role", updateRoleHandler(svc, log))
		ur.Patch("/{id}/status", updateStatusHandler(svc, log))
		ur.Post("/{id}/last-login", lastLoginHandler(svc, log))
	})
}

// createUserHandler godoc
// @Summary Crear usuario
// @Description `role` por defecto es `viewer`; el usuario nace activo. La contraseña nunca se devuelve.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body CreateInput true "Datos del usuario"
// @Success 201 {object} DTO
// @Failure 400 {object} map[string]any "validación / username o email duplicado"
// @Router /users [post]
func createUserHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		u, err := svc.Create(r.Context(), in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, u)
	}
}

func listUsersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, items)
	}
}

// existsHandler godoc
// @Summary Verificar disponibilidad
// @Description Exactamente uno de `username` o `email`.
// @Tags users
// @Produce json
// @Param username query string false "Username"
// @Param email query string false "Email"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]any
// @Router /users/exists [get]
func existsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		username := strings.TrimSpace(q.Get("username"))
		email := strings.TrimSpace(q.Get("email"))

		var (
			exists bool
			err    error
		)
		switch {
		case username != "" && email == "":
			exists, err = svc.ExistsByUsername(r.Context(), username)
		case email != "" && username == "":
			exists, err = svc.ExistsByEmail(r.Context(), email)
		default:
			respond.BadRequest(w, "exactly one of username or email is required")
			return
		}
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]bool{"exists": exists})
	}
}

func getUserHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		u, err := svc.GetByID(r.Context(), id)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

func getUserByUsernameHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByUsername(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

// updateUserHandler godoc
// @Summary Actualizar usuario
// @Description Reemplaza username, name, email y phone. `password` vacío conserva la actual.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "ID del usuario"
// @Param payload body UpdateInput true "Perfil"
// @Success 200 {object} DTO
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /users/{id} [put]
func updateUserHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		var in UpdateInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		u, err := svc.Update(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			respond.Error(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateRoleHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		var in RoleInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		u, err := svc.UpdateRole(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

func updateStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		var in StatusInput
		if err := respond.Decode(r, &in); err != nil {
			respond.BadRequest(w, "invalid json")
			return
		}

		u, err := svc.UpdateStatus(r.Context(), id, in)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}

func lastLoginHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ParseID(chi.URLParam(r, "id"))
		if !ok {
			respond.BadRequest(w, "invalid user id")
			return
		}

		u, err := svc.UpdateLastLogin(r.Context(), id)
		if err != nil {
			respond.Error(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, u)
	}
}
