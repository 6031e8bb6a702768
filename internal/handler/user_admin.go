package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/repository"
	"github.com/altasolucion/visit-tracker/internal/utils"
)

// UserAdminHandler implements the admin-only user management screen. The
// role gate lives in middleware; these handlers assume an admin session.
type UserAdminHandler struct {
	Users UserStore
}

func NewUserAdminHandler(users UserStore) *UserAdminHandler {
	return &UserAdminHandler{Users: users}
}

// List renders every account.
func (h *UserAdminHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "usuarios",
			echo.Map{"empresa": empresa, "logo": logo, "error": "error interno"})
	}
	return c.Render(http.StatusOK, "usuarios",
		echo.Map{"empresa": empresa, "logo": logo, "usuarios": users})
}

// Create adds an account. Duplicate usuario or email is reported back as a
// conflict and leaves the table untouched.
func (h *UserAdminHandler) Create(c echo.Context) error {
	p := repository.CreateUserParams{
		Usuario:  strings.TrimSpace(c.FormValue("usuario")),
		Nombre:   strings.TrimSpace(c.FormValue("nombre")),
		Apellido: strings.TrimSpace(c.FormValue("apellido")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
		Rol:      c.FormValue("rol"),
	}
	if p.Usuario == "" || p.Nombre == "" || p.Apellido == "" || p.Email == "" || p.Password == "" {
		return h.rejected(c, http.StatusBadRequest, "todos los campos son obligatorios")
	}
	if len(p.Password) < utils.MinPasswordLen {
		return h.rejected(c, http.StatusBadRequest, "la contraseña debe tener al menos 6 caracteres")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Users.Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsuarioExists):
			return h.rejected(c, http.StatusConflict, "el usuario ya existe")
		case errors.Is(err, repository.ErrEmailExists):
			return h.rejected(c, http.StatusConflict, "el email ya existe")
		default:
			return h.rejected(c, http.StatusInternalServerError, "error interno")
		}
	}
	return c.Redirect(http.StatusSeeOther, "/usuarios")
}

// Save applies a partial update to an account: display fields, role, active
// flag and optionally a new password.
func (h *UserAdminHandler) Save(c echo.Context) error {
	id, err := strconv.ParseUint(c.FormValue("id"), 10, 64)
	if err != nil || id == 0 {
		return h.rejected(c, http.StatusBadRequest, "id inválido")
	}
	p := repository.UpdateUserParams{
		Nombre:   strings.TrimSpace(c.FormValue("nombre")),
		Apellido: strings.TrimSpace(c.FormValue("apellido")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Rol:      c.FormValue("rol"),
		Activo:   formBool(c.FormValue("activo")),
		Password: c.FormValue("password"),
	}
	if p.Nombre == "" || p.Apellido == "" || p.Email == "" {
		return h.rejected(c, http.StatusBadRequest, "nombre, apellido y email son obligatorios")
	}
	if p.Password != "" && len(p.Password) < utils.MinPasswordLen {
		return h.rejected(c, http.StatusBadRequest, "la contraseña debe tener al menos 6 caracteres")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Update(ctx, id, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return h.rejected(c, http.StatusConflict, "el email ya existe")
		case errors.Is(err, repository.ErrUserNotFound):
			return h.rejected(c, http.StatusNotFound, "usuario no encontrado")
		default:
			return h.rejected(c, http.StatusInternalServerError, "error interno")
		}
	}
	return c.Redirect(http.StatusSeeOther, "/usuarios")
}

func (h *UserAdminHandler) rejected(c echo.Context, status int, msg string) error {
	return c.Render(status, "usuarios", echo.Map{"empresa": empresa, "logo": logo, "error": msg})
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "on", "true", "si", "sí":
		return true
	}
	return false
}
