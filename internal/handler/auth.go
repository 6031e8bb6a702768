package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/config"
	"github.com/altasolucion/visit-tracker/internal/middleware"
	"github.com/altasolucion/visit-tracker/internal/repository"
	"github.com/altasolucion/visit-tracker/internal/utils"
)

// AuthHandler implements login, logout and the self-service password change.
type AuthHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewAuthHandler(cfg config.Config, users UserStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

// Root redirects / to the login form.
func (h *AuthHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/login")
}

// LoginForm renders the login view.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", echo.Map{"empresa": empresa, "logo": logo})
}

// Login authenticates the posted credentials and starts a session. Every
// failure (unknown usuario, inactive account, wrong password) produces the
// same message and status so the response never reveals which part failed.
func (h *AuthHandler) Login(c echo.Context) error {
	usuario := strings.TrimSpace(c.FormValue("usuario"))
	password := c.FormValue("password")
	if usuario == "" || password == "" {
		return c.Render(http.StatusBadRequest, "login",
			echo.Map{"empresa": empresa, "logo": logo, "error": "usuario y password requeridos"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindActiveByLogin(ctx, usuario)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return h.loginRejected(c)
		}
		return c.Render(http.StatusInternalServerError, "login",
			echo.Map{"empresa": empresa, "logo": logo, "error": "error interno"})
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return h.loginRejected(c)
	}

	tok, err := utils.NewSessionToken(h.Cfg.SessionSecret, u, h.Cfg.SessionTTL)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "login",
			echo.Map{"empresa": empresa, "logo": logo, "error": "error interno"})
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *AuthHandler) loginRejected(c echo.Context) error {
	return c.Render(http.StatusUnauthorized, "login",
		echo.Map{"empresa": empresa, "logo": logo, "error": "Credenciales incorrectas"})
}

// Logout clears the session cookie. The token itself stays valid until its
// absolute expiry; there is no revocation list.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.Redirect(http.StatusSeeOther, "/login")
}

// ChangePasswordForm renders the password change view.
func (h *AuthHandler) ChangePasswordForm(c echo.Context) error {
	_, usuario, rol, err := currentUser(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	return c.Render(http.StatusOK, "cambiar_password",
		echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "rol": rol})
}

// ChangePassword lets the authenticated account replace its own credential.
// The session stays valid afterward.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, usuario, rol, err := currentUser(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	actual := c.FormValue("actual")
	nueva := c.FormValue("nueva")
	confirmar := c.FormValue("confirmar")

	render := func(status int, msg string) error {
		return c.Render(status, "cambiar_password",
			echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "rol": rol, "error": msg})
	}

	if nueva != confirmar {
		return render(http.StatusBadRequest, "Las contraseñas no coinciden")
	}
	if len(nueva) < utils.MinPasswordLen {
		return render(http.StatusBadRequest, "La nueva contraseña debe tener al menos 6 caracteres")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return render(http.StatusInternalServerError, "error interno")
	}
	if !utils.VerifyPassword(u.PasswordHash, actual) {
		return render(http.StatusUnauthorized, "Contraseña actual incorrecta")
	}
	hash, err := utils.HashPassword(nueva, h.Cfg.BcryptCost)
	if err != nil {
		return render(http.StatusInternalServerError, "error interno")
	}
	if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
		return render(http.StatusInternalServerError, "error interno")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard?password=1")
}
