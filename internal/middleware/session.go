package middleware // shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/utils"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

// Context keys populated by SessionAuth.
const (
	CtxUserID  = "user_id"
	CtxUsuario = "usuario"
	CtxRol     = "rol"
)

// SessionAuth validates the session token from the session cookie (or a
// Bearer header) and injects the actor's id, login identifier and role into
// the request context. A missing or invalid session redirects to /login;
// expiry is absolute from login time, so an 8h-old token fails here no
// matter how recently it was used.
func SessionAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
				raw = ck.Value
			} else if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			s, err := utils.ParseSessionToken(secret, raw)
			if err != nil {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			c.Set(CtxUserID, s.UserID)
			c.Set(CtxUsuario, s.Usuario)
			c.Set(CtxRol, s.Rol)
			return next(c)
		}
	}
}
