package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Dashboard renders the landing page for an authenticated account.
func Dashboard(c echo.Context) error {
	_, usuario, rol, err := currentUser(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	data := echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "rol": rol}
	if c.QueryParam("password") == "1" {
		data["aviso"] = "Contraseña actualizada"
	}
	return c.Render(http.StatusOK, "dashboard", data)
}
