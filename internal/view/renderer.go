// Package view decouples handlers from page rendering. Handlers name a view
// and hand over a data context; how that view becomes markup is the frontend's
// concern. The default renderer emits the name and context as JSON so the
// backend surface is complete without any template files.
package view

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
)

// Renderer implements echo.Renderer.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

// Render writes {"view": name, "data": data}.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return json.NewEncoder(w).Encode(map[string]interface{}{
		"view": name,
		"data": data,
	})
}
