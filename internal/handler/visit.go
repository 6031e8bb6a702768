package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/queue"
	"github.com/altasolucion/visit-tracker/internal/repository"
	"github.com/altasolucion/visit-tracker/internal/storage"
)

// MinPhotos is the minimum number of photos a visit must carry.
const MinPhotos = 2

// VisitHandler implements the visit log: role-scoped listing and the
// multipart creation workflow (photos + captured signature).
type VisitHandler struct {
	Visits VisitStore
	// Publish sends the post-commit event. Best effort: failures are
	// ignored by the request. Nil disables publishing.
	Publish func(ctx context.Context, ev queue.VisitCreatedEvent) error
}

func NewVisitHandler(visits VisitStore) *VisitHandler {
	return &VisitHandler{Visits: visits}
}

// List renders the visit log. Vendedores see only their own visits; admins
// see everyone's, with the owning vendedor's name attached.
func (h *VisitHandler) List(c echo.Context) error {
	id, usuario, rol, err := currentUser(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	var visits []model.VisitDetail
	if rol == model.RolAdmin {
		visits, err = h.Visits.ListAll(ctx)
	} else {
		visits, err = h.Visits.ListForUser(ctx, id)
	}
	if err != nil {
		return c.Render(http.StatusInternalServerError, "visitas",
			echo.Map{"empresa": empresa, "logo": logo, "error": "error interno"})
	}
	data := echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "rol": rol, "visitas": visits}
	if c.QueryParam("creada") == "1" {
		data["aviso"] = "Visita registrada"
	}
	return c.Render(http.StatusOK, "visitas", data)
}

// Create handles POST /visitas/nueva. The request must carry a client name,
// comments, at least MinPhotos photos with allowed extensions and a signature
// data-URL. Nothing is persisted unless every input validates and the whole
// transaction commits.
func (h *VisitHandler) Create(c echo.Context) error {
	id, usuario, _, err := currentUser(c)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	reject := func(msg string) error {
		return c.Render(http.StatusBadRequest, "visitas",
			echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "error": msg})
	}

	cliente := strings.TrimSpace(c.FormValue("cliente"))
	comentarios := strings.TrimSpace(c.FormValue("comentarios"))
	if cliente == "" || comentarios == "" {
		return reject("cliente y comentarios son obligatorios")
	}

	var proxima *time.Time
	if v := strings.TrimSpace(c.FormValue("proxima_visita")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return reject("fecha de próxima visita inválida")
		}
		proxima = &t
	}

	firma, err := storage.DecodeSignatureDataURL(c.FormValue("firma"))
	if err != nil {
		return reject("firma requerida")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return reject("se requieren al menos 2 fotos")
	}
	files := form.File["fotos"]
	if len(files) < MinPhotos {
		return reject("se requieren al menos 2 fotos")
	}
	photos := make([]repository.PhotoUpload, 0, len(files))
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !storage.AllowedPhotoExt[ext] {
			return reject("formato de foto no permitido")
		}
		data, err := readUpload(fh)
		if err != nil {
			return reject("no se pudo leer la foto")
		}
		photos = append(photos, repository.PhotoUpload{Name: fh.Filename, Data: data})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	det, err := h.Visits.Create(ctx, repository.CreateVisitParams{
		UserID:        id,
		Fecha:         time.Now().UTC(),
		Cliente:       cliente,
		Comentarios:   comentarios,
		ProximaVisita: proxima,
		Firma:         firma,
		Photos:        photos,
	})
	if err != nil {
		if errors.Is(err, storage.ErrBadExtension) {
			return reject("formato de foto no permitido")
		}
		return c.Render(http.StatusInternalServerError, "visitas",
			echo.Map{"empresa": empresa, "logo": logo, "usuario": usuario, "error": "no se pudo registrar la visita"})
	}

	if h.Publish != nil {
		_ = h.Publish(ctx, queue.VisitCreatedEvent{
			VisitID:   det.ID,
			UserID:    det.UserID,
			Usuario:   usuario,
			Cliente:   det.Cliente,
			FotoCount: len(det.Photos),
			CreatedAt: det.Fecha.Format(time.RFC3339),
		})
	}
	return c.Redirect(http.StatusSeeOther, "/visitas?creada=1")
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
