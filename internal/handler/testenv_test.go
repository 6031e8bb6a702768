package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/altasolucion/visit-tracker/internal/config"
	"github.com/altasolucion/visit-tracker/internal/handler"
	"github.com/altasolucion/visit-tracker/internal/middleware"
	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/queue"
	"github.com/altasolucion/visit-tracker/internal/repository"
	"github.com/altasolucion/visit-tracker/internal/router"
	"github.com/altasolucion/visit-tracker/internal/storage"
	"github.com/altasolucion/visit-tracker/internal/utils"
	"github.com/altasolucion/visit-tracker/internal/view"
)

// env is a fully wired application over the in-memory stores, exercising the
// real router and middleware chain.
type env struct {
	e      *echo.Echo
	cfg    config.Config
	users  *repository.MemoryUserStore
	visits *repository.MemoryVisitStore
	root   string
	events []queue.VisitCreatedEvent
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Config{
		Env:           "test",
		SessionSecret: "test-secret",
		SessionTTL:    8 * time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}
	root := t.TempDir()
	files := storage.NewFileStore(root)
	ev := &env{
		cfg:    cfg,
		users:  repository.NewMemoryUserStore(bcrypt.MinCost),
		visits: repository.NewMemoryVisitStore(files),
		root:   root,
	}

	vh := handler.NewVisitHandler(ev.visits)
	vh.Publish = func(_ context.Context, e queue.VisitCreatedEvent) error {
		ev.events = append(ev.events, e)
		return nil
	}

	e := echo.New()
	e.Renderer = view.New()
	router.Register(e, router.Deps{
		Cfg:       cfg,
		RateLimit: config.RateLimitConfig{Enabled: false},
		Auth:      handler.NewAuthHandler(cfg, ev.users),
		Visits:    vh,
		Admin:     handler.NewUserAdminHandler(ev.users),
	})
	ev.e = e
	return ev
}

// addUser creates an account and returns it.
func (ev *env) addUser(t *testing.T, usuario, rol, password string) model.User {
	t.Helper()
	id, err := ev.users.Create(context.Background(), repository.CreateUserParams{
		Usuario: usuario, Nombre: usuario, Apellido: "Test",
		Email: usuario + "@test.com", Password: password, Rol: rol,
	})
	if err != nil {
		t.Fatalf("addUser(%s): %v", usuario, err)
	}
	u, err := ev.users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	ev.visits.Owners[id] = u.Nombre + " " + u.Apellido
	return u
}

// sessionCookie mints a valid session cookie for the user.
func (ev *env) sessionCookie(t *testing.T, u model.User) *http.Cookie {
	t.Helper()
	tok, err := utils.NewSessionToken(ev.cfg.SessionSecret, u, ev.cfg.SessionTTL)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: middleware.SessionCookie, Value: tok.Token}
}

// expiredCookie mints a session cookie already past its absolute expiry.
func (ev *env) expiredCookie(t *testing.T, u model.User) *http.Cookie {
	t.Helper()
	tok, err := utils.NewSessionToken(ev.cfg.SessionSecret, u, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: middleware.SessionCookie, Value: tok.Token}
}

func (ev *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	return rec
}

func formReq(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// visitForm builds a multipart request for POST /visitas/nueva.
type visitForm struct {
	cliente     string
	comentarios string
	proxima     string
	firma       string
	photos      []string // filenames; content is the name itself
}

func defaultFirma() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("firma-png"))
}

func (vf visitForm) request(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("cliente", vf.cliente)
	_ = w.WriteField("comentarios", vf.comentarios)
	if vf.proxima != "" {
		_ = w.WriteField("proxima_visita", vf.proxima)
	}
	if vf.firma != "" {
		_ = w.WriteField("firma", vf.firma)
	}
	for _, name := range vf.photos {
		part, err := w.CreateFormFile("fotos", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(part, name); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/visitas/nueva", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

// rendered decodes the JSON emitted by the view renderer.
type rendered struct {
	View string                 `json:"view"`
	Data map[string]interface{} `json:"data"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) rendered {
	t.Helper()
	var r rendered
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode rendered view: %v (body: %s)", err, rec.Body.String())
	}
	return r
}
