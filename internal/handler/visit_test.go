package handler_test

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/altasolucion/visit-tracker/internal/model"
)

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return n
}

func TestCreateVisitRoundTrip(t *testing.T) {
	ev := newEnv(t)
	u := ev.addUser(t, "demo", model.RolVendedor, "demo1234")
	admin := ev.addUser(t, "admin", model.RolAdmin, "admin123")

	vf := visitForm{
		cliente:     "Acme",
		comentarios: "follow up",
		proxima:     "2026-09-15",
		firma:       defaultFirma(),
		photos:      []string{"a.png", "b.jpg"},
	}
	rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/visitas?creada=1" {
		t.Fatalf("got %d -> %q (%s)", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	visits, err := ev.visits.ListForUser(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 1 {
		t.Fatalf("want exactly 1 visit, got %d", len(visits))
	}
	v := visits[0]
	if v.Cliente != "Acme" || v.Comentarios != "follow up" {
		t.Fatalf("unexpected visit: %+v", v)
	}
	if v.ProximaVisita == nil || v.ProximaVisita.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("next visit date lost: %v", v.ProximaVisita)
	}
	if len(v.Photos) != 2 {
		t.Fatalf("want 2 attachments, got %d", len(v.Photos))
	}
	if v.FirmaPath == "" {
		t.Fatal("signature reference missing")
	}
	// 2 photos + 1 signature on disk.
	if got := countFiles(t, ev.root); got != 3 {
		t.Fatalf("want 3 files, got %d", got)
	}
	// Admin sees it too.
	all, err := ev.visits.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("admin listing: want 1 visit, got %d", len(all))
	}
	_ = admin

	// Post-commit event was published.
	if len(ev.events) != 1 {
		t.Fatalf("want 1 published event, got %d", len(ev.events))
	}
	e := ev.events[0]
	if e.VisitID != v.ID || e.Usuario != "demo" || e.Cliente != "Acme" || e.FotoCount != 2 {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestCreateVisitTooFewPhotos(t *testing.T) {
	ev := newEnv(t)
	u := ev.addUser(t, "demo", model.RolVendedor, "demo1234")

	vf := visitForm{cliente: "Acme", comentarios: "x", firma: defaultFirma(), photos: []string{"a.png"}}
	rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	assertNoOp(t, ev)
}

func TestCreateVisitMissingSignature(t *testing.T) {
	ev := newEnv(t)
	u := ev.addUser(t, "demo", model.RolVendedor, "demo1234")

	vf := visitForm{cliente: "Acme", comentarios: "x", photos: []string{"a.png", "b.jpg"}}
	rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	assertNoOp(t, ev)
}

func TestCreateVisitBadExtension(t *testing.T) {
	ev := newEnv(t)
	u := ev.addUser(t, "demo", model.RolVendedor, "demo1234")

	vf := visitForm{cliente: "Acme", comentarios: "x", firma: defaultFirma(), photos: []string{"a.png", "malo.exe"}}
	rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	assertNoOp(t, ev)
}

func TestCreateVisitMissingFields(t *testing.T) {
	ev := newEnv(t)
	u := ev.addUser(t, "demo", model.RolVendedor, "demo1234")

	vf := visitForm{cliente: "", comentarios: "x", firma: defaultFirma(), photos: []string{"a.png", "b.jpg"}}
	rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	assertNoOp(t, ev)
}

func assertNoOp(t *testing.T, ev *env) {
	t.Helper()
	if n := ev.visits.VisitCount(); n != 0 {
		t.Fatalf("visit persisted on rejected request: %d", n)
	}
	if n := countFiles(t, ev.root); n != 0 {
		t.Fatalf("files persisted on rejected request: %d", n)
	}
	if len(ev.events) != 0 {
		t.Fatal("event published on rejected request")
	}
}

func TestVisitListScopedByRole(t *testing.T) {
	ev := newEnv(t)
	ana := ev.addUser(t, "ana", model.RolVendedor, "ana123456")
	beto := ev.addUser(t, "beto", model.RolVendedor, "beto12345")
	admin := ev.addUser(t, "admin", model.RolAdmin, "admin123")

	for _, u := range []model.User{ana, beto} {
		vf := visitForm{cliente: "Cliente " + u.Usuario, comentarios: "c", firma: defaultFirma(), photos: []string{"a.png", "b.jpg"}}
		rec := ev.do(vf.request(t), ev.sessionCookie(t, u))
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("setup visit for %s: %d", u.Usuario, rec.Code)
		}
	}

	// Vendedor sees only their own visit.
	rec := ev.do(httptest.NewRequest(http.MethodGet, "/visitas", nil), ev.sessionCookie(t, ana))
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	r := decodeView(t, rec)
	if r.View != "visitas" {
		t.Fatalf("unexpected view %q", r.View)
	}
	list, ok := r.Data["visitas"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("vendedor listing: %+v", r.Data["visitas"])
	}
	first := list[0].(map[string]interface{})
	if first["cliente"] != "Cliente ana" {
		t.Fatalf("foreign visit leaked into vendedor listing: %+v", first)
	}

	// Admin sees both.
	rec = ev.do(httptest.NewRequest(http.MethodGet, "/visitas", nil), ev.sessionCookie(t, admin))
	r = decodeView(t, rec)
	list, ok = r.Data["visitas"].([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("admin listing: %+v", r.Data["visitas"])
	}
}
