package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/storage"
)

// PhotoUpload is one accepted multipart file. Name contributes only its
// extension to the stored filename.
type PhotoUpload struct {
	Name string
	Data []byte
}

// CreateVisitParams carries a fully validated visit: callers have already
// checked the required fields, the photo count and extensions, and decoded
// the signature data-URL into Firma.
type CreateVisitParams struct {
	UserID        uint64
	Fecha         time.Time
	Cliente       string
	Comentarios   string
	ProximaVisita *time.Time
	Firma         []byte
	Photos        []PhotoUpload
}

// VisitRepo provides access to the 'actividades' and 'fotos' tables plus the
// content directory backing them.
type VisitRepo struct {
	DB    *sql.DB
	Files *storage.FileStore
}

func NewVisitRepo(db *sql.DB, files *storage.FileStore) *VisitRepo {
	return &VisitRepo{DB: db, Files: files}
}

// Create persists a visit, its signature and its photos as one logical
// transaction. If any step fails, the database transaction rolls back and
// every file written so far is removed, so no row ever references a missing
// file and no orphaned file survives a failed request.
func (r *VisitRepo) Create(ctx context.Context, p CreateVisitParams) (model.VisitDetail, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.VisitDetail{}, err
	}
	var written []string
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
			for _, rel := range written {
				_ = r.Files.Remove(rel)
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO actividades (usuario_id,fecha,cliente,comentarios,proxima_visita) VALUES (?,?,?,?,?)",
		p.UserID, p.Fecha, p.Cliente, p.Comentarios, nullableDate(p.ProximaVisita))
	if err != nil {
		return model.VisitDetail{}, err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return model.VisitDetail{}, err
	}
	visitID := uint64(id64)

	firmaPath, err := r.Files.SaveSignature(visitID, p.Firma)
	if err != nil {
		return model.VisitDetail{}, err
	}
	written = append(written, firmaPath)
	if _, err := tx.ExecContext(ctx,
		"UPDATE actividades SET firma=? WHERE id=?", firmaPath, visitID); err != nil {
		return model.VisitDetail{}, err
	}

	det := model.VisitDetail{
		Visit: model.Visit{
			ID: visitID, UserID: p.UserID, Fecha: p.Fecha,
			Cliente: p.Cliente, Comentarios: p.Comentarios,
			ProximaVisita: p.ProximaVisita, FirmaPath: firmaPath,
		},
		Photos: make([]model.Photo, 0, len(p.Photos)),
	}
	for _, ph := range p.Photos {
		rel, err := r.Files.SavePhoto(visitID, ph.Name, ph.Data)
		if err != nil {
			return model.VisitDetail{}, err
		}
		written = append(written, rel)
		pres, err := tx.ExecContext(ctx,
			"INSERT INTO fotos (actividad_id,archivo) VALUES (?,?)", visitID, rel)
		if err != nil {
			return model.VisitDetail{}, err
		}
		pid, err := pres.LastInsertId()
		if err != nil {
			return model.VisitDetail{}, err
		}
		det.Photos = append(det.Photos, model.Photo{ID: uint64(pid), VisitID: visitID, Path: rel})
	}

	if err := tx.Commit(); err != nil {
		return model.VisitDetail{}, err
	}
	committed = true
	return det, nil
}

// ListForUser returns the visits owned by one account, newest first.
func (r *VisitRepo) ListForUser(ctx context.Context, userID uint64) ([]model.VisitDetail, error) {
	const q = `SELECT a.id, a.usuario_id, a.fecha, a.cliente, a.comentarios, a.proxima_visita, a.firma
	           FROM actividades a WHERE a.usuario_id=? ORDER BY a.fecha DESC, a.id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows, false)
}

// ListAll returns every visit with the owning vendedor's display name for the
// admin view, newest first.
func (r *VisitRepo) ListAll(ctx context.Context) ([]model.VisitDetail, error) {
	const q = `SELECT a.id, a.usuario_id, a.fecha, a.cliente, a.comentarios, a.proxima_visita, a.firma,
	                  CONCAT(u.nombre,' ',u.apellido)
	           FROM actividades a
	           JOIN usuarios u ON u.id = a.usuario_id
	           ORDER BY a.fecha DESC, a.id DESC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows, true)
}

func (r *VisitRepo) collect(ctx context.Context, rows *sql.Rows, withOwner bool) ([]model.VisitDetail, error) {
	defer rows.Close()
	visits := make([]model.VisitDetail, 0)
	for rows.Next() {
		var d model.VisitDetail
		var prox sql.NullTime
		var firma sql.NullString
		dest := []interface{}{&d.ID, &d.UserID, &d.Fecha, &d.Cliente, &d.Comentarios, &prox, &firma}
		if withOwner {
			dest = append(dest, &d.Vendedor)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if prox.Valid {
			t := prox.Time
			d.ProximaVisita = &t
		}
		if firma.Valid {
			d.FirmaPath = firma.String
		}
		d.Photos = make([]model.Photo, 0)
		visits = append(visits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range visits {
		photos, err := r.photosFor(ctx, visits[i].ID)
		if err != nil {
			return nil, err
		}
		visits[i].Photos = photos
	}
	return visits, nil
}

func (r *VisitRepo) photosFor(ctx context.Context, visitID uint64) ([]model.Photo, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, actividad_id, archivo FROM fotos WHERE actividad_id=? ORDER BY id", visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	photos := make([]model.Photo, 0)
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.VisitID, &p.Path); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func nullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
