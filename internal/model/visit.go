package model

import "time"

// Visit mirrors the 'actividades' table. A visit is immutable once created;
// FirmaPath points at the captured signature image relative to the content dir.
type Visit struct {
	ID            uint64     `json:"id"`
	UserID        uint64     `json:"user_id"`
	Fecha         time.Time  `json:"fecha"`
	Cliente       string     `json:"cliente"`
	Comentarios   string     `json:"comentarios"`
	ProximaVisita *time.Time `json:"proxima_visita,omitempty"`
	FirmaPath     string     `json:"firma,omitempty"`
}

// Photo mirrors the 'fotos' table. Path is relative to the content dir.
type Photo struct {
	ID      uint64 `json:"id"`
	VisitID uint64 `json:"visit_id"`
	Path    string `json:"archivo"`
}

// VisitDetail is a visit plus its photos and, for the admin listing, the
// display name of the owning vendedor.
type VisitDetail struct {
	Visit
	Vendedor string  `json:"vendedor,omitempty"`
	Photos   []Photo `json:"fotos"`
}
