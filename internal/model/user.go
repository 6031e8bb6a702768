package model

import "time"

// Roles stored in the usuarios.rol column.
const (
	RolAdmin    = "admin"
	RolVendedor = "vendedor"
)

// User mirrors the 'usuarios' table. PasswordHash is never serialized.
type User struct {
	ID           uint64    `json:"id"`
	Usuario      string    `json:"usuario"`
	Nombre       string    `json:"nombre"`
	Apellido     string    `json:"apellido"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Rol          string    `json:"rol"`
	Activo       bool      `json:"activo"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Rol == RolAdmin }
