package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/utils"
)

// CreateUserParams holds the fields of a new account. Password is plaintext
// and hashed inside the store; Rol falls back to vendedor when absent or
// unknown.
type CreateUserParams struct {
	Usuario  string
	Nombre   string
	Apellido string
	Email    string
	Password string
	Rol      string
}

// UpdateUserParams holds the mutable fields of an account. Password is
// optional; when non-empty it is re-hashed and replaces the stored credential.
type UpdateUserParams struct {
	Nombre   string
	Apellido string
	Email    string
	Rol      string
	Activo   bool
	Password string
}

// NormalizeRol maps arbitrary input to a valid role, defaulting to vendedor.
func NormalizeRol(rol string) string {
	if strings.TrimSpace(strings.ToLower(rol)) == model.RolAdmin {
		return model.RolAdmin
	}
	return model.RolVendedor
}

// UserRepo provides CRUD over the 'usuarios' table.
type UserRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost
}

func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

const userCols = "id,usuario,nombre,apellido,email,password_hash,rol,activo,created_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Usuario, &u.Nombre, &u.Apellido, &u.Email,
		&u.PasswordHash, &u.Rol, &u.Activo, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// FindActiveByLogin fetches an account by login identifier, restricted to
// active accounts. Only the login path uses this; an inactive account is
// indistinguishable from a missing one.
func (r *UserRepo) FindActiveByLogin(ctx context.Context, usuario string) (model.User, error) {
	usuario = strings.ToLower(strings.TrimSpace(usuario))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE usuario=? AND activo=1 LIMIT 1", usuario))
}

// GetByID fetches an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE id=? LIMIT 1", id))
}

// List returns every account, newest first, for the admin screen.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM usuarios ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Usuario, &u.Nombre, &u.Apellido, &u.Email,
			&u.PasswordHash, &u.Rol, &u.Activo, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserts an account and returns its id. Duplicate login identifiers
// and emails surface as ErrUsuarioExists / ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, p CreateUserParams) (uint64, error) {
	hash, err := utils.HashPassword(p.Password, r.Cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuarios (usuario,nombre,apellido,email,password_hash,rol,activo) VALUES (?,?,?,?,?,?,1)",
		strings.ToLower(strings.TrimSpace(p.Usuario)), p.Nombre, p.Apellido,
		strings.ToLower(strings.TrimSpace(p.Email)), hash, NormalizeRol(p.Rol))
	if err != nil {
		return 0, dupErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update applies a partial update to display fields, role, active flag and
// optionally the password credential.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UpdateUserParams) error {
	if p.Password != "" {
		hash, err := utils.HashPassword(p.Password, r.Cost)
		if err != nil {
			return err
		}
		_, err = r.DB.ExecContext(ctx,
			"UPDATE usuarios SET nombre=?,apellido=?,email=?,rol=?,activo=?,password_hash=? WHERE id=?",
			p.Nombre, p.Apellido, strings.ToLower(strings.TrimSpace(p.Email)),
			NormalizeRol(p.Rol), p.Activo, hash, id)
		return dupErr(err)
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE usuarios SET nombre=?,apellido=?,email=?,rol=?,activo=? WHERE id=?",
		p.Nombre, p.Apellido, strings.ToLower(strings.TrimSpace(p.Email)),
		NormalizeRol(p.Rol), p.Activo, id)
	return dupErr(err)
}

// UpdatePassword replaces the stored credential with an already-hashed value.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE usuarios SET password_hash=? WHERE id=?", hash, id)
	return err
}

// dupErr maps MySQL duplicate-key failures (error 1062) onto the sentinel
// for the colliding column.
func dupErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "1062") {
		if strings.Contains(msg, "email") {
			return ErrEmailExists
		}
		return ErrUsuarioExists
	}
	return err
}
