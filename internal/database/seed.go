package database

import (
	"context"
	"errors"

	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/repository"
)

// Seed guarantees the initial accounts exist: the system admin and a demo
// vendedor. It is idempotent; accounts already present are left untouched.
// At least one admin must exist after startup, so a seeding failure is fatal
// to the caller.
func Seed(ctx context.Context, users *repository.UserRepo) error {
	seeds := []repository.CreateUserParams{
		{Usuario: "admin", Nombre: "Admin", Apellido: "Sistema", Email: "admin@demo.com", Password: "admin123", Rol: model.RolAdmin},
		{Usuario: "demo", Nombre: "Demo", Apellido: "Vendedor", Email: "demo@demo.com", Password: "demo1234", Rol: model.RolVendedor},
	}
	for _, s := range seeds {
		if _, err := users.Create(ctx, s); err != nil {
			if errors.Is(err, repository.ErrUsuarioExists) || errors.Is(err, repository.ErrEmailExists) {
				continue
			}
			return err
		}
	}
	return nil
}
