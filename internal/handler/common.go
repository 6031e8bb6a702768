package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/altasolucion/visit-tracker/internal/middleware"
	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/repository"
)

// Branding passed to every rendered view, as the old app did.
const (
	empresa = "Altasolucion"
	logo    = "logo.png"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// UserStore is the credential store consumed by handlers. UserRepo is the
// durable implementation; MemoryUserStore is the swappable test double.
type UserStore interface {
	FindActiveByLogin(ctx context.Context, usuario string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, p repository.CreateUserParams) (uint64, error)
	Update(ctx context.Context, id uint64, p repository.UpdateUserParams) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// VisitStore is the activity/attachment store consumed by handlers.
type VisitStore interface {
	Create(ctx context.Context, p repository.CreateVisitParams) (model.VisitDetail, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.VisitDetail, error)
	ListAll(ctx context.Context) ([]model.VisitDetail, error)
}

var errNoSession = errors.New("no session in context")

// currentUser reads the identity injected by the session middleware.
func currentUser(c echo.Context) (id uint64, usuario, rol string, err error) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	if !ok || id == 0 {
		return 0, "", "", errNoSession
	}
	usuario, _ = c.Get(middleware.CtxUsuario).(string)
	rol, _ = c.Get(middleware.CtxRol).(string)
	return id, usuario, rol, nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
