package repository

import "errors"

// ErrUsuarioExists is returned when the login identifier collides with an
// existing account. Handlers translate this into HTTP 409.
var ErrUsuarioExists = errors.New("usuario already exists")

// ErrEmailExists is returned when the email collides with an existing
// account. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no account matches the lookup. For the
// login path this also covers inactive accounts, so callers cannot tell the
// two apart.
var ErrUserNotFound = errors.New("user not found")
