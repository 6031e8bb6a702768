package utils // helpers for issuing and parsing signed session tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/altasolucion/visit-tracker/internal/model"
)

// Session carries the authenticated actor's identity for one request.
// LoginAt is the moment the session was established; expiry is absolute
// from that moment, never sliding.
type Session struct {
	UserID  uint64
	Usuario string
	Rol     string
	LoginAt time.Time
}

// SessionToken is a signed HS256 token plus its expiration time.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// ErrInvalidSession covers every way a presented token can be unusable:
// bad signature, malformed claims or past expiry. Callers must not
// distinguish these cases.
var ErrInvalidSession = errors.New("invalid session")

// NewSessionToken signs an HS256 JWT for the user. Claims: sub (account id),
// usuario (login identifier), rol, iat (login time) and exp (iat + ttl).
func NewSessionToken(secret string, u model.User, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(u.ID, 10),
		"usuario": u.Usuario,
		"rol":     u.Rol,
		"iat":     now.Unix(),
		"exp":     exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken validates a raw token and extracts the session it carries.
// Expired or tampered tokens yield ErrInvalidSession.
func ParseSessionToken(secret, raw string) (Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Session{}, ErrInvalidSession
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidSession
	}

	var s Session
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil || id == 0 {
			return Session{}, ErrInvalidSession
		}
		s.UserID = id
	case float64:
		s.UserID = uint64(sub)
	default:
		return Session{}, ErrInvalidSession
	}
	if v, ok := claims["usuario"].(string); ok {
		s.Usuario = v
	}
	if v, ok := claims["rol"].(string); ok {
		s.Rol = v
	}
	if s.Usuario == "" || s.Rol == "" {
		return Session{}, ErrInvalidSession
	}
	if iat, ok := claims["iat"].(float64); ok {
		s.LoginAt = time.Unix(int64(iat), 0).UTC()
	}
	return s, nil
}
