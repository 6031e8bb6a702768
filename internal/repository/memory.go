package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/altasolucion/visit-tracker/internal/model"
	"github.com/altasolucion/visit-tracker/internal/storage"
	"github.com/altasolucion/visit-tracker/internal/utils"
)

// MemoryUserStore is an in-memory stand-in for UserRepo. Durable storage is
// the production mode; this double exists so handler behavior can be tested
// without a database.
type MemoryUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]model.User
	Cost   int
}

func NewMemoryUserStore(cost int) *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uint64]model.User), Cost: cost}
}

func (s *MemoryUserStore) FindActiveByLogin(ctx context.Context, usuario string) (model.User, error) {
	usuario = strings.ToLower(strings.TrimSpace(usuario))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Usuario == usuario && u.Activo {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (s *MemoryUserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *MemoryUserStore) Create(ctx context.Context, p CreateUserParams) (uint64, error) {
	hash, err := utils.HashPassword(p.Password, s.Cost)
	if err != nil {
		return 0, err
	}
	usuario := strings.ToLower(strings.TrimSpace(p.Usuario))
	email := strings.ToLower(strings.TrimSpace(p.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Usuario == usuario {
			return 0, ErrUsuarioExists
		}
		if u.Email == email {
			return 0, ErrEmailExists
		}
	}
	s.nextID++
	u := model.User{
		ID: s.nextID, Usuario: usuario, Nombre: p.Nombre, Apellido: p.Apellido,
		Email: email, PasswordHash: hash, Rol: NormalizeRol(p.Rol),
		Activo: true, CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return u.ID, nil
}

func (s *MemoryUserStore) Update(ctx context.Context, id uint64, p UpdateUserParams) error {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	for _, other := range s.users {
		if other.ID != id && other.Email == email {
			return ErrEmailExists
		}
	}
	u.Nombre, u.Apellido, u.Email = p.Nombre, p.Apellido, email
	u.Rol = NormalizeRol(p.Rol)
	u.Activo = p.Activo
	if p.Password != "" {
		hash, err := utils.HashPassword(p.Password, s.Cost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	s.users[id] = u
	return nil
}

func (s *MemoryUserStore) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

// Count returns the number of stored accounts. Test helper.
func (s *MemoryUserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// MemoryVisitStore is an in-memory stand-in for VisitRepo. Files still go
// through a real FileStore so the rollback-removes-files contract is
// observable in tests.
type MemoryVisitStore struct {
	mu     sync.Mutex
	nextID uint64
	photoN uint64
	visits []model.VisitDetail
	Files  *storage.FileStore
	Owners map[uint64]string // user id -> display name for the admin listing
}

func NewMemoryVisitStore(files *storage.FileStore) *MemoryVisitStore {
	return &MemoryVisitStore{Files: files, Owners: make(map[uint64]string)}
}

func (s *MemoryVisitStore) Create(ctx context.Context, p CreateVisitParams) (model.VisitDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	visitID := s.nextID

	var written []string
	undo := func() {
		for _, rel := range written {
			_ = s.Files.Remove(rel)
		}
		s.nextID--
	}

	firmaPath, err := s.Files.SaveSignature(visitID, p.Firma)
	if err != nil {
		undo()
		return model.VisitDetail{}, err
	}
	written = append(written, firmaPath)

	det := model.VisitDetail{
		Visit: model.Visit{
			ID: visitID, UserID: p.UserID, Fecha: p.Fecha,
			Cliente: p.Cliente, Comentarios: p.Comentarios,
			ProximaVisita: p.ProximaVisita, FirmaPath: firmaPath,
		},
		Vendedor: s.Owners[p.UserID],
		Photos:   make([]model.Photo, 0, len(p.Photos)),
	}
	for _, ph := range p.Photos {
		rel, err := s.Files.SavePhoto(visitID, ph.Name, ph.Data)
		if err != nil {
			undo()
			return model.VisitDetail{}, err
		}
		written = append(written, rel)
		s.photoN++
		det.Photos = append(det.Photos, model.Photo{ID: s.photoN, VisitID: visitID, Path: rel})
	}
	s.visits = append(s.visits, det)
	return det, nil
}

func (s *MemoryVisitStore) ListForUser(ctx context.Context, userID uint64) ([]model.VisitDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.VisitDetail, 0)
	for i := len(s.visits) - 1; i >= 0; i-- {
		if s.visits[i].UserID == userID {
			v := s.visits[i]
			v.Vendedor = ""
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *MemoryVisitStore) ListAll(ctx context.Context) ([]model.VisitDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.VisitDetail, 0, len(s.visits))
	for i := len(s.visits) - 1; i >= 0; i-- {
		out = append(out, s.visits[i])
	}
	return out, nil
}

// VisitCount returns the number of stored visits. Test helper.
func (s *MemoryVisitStore) VisitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visits)
}
