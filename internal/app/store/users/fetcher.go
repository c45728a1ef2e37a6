// internal/app/store/users/fetcher.go
package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/app/system/auth"
)

// FetchSessionUser implements auth.UserFetcher, giving the session
// middleware a fresh snapshot of the account on every request.
func (s *Store) FetchSessionUser(ctx context.Context, id primitive.ObjectID) (*auth.SessionUser, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.SessionUser{
		ID:        u.ID,
		Nombre:    u.Nombre,
		Correo:    u.CorreoUniversitario,
		Rol:       u.Rol,
		Bloqueado: u.Bloqueado,
	}, nil
}

// IsNotFound implements auth.UserFetcher.
func (s *Store) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
