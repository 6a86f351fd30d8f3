package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"shoplocal/internal/domain"
	"shoplocal/internal/repos"
)

var ErrBadCreds = errors.New("invalid username or password")

// AuthService checks admin credentials. Session binding happens in the
// handler via the session store.
type AuthService struct {
	Admins *repos.AdminRepo
}

func (s *AuthService) Login(username, password string) (*domain.AdminUser, error) {
	a, err := s.Admins.ByUsername(username)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	_ = s.Admins.TouchLogin(a.ID)
	return a, nil
}
