package repos

import (
	"github.com/jmoiron/sqlx"

	"shoplocal/internal/domain"
)

type AdminRepo struct{ db *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) ByUsername(username string) (*domain.AdminUser, error) {
	var a domain.AdminUser
	err := r.db.Get(&a, `
	  SELECT id, username, password_hash, role, is_active, COALESCE(last_login,'') AS last_login
	  FROM admin_users
	  WHERE username = ? AND is_active = 1
	`, username)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) ByID(id string) (*domain.AdminUser, error) {
	var a domain.AdminUser
	err := r.db.Get(&a, `
	  SELECT id, username, password_hash, role, is_active, COALESCE(last_login,'') AS last_login
	  FROM admin_users
	  WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepo) TouchLogin(id string) error {
	_, err := r.db.Exec(`UPDATE admin_users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}
