package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/store"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("only admins can log in")
)

// Authenticate checks username and password against admin_users. Only users
// with the admin role may sign in.
func Authenticate(ctx context.Context, s store.Store, username, password string) (models.AdminUser, error) {
	docs, err := s.Query(ctx, store.Admins, store.Query{Field: "username", Equals: strings.TrimSpace(username), Limit: 1})
	if err != nil {
		return models.AdminUser{}, fmt.Errorf("lookup admin: %w", err)
	}
	if len(docs) == 0 {
		return models.AdminUser{}, ErrUserNotFound
	}
	var u models.AdminUser
	if err := store.Decode(docs[0], &u); err != nil {
		return models.AdminUser{}, fmt.Errorf("decode admin: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return models.AdminUser{}, ErrInvalidCredentials
	}
	if u.Role != models.RoleAdmin {
		return models.AdminUser{}, ErrNotAdmin
	}
	return u, nil
}

// CreateAdmin stores a new admin user with a hashed password.
func CreateAdmin(ctx context.Context, s store.Store, username, password string) (models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return models.AdminUser{}, errors.New("username is required and password must be at least 8 characters")
	}
	existing, err := s.Query(ctx, store.Admins, store.Query{Field: "username", Equals: username, Limit: 1})
	if err != nil {
		return models.AdminUser{}, err
	}
	if len(existing) > 0 {
		return models.AdminUser{}, fmt.Errorf("admin %q already exists", username)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.AdminUser{}, err
	}
	u := models.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.Add(ctx, store.Admins, u)
	if err != nil {
		return models.AdminUser{}, err
	}
	u.ID = id
	return u, nil
}
