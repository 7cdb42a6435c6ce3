// Package auth implements signup, signin and credential tokens.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"stockdash/internal/models"
	"stockdash/internal/store"
)

// Service orchestrates the credential store, password hashing and token issuance.
type Service struct {
	store  store.Store
	issuer *Issuer

	// compared against when the username is unknown, so both failure paths
	// spend the same bcrypt work
	dummyHash string
}

func NewService(s store.Store, issuer *Issuer) (*Service, error) {
	dummy, err := HashPassword("stockdash-dummy-password")
	if err != nil {
		return nil, err
	}
	return &Service{store: s, issuer: issuer, dummyHash: dummy}, nil
}

// Issuer exposes the token issuer for request authentication.
func (s *Service) Issuer() *Issuer { return s.issuer }

// Signup creates a regular user. role may be empty or "user"; elevated roles
// are only granted through CreateUser. Usernames are trimmed on every path;
// passwords are taken verbatim.
func (s *Service) Signup(ctx context.Context, username, password, role string) error {
	username = strings.TrimSpace(username)
	r := models.Role(strings.TrimSpace(role))
	if r == "" {
		r = models.RoleUser
	}
	if username == "" || password == "" {
		return errMissingFields
	}
	if r != models.RoleUser {
		return &ValidationError{Message: "Role cannot be self-assigned"}
	}
	_, err := s.create(ctx, username, password, r)
	return err
}

// CreateUser creates a user with any known role. It is the privileged path
// and must not be reachable from the public API.
func (s *Service) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errMissingFields
	}
	if !role.Valid() {
		return nil, &ValidationError{Message: "Unknown role " + string(role)}
	}
	return s.create(ctx, username, password, role)
}

func (s *Service) create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.User{Username: username, PasswordHash: hash, Role: role}
	if _, err := s.store.Create(ctx, u); err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}

	log.Info().Int64("user_id", u.ID).Str("role", string(role)).Msg("User created")
	return u, nil
}

// Signin verifies the credentials and returns a signed token and the user's role.
func (s *Service) Signin(ctx context.Context, username, password string) (string, models.Role, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", "", errMissingFields
	}

	u, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		_ = CheckPassword(s.dummyHash, password)
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", &StoreError{Op: "find", Err: err}
	}

	if err := CheckPassword(u.PasswordHash, password); err != nil {
		log.Debug().Int64("user_id", u.ID).Msg("Password mismatch")
		return "", "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u)
	if err != nil {
		return "", "", err
	}
	return token, u.Role, nil
}
