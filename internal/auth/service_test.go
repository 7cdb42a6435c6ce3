package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/models"
	"stockdash/internal/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc, err := NewService(s, NewIssuer([]byte("test-secret"), time.Hour))
	require.NoError(t, err)
	return svc
}

func TestSignupThenSignin(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, "alice", "pw123", ""))

	token, role, err := svc.Signin(ctx, "alice", "pw123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleUser, role)

	claims, err := svc.Issuer().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestSigninNonEnumeration(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "alice", "pw123", "user"))

	_, _, errUnknown := svc.Signin(ctx, "mallory", "pw123")
	_, _, errWrong := svc.Signin(ctx, "alice", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestSignupValidation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     string
		message  string
	}{
		{"missing username", "", "pw", "", "Username and password required"},
		{"blank username", "   ", "pw", "", "Username and password required"},
		{"missing password", "bob", "", "", "Username and password required"},
		{"self-assigned admin", "bob", "pw", "admin", "Role cannot be self-assigned"},
		{"unknown role", "bob", "pw", "root", "Role cannot be self-assigned"},
		{"password too long", "bob", strings.Repeat("x", 73), "", "Password must be at most 72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Signup(ctx, tt.username, tt.password, tt.role)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}

	// nothing was persisted along the way
	_, _, err := svc.Signin(ctx, "bob", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignupDuplicateIsStoreError(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "alice", "pw123", ""))

	err := svc.Signup(ctx, "alice", "other", "")
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestUsernameIsTrimmed(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Signup(ctx, "alice ", "pw123", ""))

	_, _, err := svc.Signin(ctx, "alice", "pw123")
	require.NoError(t, err)
	_, _, err = svc.Signin(ctx, " alice", "pw123")
	require.NoError(t, err)

	err = svc.Signup(ctx, "alice", "other", "")
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)

	_, err = svc.CreateUser(ctx, "\talice", "other", models.RoleAdmin)
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func TestSigninMissingFields(t *testing.T) {
	svc := setupTestService(t)

	_, _, err := svc.Signin(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUserAdmin(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, "root", "toor", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	token, role, err := svc.Signin(ctx, "root", "toor")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	claims, err := svc.Issuer().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(u.ID, 10), claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestCreateUserUnknownRole(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.CreateUser(context.Background(), "x", "y", models.Role("superuser"))
	assert.ErrorIs(t, err, ErrValidation)
}

type failingStore struct{ store.Store }

func (failingStore) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestSigninStoreFailure(t *testing.T) {
	svc := setupTestService(t)
	svc.store = failingStore{svc.store}

	_, _, err := svc.Signin(context.Background(), "alice", "pw123")
	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
