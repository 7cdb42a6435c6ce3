package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/models"
)

func TestIssueVerify(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)

	token, err := issuer.Issue(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewIssuer([]byte("secret"), time.Hour).Issue(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	_, err = NewIssuer([]byte("other"), time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTampered(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	// The payload is readable by the holder; flipping a byte must break the MAC.
	raw[len(raw)/2] ^= 0x01
	_, err = issuer.Verify(base64.URLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPayloadIsVisible(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue(&models.User{ID: 7, Role: models.RoleUser})
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(token)
	require.NoError(t, err)
	parts := strings.SplitN(string(raw), "|", 3)
	require.Len(t, parts, 3)

	payload, err := base64.URLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"sub":"7"`)
	assert.Contains(t, string(payload), `"role":"user"`)
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue(&models.User{ID: 1, Role: models.RoleUser})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestExpired(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), time.Hour)
	now := time.Now()
	issuer.now = func() time.Time { return now }

	assert.False(t, issuer.Expired(now.Add(-59*time.Minute).Unix()))
	assert.True(t, issuer.Expired(now.Add(-61*time.Minute).Unix()))

	forever := NewIssuer([]byte("secret"), 0)
	assert.False(t, forever.Expired(now.Add(-24*365*time.Hour).Unix()))
}
