package auth

import (
	"strconv"
	"time"

	"github.com/gorilla/securecookie"

	"stockdash/internal/models"
)

const tokenName = "stockdash-token"

// Claims is the visible payload of a credential token.
type Claims struct {
	Subject  string      `json:"sub"`
	Role     models.Role `json:"role"`
	IssuedAt int64       `json:"iat"`
}

// UserID returns the subject as a numeric user id.
func (c Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Issuer signs and verifies credential tokens. Tokens are HMAC-signed but not
// encrypted: whoever holds one can read the identity and role inside.
type Issuer struct {
	codec *securecookie.SecureCookie
	ttl   time.Duration
	now   func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	codec := securecookie.New(secret, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl / time.Second))
	return &Issuer{codec: codec, ttl: ttl, now: time.Now}
}

// Issue signs a token for u.
func (i *Issuer) Issue(u *models.User) (string, error) {
	claims := Claims{
		Subject:  strconv.FormatInt(u.ID, 10),
		Role:     u.Role,
		IssuedAt: i.now().Unix(),
	}
	token, err := i.codec.Encode(tokenName, claims)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return token, nil
}

// Verify checks the signature and age of token and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	var claims Claims
	if err := i.codec.Decode(tokenName, token, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if i.Expired(claims.IssuedAt) {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

// Expired reports whether a credential issued at issuedAt (unix seconds) has
// outlived the TTL.
func (i *Issuer) Expired(issuedAt int64) bool {
	return i.ttl > 0 && i.now().After(time.Unix(issuedAt, 0).Add(i.ttl))
}
