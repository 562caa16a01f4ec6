package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "voxid/pkg/domain-errors"
)

// Claims are the access token claims. The subject carries the account email;
// the registered ID (jti) is what the revocation list keys on.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec signs and validates HS256 access tokens.
type Codec struct {
	signingKey []byte
	issuer     string
}

// NewCodec constructs a token codec around a shared HMAC signing key.
func NewCodec(signingKey string, issuer string) *Codec {
	return &Codec{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate signs a token for the subject email. It returns the compact token
// and its jti so the caller can track the token without re-parsing it.
func (c *Codec) Generate(subject string, now time.Time, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.issuer,
			ID:        jti,
		},
	})

	signedToken, err := newToken.SignedString(c.signingKey)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "sign token")
	}
	return signedToken, jti, nil
}

// Validate parses and verifies a compact token.
func (c *Codec) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token claims")
	}
	return claims, nil
}

// Subject validates the token and returns its subject email.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
