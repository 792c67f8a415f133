package auth

import (
	"time"

	"github.com/adi-uchiha/jems/pkg/errx"
	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity extracted from a validated token
type Claims struct {
	UserID    kernel.UserID
	ExpiresAt time.Time
}

// TokenService issues and validates HS256 bearer tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a token service with the given signing secret
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate creates a signed access token for a user
func (s *TokenService) Generate(userID kernel.UserID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
		"iss": s.issuer,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errx.Wrap(err, "failed to sign token", errx.TypeInternal)
	}

	return signed, nil
}

// Validate parses a token and returns its claims
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errx.Wrap(err, "invalid or expired token", errx.TypeAuthentication)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errx.Wrap(jwt.ErrTokenInvalidClaims, "invalid token claims", errx.TypeAuthentication)
	}

	sub, err := mapClaims.GetSubject()
	if err != nil || sub == "" {
		return nil, errx.Wrap(err, "token missing subject", errx.TypeAuthentication)
	}

	exp, err := mapClaims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errx.Wrap(err, "token missing expiration", errx.TypeAuthentication)
	}

	return &Claims{
		UserID:    kernel.UserID(sub),
		ExpiresAt: exp.Time,
	}, nil
}
