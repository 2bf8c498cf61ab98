package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinKeyLength is the minimum required length for JWT signing keys.
	// 32 bytes (256 bits) is the minimum recommended length for HMAC-SHA256 keys.
	MinKeyLength = 32

	// TokenTypeOperator marks access tokens issued to the operator.
	TokenTypeOperator = "operator"
)

var (
	// ErrJwtTokenExpired is returned when the token has expired
	ErrJwtTokenExpired = errors.New("token expired")
	// ErrJwtInvalidToken is returned when the token is invalid
	ErrJwtInvalidToken = errors.New("invalid token")
	// ErrJwtInvalidSigningMethod is returned when the signature does not verify
	// or the algorithm is not HS256
	ErrJwtInvalidSigningMethod = errors.New("unexpected signing method")
	// ErrJwtInvalidSecretLength is returned for invalid secret lengths
	ErrJwtInvalidSecretLength = errors.New("invalid secret length")
	// ErrInvalidClaimFormat is returned when a required claim is missing or wrong
	ErrInvalidClaimFormat = errors.New("invalid claim format")
)

// OperatorClaims are carried by operator access tokens.
type OperatorClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Validate is called by the parser after the standard claims (exp) have been
// checked. The parser does not enforce presence, so it is done here.
func (c OperatorClaims) Validate() error {
	if c.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat claim", ErrInvalidClaimFormat)
	}
	if c.ExpiresAt == nil {
		return fmt.Errorf("%w: missing exp claim", ErrInvalidClaimFormat)
	}
	if c.Subject == "" {
		return fmt.Errorf("%w: missing sub claim", ErrInvalidClaimFormat)
	}
	if c.Type != TokenTypeOperator {
		return fmt.Errorf("%w: invalid type claim '%s'", ErrInvalidClaimFormat, c.Type)
	}
	return nil
}

// NewOperatorJwt signs an operator token for subject valid for duration.
func NewOperatorJwt(subject string, signingKey []byte, duration time.Duration) (string, time.Time, error) {
	if len(signingKey) < MinKeyLength {
		return "", time.Time{}, ErrJwtInvalidSecretLength
	}

	now := time.Now()
	expirationTime := now.Add(duration)
	claims := OperatorClaims{
		Type: TokenTypeOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// ParseOperatorJwt verifies the token signature and claims.
func ParseOperatorJwt(token string, verificationKey []byte) (*OperatorClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &OperatorClaims{}
	parsedToken, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return verificationKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrJwtTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrJwtInvalidSigningMethod
		}
		return nil, fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}
	if !parsedToken.Valid {
		return nil, ErrJwtInvalidToken
	}
	return claims, nil
}

// NewJwtSigningKeyWithCredentials derives the signing key as
// HMAC-SHA256(secret, username \x00 passwordHash). Changing the password
// invalidates all outstanding tokens, as does rotating the secret.
func NewJwtSigningKeyWithCredentials(username, passwordHash string, secret []byte) ([]byte, error) {
	if username == "" || passwordHash == "" {
		return nil, ErrJwtInvalidSecretLength
	}
	if len(secret) < MinKeyLength {
		return nil, ErrJwtInvalidSecretLength
	}

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(username))
	h.Write([]byte{0})
	h.Write([]byte(passwordHash))
	return h.Sum(nil), nil
}
