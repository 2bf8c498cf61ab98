package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test_secret_32_bytes_long_xxxxxx")

func TestCreateAndParseValidToken(t *testing.T) {
	tokenString, expires, err := NewOperatorJwt("admin", testSecret, 15*time.Minute)
	if err != nil {
		t.Fatalf("NewOperatorJwt() error = %v", err)
	}
	if time.Until(expires) <= 14*time.Minute {
		t.Errorf("unexpected expiry %v", expires)
	}

	claims, err := ParseOperatorJwt(tokenString, testSecret)
	if err != nil {
		t.Fatalf("ParseOperatorJwt() error = %v", err)
	}
	if claims.Subject != "admin" {
		t.Errorf("expected subject %q, got %q", "admin", claims.Subject)
	}
	if claims.Type != TokenTypeOperator {
		t.Errorf("expected type %q, got %q", TokenTypeOperator, claims.Type)
	}
}

func TestParseInvalidToken(t *testing.T) {
	testCases := []struct {
		name        string
		tokenString string
		secret      []byte
		wantError   error
	}{
		{
			name:        "expired token",
			tokenString: generateToken(t, -15*time.Minute),
			secret:      testSecret,
			wantError:   ErrJwtTokenExpired,
		},
		{
			name:        "invalid signature",
			tokenString: generateToken(t, 15*time.Minute),
			secret:      []byte("wrong_secret_32_bytes_long_xxxxx"),
			wantError:   ErrJwtInvalidSigningMethod,
		},
		{
			name:        "invalid signing method",
			tokenString: generateES256Token(t),
			secret:      testSecret,
			wantError:   ErrJwtInvalidSigningMethod,
		},
		{
			name:        "malformed token",
			tokenString: "malformed.token.string",
			secret:      testSecret,
			wantError:   ErrJwtInvalidToken,
		},
		{
			name:        "missing type claim",
			tokenString: generateMapToken(t, jwt.MapClaims{"sub": "admin", "iat": time.Now().Unix(), "exp": time.Now().Add(time.Minute).Unix()}),
			secret:      testSecret,
			wantError:   ErrJwtInvalidToken,
		},
		{
			name:        "missing subject",
			tokenString: generateMapToken(t, jwt.MapClaims{"type": TokenTypeOperator, "iat": time.Now().Unix(), "exp": time.Now().Add(time.Minute).Unix()}),
			secret:      testSecret,
			wantError:   ErrInvalidClaimFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOperatorJwt(tc.tokenString, tc.secret)
			if !errors.Is(err, tc.wantError) {
				t.Errorf("ParseOperatorJwt() error = %v, want %v", err, tc.wantError)
			}
		})
	}
}

func TestCreateWithInvalidSecret(t *testing.T) {
	_, _, err := NewOperatorJwt("admin", []byte("short"), 15*time.Minute)
	if !errors.Is(err, ErrJwtInvalidSecretLength) {
		t.Errorf("expected ErrJwtInvalidSecretLength, got %v", err)
	}
}

func generateToken(t *testing.T, d time.Duration) string {
	t.Helper()
	token, _, err := NewOperatorJwt("admin", testSecret, d)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func generateMapToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func generateES256Token(t *testing.T) string {
	t.Helper()
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate EC key: %v", err)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"sub":  "admin",
		"type": TokenTypeOperator,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(privateKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func TestNewJwtSigningKeyWithCredentials(t *testing.T) {
	key1, err := NewJwtSigningKeyWithCredentials("admin", "hash_1", testSecret)
	if err != nil {
		t.Fatalf("NewJwtSigningKeyWithCredentials() error = %v", err)
	}
	if len(key1) != 32 { // SHA256 output length
		t.Errorf("key length = %d, want 32", len(key1))
	}

	key2, _ := NewJwtSigningKeyWithCredentials("admin", "hash_1", testSecret)
	if !hmac.Equal(key1, key2) {
		t.Error("returned different keys for same inputs")
	}

	key3, _ := NewJwtSigningKeyWithCredentials("admin", "hash_2", testSecret)
	if hmac.Equal(key1, key3) {
		t.Error("changing the password hash must change the key")
	}

	// the delimiter keeps ("ab","c") and ("a","bc") apart
	keyA, _ := NewJwtSigningKeyWithCredentials("ab", "c", testSecret)
	keyB, _ := NewJwtSigningKeyWithCredentials("a", "bc", testSecret)
	if hmac.Equal(keyA, keyB) {
		t.Error("keys collide across the username/hash boundary")
	}
}

func TestNewJwtSigningKeyWithCredentialsErrors(t *testing.T) {
	tests := []struct {
		name     string
		username string
		hash     string
		secret   []byte
	}{
		{"empty username", "", "hash", testSecret},
		{"empty password hash", "admin", "", testSecret},
		{"short server secret", "admin", "hash", []byte("short")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJwtSigningKeyWithCredentials(tt.username, tt.hash, tt.secret)
			if !errors.Is(err, ErrJwtInvalidSecretLength) {
				t.Errorf("NewJwtSigningKeyWithCredentials() error = %v, want %v", err, ErrJwtInvalidSecretLength)
			}
		})
	}
}
