package download

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer issues and verifies short-lived download tokens for recordings.
// A token grants access to exactly one stored file until it expires; this
// replaces handing out raw file paths.
type Signer struct {
	secret     []byte
	issuer     string
	defaultTTL time.Duration
	maxTTL     time.Duration
}

const tokenIssuer = "call-recording-service"

func NewSigner(secret string, defaultTTL time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("download token secret is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Signer{
		secret:     []byte(secret),
		issuer:     tokenIssuer,
		defaultTTL: defaultTTL,
		maxTTL:     24 * time.Hour,
	}, nil
}

// Claims binds a token to one record's stored file.
type Claims struct {
	jwt.RegisteredClaims
	RecordID string `json:"record_id"`
	Filename string `json:"filename"`
}

// Sign issues a token for the given record's file. ttl <= 0 uses the
// configured default; ttls beyond the cap are clamped.
func (s *Signer) Sign(now time.Time, recordID, filename string, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if recordID == "" || filename == "" {
		return "", time.Time{}, errors.New("record_id and filename are required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		RecordID: recordID,
		Filename: filename,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature, expiry and claim shape, and returns the claims.
func (s *Signer) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.RecordID == "" {
		return Claims{}, errors.New("record_id missing")
	}
	if claims.Filename == "" {
		return Claims{}, errors.New("filename missing")
	}
	return claims, nil
}

// URL builds the externally reachable download link carrying the token.
func URL(baseURL, token string) string {
	return fmt.Sprintf("%s/download/record?%s", baseURL, url.Values{"token": {token}}.Encode())
}
