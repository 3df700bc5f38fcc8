package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

const signedURLAudience = "object-download"

// URLSigner issues and verifies download tokens bound to a single object path.
type URLSigner struct {
	secret  []byte
	baseURL string
	now     func() time.Time
}

// NewURLSigner builds a signer whose links point at baseURL + "/files/<token>".
func NewURLSigner(secret, baseURL string) *URLSigner {
	return &URLSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

type downloadClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// Sign returns a link for objectPath valid for ttl.
func (s *URLSigner) Sign(objectPath string, ttl time.Duration) (SignedURL, error) {
	if ttl <= 0 {
		return SignedURL{}, errors.New("storage: signed url ttl must be positive")
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := downloadClaims{
		Path: objectPath,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{signedURLAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign url: %w", err)
	}
	return SignedURL{
		URL:       fmt.Sprintf("%s/files/%s", s.baseURL, url.PathEscape(token)),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify returns the object path bound to token. Expired or tampered tokens are
// reported as AuthorizationDenied.
func (s *URLSigner) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &downloadClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithAudience(signedURLAudience), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", apperrors.NewAuthorizationDenied("download link is invalid or expired")
	}
	claims, ok := parsed.Claims.(*downloadClaims)
	if !ok || !parsed.Valid || claims.Path == "" {
		return "", apperrors.NewAuthorizationDenied("download link is invalid or expired")
	}
	return claims.Path, nil
}
