// Package auth issues and verifies session tokens for verifying
// authorities (HEC, IBCC, ...).
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsKey is the gin context key under which verified authority claims
// are stored by RequireAuthority.
const ClaimsKey = "degreechain_authority_claims"

// AuthorityClaims are the JWT claims of an authority session token.
type AuthorityClaims struct {
	jwt.RegisteredClaims
	AuthorityCode string `json:"authority_code"`
	AuthorityName string `json:"authority_name"`
}

// TokenIssuer signs and verifies authority session JWTs with an HMAC key.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. ttl defaults to 12 hours.
func NewTokenIssuer(secret []byte, issuerURL string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuerURL, ttl: ttl}
}

// Issue creates a signed session token for the given authority.
func (t *TokenIssuer) Issue(code, displayName string) (string, error) {
	now := time.Now().UTC()
	claims := AuthorityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   code,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		AuthorityCode: code,
		AuthorityName: displayName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign authority token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an authority session token.
func (t *TokenIssuer) Verify(tokenStr string) (*AuthorityClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&AuthorityClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify authority token: %w", err)
	}
	claims, ok := token.Claims.(*AuthorityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid authority token claims")
	}
	return claims, nil
}

// RequireAuthority returns a middleware that rejects requests without a
// valid authority bearer token. A nil issuer yields a no-op middleware
// (open mode, for development).
func RequireAuthority(issuer *TokenIssuer) gin.HandlerFunc {
	if issuer == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authority token required"})
			return
		}
		claims, err := issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authority token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom extracts authority claims injected by RequireAuthority, or
// nil when the request was not authenticated (open mode).
func ClaimsFrom(c *gin.Context) *AuthorityClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*AuthorityClaims)
	return claims
}
