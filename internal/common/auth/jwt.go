package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cargolink/cargolink/internal/common/config"
)

// Claims carries the Actor inside an HS256 token.
type Claims struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessLevel string `json:"accessLevel"`
	CompanyID   string `json:"companyId"`
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256 access token for the given actor.
func GenerateToken(cfg config.AuthConfig, actor Actor, ttl time.Duration) (token string, expiresAt time.Time, err error) {
	if !actor.Valid() {
		return "", time.Time{}, fmt.Errorf("actor id is empty")
	}
	if cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt_secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	expiresAt = now.Add(ttl)

	c := Claims{
		Name:        actor.Name,
		Email:       actor.Email,
		AccessLevel: actor.AccessLevel,
		CompanyID:   actor.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    cfg.Issuer,
			Audience:  audience(cfg.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, exp/nbf and optional iss/aud, and returns
// the embedded actor.
func ParseToken(cfg config.AuthConfig, tokenStr string) (Actor, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return Actor{}, fmt.Errorf("token is empty")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || parsed == nil || !parsed.Valid {
		return Actor{}, fmt.Errorf("invalid token")
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return Actor{}, fmt.Errorf("invalid issuer")
	}
	if cfg.Audience != "" && !audienceContains(claims.Audience, cfg.Audience) {
		return Actor{}, fmt.Errorf("invalid audience")
	}

	return Actor{
		ID:          claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		AccessLevel: claims.AccessLevel,
		CompanyID:   claims.CompanyID,
	}, nil
}

func audience(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" || len(aud) == 0 {
		return false
	}
	for _, v := range aud {
		if strings.TrimSpace(v) == want {
			return true
		}
	}
	return false
}
