package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/loykin/prnotify/internal/settings"
)

// ClaimsKey is the gin context key holding the verified jwt.MapClaims.
const ClaimsKey = "jwt_claims"

// LevelClaim is the claim carrying the caller's user level.
const LevelClaim = "level"

// JWTConfig configures bearer token verification of the /api routes.
// An empty Secret disables authentication.
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	ClockSkew time.Duration `mapstructure:"clock_skew"`
}

// Enabled reports whether a secret is configured.
func (c JWTConfig) Enabled() bool {
	return c.Secret != ""
}

// TokenRequest describes a token to issue with IssueToken.
type TokenRequest struct {
	Subject string
	Level   settings.UserLevel
	TTL     time.Duration
}

// IssueToken signs an HS256 token accepted by the middleware of c.
func (c JWTConfig) IssueToken(req TokenRequest) (string, error) {
	if c.Secret == "" {
		return "", errors.New("jwt: secret required")
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if req.Subject != "" {
		claims["sub"] = req.Subject
	}
	if req.Level != "" {
		claims[LevelClaim] = string(req.Level)
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}
	if c.Audience != "" {
		claims["aud"] = []string{c.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Secret))
}

// jwtMiddleware enforces a valid Bearer token and stores its claims under ClaimsKey.
func jwtMiddleware(cfg JWTConfig) gin.HandlerFunc {
	secret := []byte(cfg.Secret)
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			abort(c, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		tokStr := strings.TrimSpace(auth[len("Bearer "):])
		tok, err := jwt.Parse(tokStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithLeeway(cfg.ClockSkew))
		if err != nil || !tok.Valid {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			abort(c, http.StatusUnauthorized, "invalid token claims")
			return
		}
		if err := validateClaims(claims, cfg); err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func validateClaims(c jwt.MapClaims, cfg JWTConfig) error {
	if cfg.Issuer != "" {
		if iss, _ := c["iss"].(string); iss != cfg.Issuer {
			return errors.New("invalid iss")
		}
	}
	if cfg.Audience != "" {
		switch v := c["aud"].(type) {
		case string:
			if v != cfg.Audience {
				return errors.New("invalid aud")
			}
		case []interface{}:
			ok := false
			for _, it := range v {
				if s, _ := it.(string); s == cfg.Audience {
					ok = true
					break
				}
			}
			if !ok {
				return errors.New("invalid aud")
			}
		default:
			return errors.New("invalid aud")
		}
	}
	return nil
}

// callerLevel returns the level claim of the request. Without authentication
// every caller is treated as a system administrator.
func callerLevel(c *gin.Context) settings.UserLevel {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return settings.UserLevelSystemAdmin
	}
	claims, _ := v.(jwt.MapClaims)
	level, _ := claims[LevelClaim].(string)
	return settings.UserLevel(strings.ToUpper(level))
}
