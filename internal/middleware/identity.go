package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mavvricks/eloque/internal/domain"
)

const actorKey = "actor"

var (
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid claims")
)

// Identity validates a Bearer token and injects the caller's identity
// into the request context. Token issuance lives in the auth service;
// this side only decodes and trusts the shared secret.
func Identity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		actor, err := parseActor(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalIdentity injects the caller's identity when a valid Bearer
// token is present, and lets the request through as a guest otherwise.
// Routes that accept both registered clients and walk-in guests sit
// behind this instead of Identity.
func OptionalIdentity(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			raw := strings.TrimPrefix(auth, "Bearer ")
			if actor, err := parseActor(raw, secret); err == nil {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

func parseActor(raw, secret string) (domain.Actor, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return domain.Actor{}, errInvalidToken
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, errInvalidClaims
	}

	actor := domain.Actor{}
	if sub, ok := claims["sub"].(float64); ok {
		actor.ID = int64(sub)
	}
	if name, ok := claims["name"].(string); ok {
		actor.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		actor.Role = domain.Role(role)
	}
	if actor.ID == 0 || actor.Role == "" {
		return domain.Actor{}, errInvalidClaims
	}
	return actor, nil
}

// RequireRole aborts with 403 unless the authenticated actor holds one
// of the given roles. Admin passes every gate.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles)+1)
	for _, r := range roles {
		allowed[r] = true
	}
	allowed[domain.RoleAdmin] = true

	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the identity stored by Identity, or a zero Actor
// on unauthenticated routes.
func ActorFrom(c *gin.Context) domain.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}
	}
	actor, _ := v.(domain.Actor)
	return actor
}
