package middleware

import (
	"net/http"
	"strings"

	"shuttle/internal/domain"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenParser turns a bearer token into the caller's principal.
type TokenParser interface {
	ParseToken(raw string) (domain.Principal, error)
}

// Auth rejects requests without a valid bearer token and stores the
// resolved principal for handlers.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(strings.TrimSpace(raw), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		p, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRoles lets through principals holding one of roles.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			abortUnauthorized(c, "missing principal")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "forbidden for role " + string(p.Role),
			"code":       "forbidden",
			"request_id": GetRequestID(c),
		})
	}
}

func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok && p.Valid()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="shuttle"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      msg,
		"code":       "unauthenticated",
		"request_id": GetRequestID(c),
	})
}
