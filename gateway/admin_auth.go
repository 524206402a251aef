// Package gateway holds the cross-cutting gin middleware: request ids,
// prometheus instrumentation, and the admin guard.
package gateway

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/a0983528510-lang/newmood/apperr"
)

// AdminAuthConfig controls access to admin-only endpoints. A request passes
// when its ?token= matches Token, or when EmailFromCtx yields an email on
// the allowlist.
type AdminAuthConfig struct {
	Token        string
	AdminEmails  []string
	EmailFromCtx func(*gin.Context) string
}

// RequireAdmin guards admin endpoints with a shared-secret token or a
// session-email allowlist.
func RequireAdmin(cfg AdminAuthConfig) gin.HandlerFunc {
	allow := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		allow[strings.ToLower(strings.TrimSpace(e))] = true
	}

	return func(c *gin.Context) {
		if cfg.Token != "" {
			token := strings.TrimSpace(c.Query("token"))
			if token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) == 1 {
				c.Next()
				return
			}
		}

		if cfg.EmailFromCtx != nil {
			email := strings.ToLower(strings.TrimSpace(cfg.EmailFromCtx(c)))
			if email != "" && allow[email] {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, apperr.Payload(apperr.ErrForbidden))
	}
}
