// Package http wires the gin engine: identity resolution from cookies, role
// guards, panic recovery into the audit pipeline, and route registration.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
	"github.com/jzelenk/adminboard/internal/config"
	"github.com/jzelenk/adminboard/internal/util"
	log "github.com/sirupsen/logrus"
)

// requestLogMiddleware emits one structured line per request. Token and
// secret query values are masked before they reach the log file.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})
		if query := util.MaskSensitiveQuery(c.Request.URL.RawQuery); query != "" {
			entry = entry.WithField("query", query)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Info("request")
	}
}

// AntiLogCookie is the per-session toggle that suppresses the holder's own
// routine audit entries.
const AntiLogCookie = "adminboard_antilog"

// identityMiddleware resolves the acting user from the session and remember
// cookies and loads it into context. It never aborts: public routes run with
// an anonymous identity, and a banned account leaves its reason behind for
// the role guard to surface.
func identityMiddleware(manager *auth.Manager, authCfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if antiLog, errCookie := c.Cookie(AntiLogCookie); errCookie == nil && antiLog == "1" {
			c.Set("antiLog", true)
		}

		sessionToken, _ := c.Cookie(authCfg.SessionCookie)
		rememberToken, _ := c.Cookie(authCfg.RememberCookie)
		if sessionToken == "" && rememberToken == "" {
			c.Next()
			return
		}

		user, errResolve := manager.CurrentUser(c.Request.Context(), sessionToken, rememberToken)
		if errResolve != nil {
			var banned *auth.BannedError
			if errors.As(errResolve, &banned) {
				c.Set("banReason", banned.Reason)
			}
			c.Next()
			return
		}

		c.Set("currentUser", user)
		c.Next()
	}
}

// requireRole guards a route group behind a minimum role. Unauthenticated
// requests get 401; banned accounts get 403 with the stored reason; everyone
// else below the required role gets a plain 403. Ban state is re-checked on
// every request, not once at login.
func requireRole(manager *auth.Manager, required auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := contextUser(c)
		if user == nil {
			if reason, banned := contextBanReason(c); banned {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"status":  "error",
					"message": reason,
					"banned":  true,
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "authentication required",
			})
			return
		}

		decision := manager.Authorize(c.Request.Context(), required, user)
		switch decision.Code {
		case auth.DecisionAllow:
			c.Next()
		case auth.DecisionBanned:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": decision.Reason,
				"banned":  true,
			})
		case auth.DecisionUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "authentication required",
			})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "permission denied",
			})
		}
	}
}

// recoveryMiddleware turns panics into a generic 500 and records them through
// the audit pipeline at critical level, which bypasses anti-log suppression.
// Dev mode exposes the panic detail in the response.
func recoveryMiddleware(audit *auditlog.Service, devMode bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		message := fmt.Sprintf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		log.WithField("path", c.Request.URL.Path).Error(message)

		actor := auditlog.Actor{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if user := contextUser(c); user != nil {
			userID := user.ID
			actor.UserID = &userID
		}
		if errLog := audit.Log(c.Request.Context(), actor, "system.panic", message, auditlog.LevelCritical); errLog != nil {
			log.WithError(errLog).Error("record panic log entry failed")
		}

		body := gin.H{"status": "error", "message": "internal server error"}
		if devMode {
			body["detail"] = fmt.Sprintf("%v", recovered)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}
