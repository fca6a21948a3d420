package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/ratelimit"
	log "github.com/sirupsen/logrus"
)

// ExternalHandler handles the token-authenticated log ingestion endpoint.
type ExternalHandler struct {
	audit       *auditlog.Service
	limiter     ratelimit.Limiter
	sharedToken string
}

// NewExternalHandler constructs an ExternalHandler.
func NewExternalHandler(audit *auditlog.Service, limiter ratelimit.Limiter, sharedToken string) *ExternalHandler {
	return &ExternalHandler{audit: audit, limiter: limiter, sharedToken: sharedToken}
}

// Log ingests one external log entry. The payload arrives either as
// query-style parameters (name, message, level) or as an XML body
// <log><name/><message/><level/></log>; non-empty XML fields win. The token
// is checked before any field is accepted, and entries from this path are
// never anti-log suppressed.
func (h *ExternalHandler) Log(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.limiter.Allow(ctx, c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "Too many requests"})
		return
	}

	var xmlBody []byte
	if contentType := c.ContentType(); strings.Contains(contentType, "xml") || contentType == "text/plain" {
		xmlBody, _ = c.GetRawData()
	}

	userID, errAuth := h.audit.AuthenticateExternal(ctx, requestParam(c, "token"), h.sharedToken)
	if errAuth != nil {
		if errors.Is(errAuth, auditlog.ErrBadToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Access token is invalid"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "authentication failed"})
		return
	}

	if errAccess := h.audit.RecordAPIAccess(ctx, c.Request.URL.Path, c.Request.Method, userID); errAccess != nil {
		log.WithError(errAccess).Warn("record api access failed")
	}

	input, errNorm := auditlog.NormalizeExternalInput(
		requestParam(c, "name"),
		requestParam(c, "message"),
		requestParam(c, "level"),
		xmlBody,
	)
	if errNorm != nil {
		var xmlErr *auditlog.XMLError
		if errors.As(errNorm, &xmlErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": fmt.Sprintf("Invalid XML payload: %v", xmlErr.Unwrap()),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}

	level, errValidate := input.Validate()
	if errValidate != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Parameters name, message and level are required",
		})
		return
	}

	actor := auditlog.Actor{
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if errLog := h.audit.Log(ctx, actor, input.Name, input.Message, level); errLog != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "log write failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// requestParam reads a parameter from the form body, falling back to the
// query string.
func requestParam(c *gin.Context, key string) string {
	if value := c.PostForm(key); value != "" {
		return value
	}
	return c.Query(key)
}
