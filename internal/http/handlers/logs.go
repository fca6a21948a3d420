package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
)

// antiLogCookie mirrors the identity middleware's cookie name.
const antiLogCookie = "adminboard_antilog"

// LogsHandler handles the admin audit log endpoints.
type LogsHandler struct {
	audit *auditlog.Service
}

// NewLogsHandler constructs a LogsHandler.
func NewLogsHandler(audit *auditlog.Service) *LogsHandler {
	return &LogsHandler{audit: audit}
}

// List returns log entries filtered by status, newest first. The virtual
// status "all" disables the filter.
func (h *LogsHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", auditlog.StatusAll)

	entries, errList := h.audit.ListByStatus(c.Request.Context(), status)
	if errList != nil {
		if errors.Is(errList, auditlog.ErrUnknownStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown status"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "list logs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "logs": entries})
}

// Count returns the entry count for the same filter as List.
func (h *LogsHandler) Count(c *gin.Context) {
	status := c.DefaultQuery("status", auditlog.StatusAll)

	count, errCount := h.audit.CountByStatus(c.Request.Context(), status)
	if errCount != nil {
		if errors.Is(errCount, auditlog.ErrUnknownStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown status"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "count logs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "count": count})
}

// MarkAllRead transitions every unread entry to read.
func (h *LogsHandler) MarkAllRead(c *gin.Context) {
	if errMark := h.audit.MarkAllRead(c.Request.Context()); errMark != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "mark read failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Clear deletes all log entries and reports the transactional outcome.
func (h *LogsHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()
	result := h.audit.ClearLogs(ctx)
	if !result.Status {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": result.Message})
		return
	}

	// Clearing the audit trail is itself worth auditing, at critical level
	// so the actor's own anti-log toggle cannot hide it.
	_ = h.audit.Log(ctx, actorFrom(c), "logs.cleared", "audit log cleared", auditlog.LevelCritical)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": result.Message})
}

// antiLogRequest defines the body for the anti-log toggle.
type antiLogRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAntiLog toggles the per-session suppression of the caller's own routine
// audit entries. The state lives in a cookie, so it is scoped to this browser
// session and never leaks across actors.
func (h *LogsHandler) SetAntiLog(c *gin.Context) {
	var body antiLogRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	if body.Enabled {
		c.SetCookie(antiLogCookie, "1", 0, "/", "", false, true)
	} else {
		c.SetCookie(antiLogCookie, "", -1, "/", "", false, true)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "enabled": body.Enabled})
}
