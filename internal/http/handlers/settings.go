package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/settings"
	"gorm.io/gorm"
)

// SettingsHandler handles the DB-backed site settings.
type SettingsHandler struct {
	db    *gorm.DB
	audit *auditlog.Service
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB, audit *auditlog.Service) *SettingsHandler {
	return &SettingsHandler{db: db, audit: audit}
}

// Get returns the current settings snapshot.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                     "success",
		"site_name":                  settings.SiteName(),
		"push_notifications_enabled": settings.PushEnabled(),
	})
}

// updateSettingsRequest defines the body for a settings update. Pointer
// fields distinguish "absent" from a zero value.
type updateSettingsRequest struct {
	SiteName    *string `json:"site_name"`
	PushEnabled *bool   `json:"push_notifications_enabled"`
}

// Update writes the provided settings and refreshes the in-memory snapshot,
// so the change applies without a restart.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}
	if body.SiteName == nil && body.PushEnabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "nothing to update"})
		return
	}

	ctx := c.Request.Context()
	if body.SiteName != nil {
		if errSet := settings.Set(ctx, h.db, settings.SiteNameKey, *body.SiteName); errSet != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "update failed"})
			return
		}
	}
	if body.PushEnabled != nil {
		if errSet := settings.Set(ctx, h.db, settings.PushEnabledKey, *body.PushEnabled); errSet != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "update failed"})
			return
		}
	}

	_ = h.audit.Log(ctx, actorFrom(c), "settings.updated", "site settings updated", auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
