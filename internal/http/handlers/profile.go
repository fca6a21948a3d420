package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
)

// ProfileHandler handles account settings for the acting user.
type ProfileHandler struct {
	manager *auth.Manager
	audit   *auditlog.Service
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(manager *auth.Manager, audit *auditlog.Service) *ProfileHandler {
	return &ProfileHandler{manager: manager, audit: audit}
}

// usernameRequest defines the body for a username change.
type usernameRequest struct {
	Username string `json:"username"`
}

// UpdateUsername changes the acting user's username.
func (h *ProfileHandler) UpdateUsername(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}

	var body usernameRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	if errUpdate := h.manager.UpdateUsername(ctx, user.ID, body.Username); errUpdate != nil {
		switch {
		case errors.Is(errUpdate, auth.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username is required"})
		case errors.Is(errUpdate, auth.ErrReservedUsername):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username is reserved"})
		case errors.Is(errUpdate, auth.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "username already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "update failed"})
		}
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "profile.username_changed",
		user.Username+" renamed to "+body.Username, auditlog.LevelInfo)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// passwordRequest defines the body for a password change.
type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword changes the acting user's password after verifying the
// current one.
func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}

	var body passwordRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	if errUpdate := h.manager.UpdatePassword(ctx, user.ID, body.CurrentPassword, body.NewPassword); errUpdate != nil {
		switch {
		case errors.Is(errUpdate, auth.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "new password is required"})
		case errors.Is(errUpdate, auth.ErrInvalidCredentials):
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "current password is wrong"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "update failed"})
		}
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "profile.password_changed",
		user.Username+" changed password", auditlog.LevelInfo)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// profilePicRequest defines the body for a profile picture change.
type profilePicRequest struct {
	ProfilePic string `json:"profile_pic"`
}

// UpdateProfilePic sets the acting user's profile picture reference.
func (h *ProfileHandler) UpdateProfilePic(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}

	var body profilePicRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	if errUpdate := h.manager.UpdateProfilePic(c.Request.Context(), user.ID, body.ProfilePic); errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
