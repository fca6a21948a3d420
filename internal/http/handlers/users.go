package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
)

// UsersHandler handles the admin user-management endpoints. Every mutation
// runs through the guardrail table and lands in the audit log.
type UsersHandler struct {
	manager *auth.Manager
	audit   *auditlog.Service
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(manager *auth.Manager, audit *auditlog.Service) *UsersHandler {
	return &UsersHandler{manager: manager, audit: audit}
}

// List returns all user accounts.
func (h *UsersHandler) List(c *gin.Context) {
	users, errList := h.manager.ListUsers(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "list users failed"})
		return
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users": views})
}

// banRequest defines the body for a ban.
type banRequest struct {
	Reason string `json:"reason"`
}

// Ban issues a ban against the target user.
func (h *UsersHandler) Ban(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	var body banRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	ban, errBan := h.manager.BanUser(ctx, actor, targetID, body.Reason)
	if errBan != nil {
		h.respondGuardError(c, errBan, "ban failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.banned",
		fmt.Sprintf("%s banned user %d: %s", actor.Username, targetID, ban.Reason), auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success", "ban_id": ban.ID})
}

// Unban lifts the target's active ban.
func (h *UsersHandler) Unban(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	ctx := c.Request.Context()
	if errUnban := h.manager.UnbanUser(ctx, actor, targetID); errUnban != nil {
		h.respondGuardError(c, errUnban, "unban failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.unbanned",
		fmt.Sprintf("%s unbanned user %d", actor.Username, targetID), auditlog.LevelInfo)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// roleRequest defines the body for a role change.
type roleRequest struct {
	Role string `json:"role"`
}

// ChangeRole assigns a new role to the target user.
func (h *UsersHandler) ChangeRole(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	var body roleRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}
	role, errParse := auth.ParseRole(body.Role)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown role"})
		return
	}

	ctx := c.Request.Context()
	if errChange := h.manager.ChangeRole(ctx, actor, targetID, role); errChange != nil {
		h.respondGuardError(c, errChange, "role change failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.role_changed",
		fmt.Sprintf("%s set user %d role to %s", actor.Username, targetID, role), auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Delete removes the target user account.
func (h *UsersHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	ctx := c.Request.Context()
	if errDelete := h.manager.DeleteUser(ctx, actor, targetID); errDelete != nil {
		h.respondGuardError(c, errDelete, "delete failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.deleted",
		fmt.Sprintf("%s deleted user %d", actor.Username, targetID), auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RegenerateToken rotates one user's token. The guardrail allows acting on
// your own account here, unlike the destructive actions.
func (h *UsersHandler) RegenerateToken(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	ctx := c.Request.Context()
	target, errFind := h.manager.FindUserByID(ctx, targetID)
	if errFind != nil {
		h.respondGuardError(c, errFind, "regenerate failed")
		return
	}
	if errGuard := auth.CanActOn(actor, target, auth.ActionRegenerateToken); errGuard != nil {
		h.respondGuardError(c, errGuard, "regenerate failed")
		return
	}

	token, errRotate := h.manager.RegenerateOneUserToken(ctx, targetID)
	if errRotate != nil {
		h.respondGuardError(c, errRotate, "regenerate failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.token_regenerated",
		fmt.Sprintf("%s regenerated token of user %d", actor.Username, targetID), auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success", "token": token})
}

// RegenerateAll rotates every user's token in one transaction, invalidating
// all remember-me cookies system-wide.
func (h *UsersHandler) RegenerateAll(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}

	ctx := c.Request.Context()
	result := h.manager.RegenerateUsersTokens(ctx)
	if !result.Status {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": result.Message})
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.tokens_regenerated",
		actor.Username+" regenerated all user tokens", auditlog.LevelWarning)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": result.Message})
}

// apiAccessRequest defines the body for the API access toggle.
type apiAccessRequest struct {
	Allow bool `json:"allow"`
}

// SetAPIAccess toggles whether the target's token may call the external API.
func (h *UsersHandler) SetAPIAccess(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	targetID, okID := parseIDParam(c)
	if !okID {
		return
	}

	var body apiAccessRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	if errSet := h.manager.SetAllowAPIAccess(ctx, actor, targetID, body.Allow); errSet != nil {
		h.respondGuardError(c, errSet, "update failed")
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "users.api_access_changed",
		fmt.Sprintf("%s set api access of user %d to %t", actor.Username, targetID, body.Allow), auditlog.LevelInfo)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// respondGuardError maps manager and guardrail errors to HTTP responses.
func (h *UsersHandler) respondGuardError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "user not found"})
	case errors.Is(err, auth.ErrSelfAction):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "cannot act on own account"})
	case errors.Is(err, auth.ErrPrivilege):
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "insufficient privilege over target"})
	case errors.Is(err, auth.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "already exists"})
	case errors.Is(err, auth.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid input"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": fallback})
	}
}
