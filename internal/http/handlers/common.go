// Package handlers implements the JSON API endpoints.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/models"
)

// currentUser extracts the resolved user from the gin context.
func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("currentUser")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// actorFrom builds the audit actor for the current request: acting user when
// one is resolved, requester metadata always, and the per-session anti-log
// toggle.
func actorFrom(c *gin.Context) auditlog.Actor {
	actor := auditlog.Actor{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		AntiLog:   c.GetBool("antiLog"),
	}
	if user, ok := currentUser(c); ok {
		userID := user.ID
		actor.UserID = &userID
	}
	return actor
}

// parseIDParam parses the :id route parameter, responding 400 on failure.
func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid id"})
		return 0, false
	}
	return id, true
}

// userView is the JSON shape of a user account. The password hash and token
// never leave the server.
type userView struct {
	ID             uint64     `json:"id"`
	Username       string     `json:"username"`
	Role           string     `json:"role"`
	ProfilePic     string     `json:"profile_pic,omitempty"`
	AllowAPIAccess bool       `json:"allow_api_access"`
	RegisterTime   time.Time  `json:"register_time"`
	LastLoginTime  *time.Time `json:"last_login_time,omitempty"`
}

// newUserView maps a user model to its JSON shape.
func newUserView(user models.User) userView {
	return userView{
		ID:             user.ID,
		Username:       user.Username,
		Role:           user.Role,
		ProfilePic:     user.ProfilePic,
		AllowAPIAccess: user.AllowAPIAccess,
		RegisterTime:   user.RegisterTime,
		LastLoginTime:  user.LastLoginTime,
	}
}
