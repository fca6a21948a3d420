package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/models"
)

// contextUser extracts the resolved user from the gin context.
func contextUser(c *gin.Context) *models.User {
	value, ok := c.Get("currentUser")
	if !ok {
		return nil
	}
	user, okUser := value.(*models.User)
	if !okUser {
		return nil
	}
	return user
}

// contextBanReason extracts the ban reason left behind by identity resolution.
func contextBanReason(c *gin.Context) (string, bool) {
	value, ok := c.Get("banReason")
	if !ok {
		return "", false
	}
	reason, okReason := value.(string)
	return reason, okReason
}
