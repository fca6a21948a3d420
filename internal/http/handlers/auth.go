package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
	"github.com/jzelenk/adminboard/internal/config"
)

// AuthHandler handles login, bootstrap registration, and logout.
type AuthHandler struct {
	manager *auth.Manager
	audit   *auditlog.Service
	authCfg config.AuthConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(manager *auth.Manager, audit *auditlog.Service, authCfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{manager: manager, audit: audit, authCfg: authCfg}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// Login authenticates a user and sets the session cookie, plus the remember
// cookie when requested. The response never reveals which credential was
// wrong, and a banned account is turned away with its stored reason.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and password are required"})
		return
	}

	ctx := c.Request.Context()
	if !h.manager.CanLogin(ctx, username, body.Password) {
		h.logEvent(c, "auth.login_failed", "failed login attempt for "+username, auditlog.LevelWarning)
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid credentials"})
		return
	}

	result, errLogin := h.manager.Login(ctx, username, body.Remember)
	if errLogin != nil {
		if errors.Is(errLogin, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "login failed"})
		return
	}

	if ban, errBan := h.manager.ActiveBan(ctx, result.User.ID); errBan == nil && ban != nil {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": ban.Reason, "banned": true})
		return
	}

	c.SetCookie(h.authCfg.SessionCookie, result.SessionToken,
		int(h.authCfg.SessionTTL().Seconds()), "/", "", false, true)
	if result.RememberToken != "" {
		c.SetCookie(h.authCfg.RememberCookie, result.RememberToken,
			int(h.authCfg.RememberTTL().Seconds()), "/", "", false, true)
	}

	userID := result.User.ID
	actor := auditlog.Actor{
		UserID:    &userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		AntiLog:   c.GetBool("antiLog"),
	}
	_ = h.audit.Log(ctx, actor, "auth.login", result.User.Username+" logged in", auditlog.LevelInfo)

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": newUserView(result.User)})
}

// registerRequest defines the request body for bootstrap registration.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates the bootstrap account. It is only open while the user
// store is empty; the first account gets the OWNER role.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	user, errRegister := h.manager.RegisterUser(ctx, body.Username, body.Password, c.ClientIP(), c.Request.UserAgent())
	if errRegister != nil {
		switch {
		case errors.Is(errRegister, auth.ErrRegistrationClosed):
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "registration is closed"})
		case errors.Is(errRegister, auth.ErrReservedUsername):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username is reserved"})
		case errors.Is(errRegister, auth.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "username and password are required"})
		case errors.Is(errRegister, auth.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "username already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "registration failed"})
		}
		return
	}

	userID := user.ID
	actor := auditlog.Actor{UserID: &userID, IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	_ = h.audit.Log(ctx, actor, "auth.register", user.Username+" registered", auditlog.LevelInfo)

	c.JSON(http.StatusCreated, gin.H{"status": "success", "user": newUserView(*user)})
}

// Logout clears both auth cookies. It is idempotent: logging out without a
// session is still a success.
func (h *AuthHandler) Logout(c *gin.Context) {
	if user, ok := currentUser(c); ok {
		h.logEvent(c, "auth.logout", user.Username+" logged out", auditlog.LevelInfo)
	}

	c.SetCookie(h.authCfg.SessionCookie, "", -1, "/", "", false, true)
	c.SetCookie(h.authCfg.RememberCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Me returns the current user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": newUserView(*user)})
}

// logEvent appends an audit entry for the current request, dropping the
// write error: a log failure never fails the request it describes.
func (h *AuthHandler) logEvent(c *gin.Context, name, message string, level int) {
	_ = h.audit.Log(c.Request.Context(), actorFrom(c), name, message, level)
}
