package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/auth"
	"github.com/jzelenk/adminboard/internal/config"
	"github.com/jzelenk/adminboard/internal/http/handlers"
	"github.com/jzelenk/adminboard/internal/push"
	"github.com/jzelenk/adminboard/internal/ratelimit"
	"gorm.io/gorm"
)

// Deps carries the services the API surface is built from.
type Deps struct {
	DB         *gorm.DB
	Cfg        config.Config
	Manager    *auth.Manager
	Audit      *auditlog.Service
	Dispatcher *push.Dispatcher
	Limiter    ratelimit.Limiter
}

// NewEngine builds the gin engine with all middlewares and routes attached.
func NewEngine(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(requestLogMiddleware())
	engine.Use(recoveryMiddleware(deps.Audit, deps.Cfg.Server.DevMode))
	engine.Use(identityMiddleware(deps.Manager, deps.Cfg.Auth))
	RegisterRoutes(engine, deps)
	return engine
}

// RegisterRoutes attaches the API routes to the engine. The external log
// endpoint authenticates by token and stays outside the cookie identity
// guards; everything under /api/users, /api/logs and /api/settings sits
// behind a role check.
func RegisterRoutes(engine *gin.Engine, deps Deps) {
	api := engine.Group("/api")

	authHandler := handlers.NewAuthHandler(deps.Manager, deps.Audit, deps.Cfg.Auth)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", authHandler.Logout)

	me := api.Group("/me")
	me.Use(requireRole(deps.Manager, auth.RoleUser))
	profileHandler := handlers.NewProfileHandler(deps.Manager, deps.Audit)
	me.GET("", authHandler.Me)
	me.PUT("/username", profileHandler.UpdateUsername)
	me.PUT("/password", profileHandler.UpdatePassword)
	me.PUT("/profile-pic", profileHandler.UpdateProfilePic)

	users := api.Group("/users")
	users.Use(requireRole(deps.Manager, auth.RoleAdmin))
	usersHandler := handlers.NewUsersHandler(deps.Manager, deps.Audit)
	users.GET("", usersHandler.List)
	users.POST("/:id/ban", usersHandler.Ban)
	users.POST("/:id/unban", usersHandler.Unban)
	users.PUT("/:id/role", usersHandler.ChangeRole)
	users.DELETE("/:id", usersHandler.Delete)
	users.POST("/:id/regenerate-token", usersHandler.RegenerateToken)
	users.PUT("/:id/api-access", usersHandler.SetAPIAccess)
	users.POST("/regenerate-tokens", usersHandler.RegenerateAll)

	logs := api.Group("/logs")
	logs.Use(requireRole(deps.Manager, auth.RoleAdmin))
	logsHandler := handlers.NewLogsHandler(deps.Audit)
	logs.GET("", logsHandler.List)
	logs.GET("/count", logsHandler.Count)
	logs.POST("/mark-all-read", logsHandler.MarkAllRead)
	logs.POST("/clear", logsHandler.Clear)
	logs.POST("/anti-log", logsHandler.SetAntiLog)

	settingsHandler := handlers.NewSettingsHandler(deps.DB, deps.Audit)
	siteSettings := api.Group("/settings")
	siteSettings.GET("", settingsHandler.Get)
	siteSettings.PUT("", requireRole(deps.Manager, auth.RoleDeveloper), settingsHandler.Update)

	externalHandler := handlers.NewExternalHandler(deps.Audit, deps.Limiter, deps.Cfg.ExternalAPI.Token)
	api.POST("/external/log", externalHandler.Log)

	notificationsHandler := handlers.NewNotificationsHandler(deps.Dispatcher, deps.Audit, deps.Cfg.Push.VAPIDPublicKey)
	notifications := api.Group("/notifications")
	notifications.GET("/enabled", notificationsHandler.Enabled)
	notifications.GET("/public-key", notificationsHandler.PublicKey)
	notifications.POST("/subscribe", notificationsHandler.Subscribe)
	notifications.POST("/check-push-subscription", notificationsHandler.CheckSubscription)
	notifications.POST("/send", requireRole(deps.Manager, auth.RoleAdmin), notificationsHandler.Send)
}
