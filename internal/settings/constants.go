package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the UI site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback UI site name.
	DefaultSiteName = "AdminBoard"
	// PushEnabledKey toggles the web-push notification subsystem.
	PushEnabledKey = "PUSH_NOTIFICATIONS_ENABLED"
	// DefaultPushEnabled is the fallback push toggle value.
	DefaultPushEnabled = false
)
