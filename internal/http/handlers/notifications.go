package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jzelenk/adminboard/internal/auditlog"
	"github.com/jzelenk/adminboard/internal/push"
)

// NotificationsHandler handles web-push subscription and broadcast endpoints.
type NotificationsHandler struct {
	dispatcher     *push.Dispatcher
	audit          *auditlog.Service
	vapidPublicKey string
}

// NewNotificationsHandler constructs a NotificationsHandler.
func NewNotificationsHandler(dispatcher *push.Dispatcher, audit *auditlog.Service, vapidPublicKey string) *NotificationsHandler {
	return &NotificationsHandler{dispatcher: dispatcher, audit: audit, vapidPublicKey: vapidPublicKey}
}

// Enabled reports the push feature flag. The value is a string so clients
// can distinguish "off" from a missing field.
func (h *NotificationsHandler) Enabled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"enabled": strconv.FormatBool(h.dispatcher.Enabled()),
	})
}

// PublicKey returns the VAPID public key, or a stable disabled status when
// the feature is off.
func (h *NotificationsHandler) PublicKey(c *gin.Context) {
	if !h.dispatcher.Enabled() {
		c.JSON(http.StatusForbidden, gin.H{"status": "disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "vapid_public_key": h.vapidPublicKey})
}

// subscribeRequest mirrors the browser PushSubscription JSON shape.
type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe registers or refreshes a push subscription for this endpoint.
func (h *NotificationsHandler) Subscribe(c *gin.Context) {
	var body subscribeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	var userID *uint64
	if user, ok := currentUser(c); ok {
		id := user.ID
		userID = &id
	}

	errSub := h.dispatcher.Subscribe(c.Request.Context(), userID, body.Endpoint, body.Keys.P256dh, body.Keys.Auth)
	if errSub != nil {
		switch {
		case errors.Is(errSub, push.ErrDisabled):
			c.JSON(http.StatusForbidden, gin.H{"status": "disabled"})
		case errors.Is(errSub, push.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "endpoint and keys are required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "subscribe failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// checkSubscriptionRequest defines the body for a subscription check.
type checkSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
}

// CheckSubscription reports whether an endpoint holds an active subscription.
func (h *NotificationsHandler) CheckSubscription(c *gin.Context) {
	var body checkSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	subscriberID, subscribed, errCheck := h.dispatcher.SubscriberID(c.Request.Context(), body.Endpoint)
	if errCheck != nil {
		if errors.Is(errCheck, push.ErrDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"status": "disabled"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "check failed"})
		return
	}
	if !subscribed {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Endpoint is not registred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "Endpoint is registred",
		"subscriber_id": subscriberID,
	})
}

// sendRequest defines the body for an admin broadcast.
type sendRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Send fans a broadcast out to every active subscriber and reports the
// delivery outcome.
func (h *NotificationsHandler) Send(c *gin.Context) {
	var body sendRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	report, errSend := h.dispatcher.SendNotification(ctx, body.Title, body.Message)
	if errSend != nil {
		switch {
		case errors.Is(errSend, push.ErrDisabled):
			c.JSON(http.StatusForbidden, gin.H{"status": "disabled"})
		case errors.Is(errSend, push.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "title and message are required"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "broadcast failed"})
		}
		return
	}

	_ = h.audit.Log(ctx, actorFrom(c), "notifications.broadcast",
		"broadcast \""+body.Title+"\" sent", auditlog.LevelInfo)
	c.JSON(http.StatusOK, gin.H{"status": "success", "report": report})
}
