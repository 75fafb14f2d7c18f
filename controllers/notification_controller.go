package controllers

import (
	"net/http"
	"strconv"

	"letter-workflow-api/config"
	"letter-workflow-api/services"

	"github.com/gin-gonic/gin"
)

// GetMyNotifications lists the caller's notifications, newest first. Pass
// ?unread=1 to filter to unread only.
func GetMyNotifications(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	unreadOnly := c.Query("unread") == "1"

	svc := services.NewNotificationService(config.DB)
	notifications, err := svc.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("notification_id"), 10, 64)
	if err != nil || notificationID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	svc := services.NewNotificationService(config.DB)
	if err := svc.MarkRead(c.Request.Context(), userID, uint(notificationID)); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllNotificationsRead marks every unread notification of the caller.
func MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewNotificationService(config.DB)
	if err := svc.MarkAllRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
