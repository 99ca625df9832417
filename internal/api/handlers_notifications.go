package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

type createNotificationRequest struct {
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

func (s *Server) createNotification(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req createNotificationRequest
	if !bindJSON(c, &req) {
		return
	}
	nType, ok := notificationTypeValue(c, req.Type)
	if !ok {
		return
	}
	if nType == nil {
		validationError(c, "notification type is required")
		return
	}

	n, err := s.svc.Notifications.CreateNotification(c.Request.Context(), userID, services.CreateNotificationRequest{
		Type:         *nType,
		Title:        req.Title,
		Message:      req.Message,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (s *Server) listNotifications(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var opts services.NotificationListOptions
	if opts.Page, opts.Limit, ok = pageQuery(c); !ok {
		return
	}
	if opts.Type, ok = notificationTypeValue(c, c.Query("type")); !ok {
		return
	}
	if opts.IsRead, ok = boolQuery(c, "is_read"); !ok {
		return
	}

	page, err := s.svc.Notifications.GetUserNotifications(c.Request.Context(), userID, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) notificationStats(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	stats, err := s.svc.Notifications.GetNotificationStats(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) scheduleReminders(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	created, err := s.svc.Notifications.ScheduleDefaultReminders(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": created})
}

func (s *Server) markRead(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	n, err := s.svc.Notifications.MarkAsRead(c.Request.Context(), userID, c.Param("nid"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) markAllRead(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	updated, err := s.svc.Notifications.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (s *Server) deleteNotification(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := s.svc.Notifications.DeleteNotification(c.Request.Context(), userID, c.Param("nid")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
