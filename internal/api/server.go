package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/interfaces"
)

// Services are the application services exposed over HTTP
type Services struct {
	Users         interfaces.UserServiceInterface
	Chats         interfaces.ChatServiceInterface
	Health        interfaces.HealthMonitorServiceInterface
	Trends        interfaces.TrendServiceInterface
	Notifications interfaces.NotificationServiceInterface
}

type Server struct {
	cfg    config.HTTPConfig
	svc    Services
	logger *slog.Logger
	http   *http.Server
}

func NewServer(cfg config.HTTPConfig, svc Services, logger *slog.Logger) *Server {
	return &Server{cfg: cfg, svc: svc, logger: logger}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), requestID())
	if len(s.cfg.CORSAllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.CORSAllowOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/health", s.health)

	api := router.Group(s.cfg.APIPrefix)

	api.POST("/users", s.createUser)
	api.GET("/users/:id/profile", s.getProfile)
	api.PATCH("/users/:id/profile", s.updateProfile)
	api.GET("/users/:id/stats", s.getUserStats)
	api.GET("/users/:id/health-summary", s.getHealthSummary)
	api.DELETE("/users/:id", s.deleteAccount)

	api.POST("/users/:id/chats", s.processTurn)
	api.GET("/users/:id/chats", s.getChatHistory)
	api.GET("/users/:id/chats/search", s.searchChats)
	api.GET("/users/:id/chats/:chatId", s.getChatThread)
	api.DELETE("/users/:id/chats", s.deleteChatHistory)

	api.GET("/users/:id/health/trends", s.getHealthTrends)
	api.GET("/users/:id/health/metrics", s.getHealthMetrics)
	api.GET("/users/:id/health/report", s.getHealthReport)
	api.GET("/users/:id/health/metrics/:metric/history", s.getMetricHistory)
	api.GET("/users/:id/health/symptoms", s.getRecentSymptoms)
	api.GET("/users/:id/health/risk-assessment", s.getRiskAssessment)
	api.GET("/users/:id/health/dashboard", s.getHealthDashboard)
	api.POST("/trends/analyze", s.analyzeTrend)

	api.POST("/users/:id/notifications", s.createNotification)
	api.GET("/users/:id/notifications", s.listNotifications)
	api.GET("/users/:id/notifications/stats", s.notificationStats)
	api.POST("/users/:id/notifications/reminders", s.scheduleReminders)
	api.PATCH("/users/:id/notifications/read-all", s.markAllRead)
	api.PATCH("/users/:id/notifications/:nid/read", s.markRead)
	api.DELETE("/users/:id/notifications/:nid", s.deleteNotification)

	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", s.http.Addr, "prefix", s.cfg.APIPrefix)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	s.logger.Info("HTTP API stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "health-dialogue",
	})
}
