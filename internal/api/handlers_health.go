package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

func (s *Server) getHealthTrends(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	trends, err := s.svc.Health.GetHealthTrends(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (s *Server) getHealthMetrics(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	metrics, err := s.svc.Health.GetHealthMetrics(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (s *Server) getHealthReport(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	report, err := s.svc.Health.CreateHealthReport(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getMetricHistory(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	since, ok := timeQuery(c, "since")
	if !ok {
		return
	}
	var from time.Time
	if since != nil {
		from = *since
	}

	metric := c.Param("metric")
	points, err := s.svc.Trends.GetMetricHistory(c.Request.Context(), userID, metric, from)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"metric":   metric,
		"points":   points,
		"analysis": s.svc.Trends.AnalyzeTrend(points),
	})
}

func (s *Server) getRecentSymptoms(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}
	if strings.TrimSpace(c.Query("days")) == "" {
		days = services.DefaultSymptomWindowDays
	}
	report, err := s.svc.Health.GetRecentSymptoms(c.Request.Context(), userID, days)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) getRiskAssessment(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	assessment, err := s.svc.Health.GetRiskAssessment(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) getHealthDashboard(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	dashboard, err := s.svc.Health.GetHealthDashboard(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

type analyzeTrendRequest struct {
	Points []domain.TrendPoint `json:"points"`
}

func (s *Server) analyzeTrend(c *gin.Context) {
	var req analyzeTrendRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, s.svc.Trends.AnalyzeTrend(req.Points))
}
