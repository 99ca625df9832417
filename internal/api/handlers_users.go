package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

type createUserRequest struct {
	Name              string   `json:"name"`
	Age               *int     `json:"age"`
	Gender            string   `json:"gender"`
	HeightCM          *float64 `json:"height_cm"`
	WeightKG          *float64 `json:"weight_kg"`
	MedicalConditions string   `json:"medical_conditions"`
	Allergies         string   `json:"allergies"`
}

func (r createUserRequest) profile() (domain.HealthProfile, error) {
	p := domain.HealthProfile{
		Name:              strings.TrimSpace(r.Name),
		Age:               r.Age,
		HeightCM:          r.HeightCM,
		WeightKG:          r.WeightKG,
		MedicalConditions: strings.TrimSpace(r.MedicalConditions),
		Allergies:         strings.TrimSpace(r.Allergies),
	}
	if r.Age != nil && *r.Age < 0 {
		return p, errors.New("age must be non-negative")
	}
	if r.HeightCM != nil && *r.HeightCM < 0 {
		return p, errors.New("height_cm must be non-negative")
	}
	if r.WeightKG != nil && *r.WeightKG < 0 {
		return p, errors.New("weight_kg must be non-negative")
	}
	if strings.TrimSpace(r.Gender) != "" {
		g, err := domain.ParseGender(r.Gender)
		if err != nil {
			return p, errors.New(publicMessage(err))
		}
		p.Gender = g
	}
	return p, nil
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := req.profile()
	if err != nil {
		validationError(c, err.Error())
		return
	}

	created, err := s.svc.Users.CreateUser(c.Request.Context(), profile)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getProfile(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	profile, err := s.svc.Users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// updateProfile accepts a JSON object of field -> value. Unlike the chat
// path, any invalid field rejects the whole request.
func (s *Server) updateProfile(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		validationError(c, "Invalid request payload")
		return
	}

	update, rejected, err := domain.DecodeProfileUpdate(body)
	if err != nil {
		validationError(c, "Invalid request payload")
		return
	}
	if len(rejected) > 0 {
		reasons := make([]string, 0, len(rejected))
		for _, r := range rejected {
			reasons = append(reasons, r.Error())
		}
		validationError(c, strings.Join(reasons, "; "))
		return
	}

	profile, err := s.svc.Users.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) getUserStats(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	stats, err := s.svc.Users.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) getHealthSummary(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	summary, err := s.svc.Users.GetHealthSummary(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) deleteAccount(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := s.svc.Users.DeleteAccount(c.Request.Context(), userID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
