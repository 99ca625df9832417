package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

type processTurnRequest struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

func (s *Server) processTurn(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req processTurnRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := domain.ValidateMessage(req.Message); err != nil {
		validationError(c, publicMessage(err))
		return
	}
	category, ok := categoryValue(c, req.Category)
	if !ok {
		return
	}

	turn, err := s.svc.Chats.ProcessTurn(c.Request.Context(), userID, req.Message, category)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, turn)
}

func historyOptions(c *gin.Context) (services.ChatHistoryOptions, bool) {
	var opts services.ChatHistoryOptions
	var ok bool
	if opts.Page, opts.Limit, ok = pageQuery(c); !ok {
		return opts, false
	}
	if opts.Category, ok = categoryValue(c, c.Query("category")); !ok {
		return opts, false
	}
	if opts.Since, ok = timeQuery(c, "since"); !ok {
		return opts, false
	}
	if opts.Before, ok = timeQuery(c, "before"); !ok {
		return opts, false
	}
	return opts, true
}

func (s *Server) getChatHistory(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	opts, ok := historyOptions(c)
	if !ok {
		return
	}

	history, err := s.svc.Chats.GetChatHistory(c.Request.Context(), userID, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) searchChats(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	opts, ok := historyOptions(c)
	if !ok {
		return
	}

	history, err := s.svc.Chats.SearchChats(c.Request.Context(), userID, c.Query("q"), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) getChatThread(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	turn, err := s.svc.Chats.GetChatThread(c.Request.Context(), userID, c.Param("chatId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

func (s *Server) deleteChatHistory(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var filter domain.ChatDeleteFilter
	if filter.Category, ok = categoryValue(c, c.Query("category")); !ok {
		return
	}
	if filter.Before, ok = timeQuery(c, "before"); !ok {
		return
	}

	deleted, err := s.svc.Chats.DeleteChatHistory(c.Request.Context(), userID, filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
