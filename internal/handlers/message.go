package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (mh *MessageHandler) Post(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	msg, err := mh.messageService.PostMessage(c.Request.Context(), rd.OrgID, rd.UserID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (mh *MessageHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	messages, err := mh.messageService.ListMessages(c.Request.Context(), rd.OrgID, rd.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (mh *MessageHandler) UnreadCount(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	count, err := mh.messageService.UnreadCount(c.Request.Context(), rd.OrgID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
