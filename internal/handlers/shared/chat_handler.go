package handlers

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/models"
	"rideshare/internal/services"
	"rideshare/internal/utils"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// StartChat returns the caller's chat with the participant, creating it if needed
func (h *ChatHandler) StartChat(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.StartChatRequest
	if !bindJSON(c, &request) {
		return
	}

	chat, err := h.chatService.FindOrCreateChat(c.Request.Context(), identity.UserID, request.ParticipantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Chat retrieved successfully", chat)
}

func (h *ChatHandler) GetChats(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	chats, err := h.chatService.ListChats(c.Request.Context(), identity.UserID, params.GetSkip(), params.GetLimit())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Page: params.Page, PageSize: params.PageSize, Count: len(chats)}
	utils.SuccessResponseWithMeta(c, "Chats retrieved successfully", chats, meta)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	messages, err := h.chatService.ListMessages(c.Request.Context(), c.Param("id"), identity.UserID, params.GetSkip(), params.GetLimit())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	meta := &utils.Meta{Page: params.Page, PageSize: params.PageSize, Count: len(messages)}
	utils.SuccessResponseWithMeta(c, "Messages retrieved successfully", messages, meta)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request models.SendMessageRequest
	if !bindJSON(c, &request) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), c.Param("id"), identity.UserID, request.Text)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Message sent successfully", message)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), c.Param("id"), identity.UserID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Chat marked as read", nil)
}
