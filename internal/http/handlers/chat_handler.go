package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/service"
)

// ChatHandler is the HTTP layer for chat rooms and messages.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// OpenRoom handles POST /chat/rooms. Creates or returns the room with the
// peer.
func (h *ChatHandler) OpenRoom(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		PeerID string  `json:"peer_id" binding:"required"`
		JobID  *string `json:"job_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		common.RespondBadRequest(c, "peer_id must be a valid UUID")
		return
	}

	var jobID *uuid.UUID
	if req.JobID != nil {
		id, err := uuid.Parse(*req.JobID)
		if err != nil {
			common.RespondBadRequest(c, "job_id must be a valid UUID")
			return
		}
		jobID = &id
	}

	room, err := h.chat.OpenRoom(c.Request.Context(), userID, peerID, jobID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /chat/rooms.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	rooms, err := h.chat.ListRooms(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// Send handles POST /chat/rooms/:id/messages.
func (h *ChatHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	roomID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	message, err := h.chat.Send(c.Request.Context(), roomID, userID, req.Content)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// History handles GET /chat/rooms/:id/messages. Marks the room read for the
// caller.
func (h *ChatHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	roomID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.chat.History(c.Request.Context(), roomID, userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CountUnread handles GET /chat/unread.
func (h *ChatHandler) CountUnread(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	count, err := h.chat.CountUnread(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// DeleteMessage handles DELETE /chat/messages/:id, sender only.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	messageID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}
