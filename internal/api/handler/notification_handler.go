package handler

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationSvc service.NotificationService
	negotiationSvc  service.NegotiationService
}

func NewNotificationHandler(notificationSvc service.NotificationService, negotiationSvc service.NegotiationService) *NotificationHandler {
	return &NotificationHandler{
		notificationSvc: notificationSvc,
		negotiationSvc:  negotiationSvc,
	}
}

// Create 创建一条通知 (仅限本人)
func (h *NotificationHandler) Create(c *gin.Context) {
	var req dto.CreateNotificationDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.notificationSvc.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// List 通知列表，unread=true 时只返回未读
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	list, err := h.notificationSvc.List(c.Request.Context(), currentUserID(c), unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// Respond 接受 / 拒绝一条报价或好友申请通知
func (h *NotificationHandler) Respond(c *gin.Context) {
	var req dto.RespondDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.negotiationSvc.Respond(c.Request.Context(), currentUserID(c), c.Param("id"), req.Action, req.ByName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MarkRead 标记单条已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationSvc.MarkRead(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 一键已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationSvc.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetUnreadCount 获取未读数
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	unread, err := h.notificationSvc.GetUnreadCount(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, unread)
}
