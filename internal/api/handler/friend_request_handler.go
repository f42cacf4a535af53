package handler

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/service"

	"github.com/gin-gonic/gin"
)

type FriendRequestHandler struct {
	friendRequestSvc service.FriendRequestService
}

func NewFriendRequestHandler(friendRequestSvc service.FriendRequestService) *FriendRequestHandler {
	return &FriendRequestHandler{friendRequestSvc: friendRequestSvc}
}

// Submit 发送好友申请
func (h *FriendRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitFriendRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.friendRequestSvc.Submit(c.Request.Context(), currentUserID(c), req.To)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *FriendRequestHandler) Accept(c *gin.Context) {
	h.respond(c, consts.ActionAccept)
}

func (h *FriendRequestHandler) Reject(c *gin.Context) {
	h.respond(c, consts.ActionReject)
}

func (h *FriendRequestHandler) respond(c *gin.Context, action string) {
	result, err := h.friendRequestSvc.Respond(c.Request.Context(), currentUserID(c), c.Param("id"), action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListSent 我发出的待处理申请
func (h *FriendRequestHandler) ListSent(c *gin.Context) {
	list, err := h.friendRequestSvc.ListSent(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListReceived 我收到的待处理申请
func (h *FriendRequestHandler) ListReceived(c *gin.Context) {
	list, err := h.friendRequestSvc.ListReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

func (h *FriendRequestHandler) ListFriends(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}
	page.Normalize()

	list, err := h.friendRequestSvc.ListFriends(c.Request.Context(), currentUserID(c), page.Page, page.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
