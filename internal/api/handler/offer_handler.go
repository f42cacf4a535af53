package handler

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/service"

	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	offerSvc service.OfferService
}

func NewOfferHandler(offerSvc service.OfferService) *OfferHandler {
	return &OfferHandler{offerSvc: offerSvc}
}

// Submit 向对方发起报价，生成一对通知
func (h *OfferHandler) Submit(c *gin.Context) {
	var req dto.SubmitOfferDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.offerSvc.SubmitOffer(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SaveHistory 卖家保存一次报价记录
func (h *OfferHandler) SaveHistory(c *gin.Context) {
	var req dto.SaveOfferHistoryDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.offerSvc.SaveHistory(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *OfferHandler) ListHistory(c *gin.Context) {
	var page dto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		bindFailed(c, err)
		return
	}
	page.Normalize()

	list, err := h.offerSvc.ListHistory(c.Request.Context(), currentUserID(c), page.Page, page.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
