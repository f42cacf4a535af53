package handler

import (
	"SetMatch/internal/pkg/response"
	"SetMatch/internal/service"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultReconcileMinutes = 60
	maxReconcileMinutes     = 24 * 60
	manualReconcileLimit    = 1000
)

type AdminHandler struct {
	negotiationSvc service.NegotiationService
}

func NewAdminHandler(negotiationSvc service.NegotiationService) *AdminHandler {
	return &AdminHandler{negotiationSvc: negotiationSvc}
}

// Reconcile 手动触发一次镜像通知对账
func (h *AdminHandler) Reconcile(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("minutes", strconv.Itoa(defaultReconcileMinutes)))
	if err != nil || minutes <= 0 || minutes > maxReconcileMinutes {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	repaired, err := h.negotiationSvc.Reconcile(c.Request.Context(), time.Now().Add(-time.Duration(minutes)*time.Minute), manualReconcileLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"repaired": repaired})
}
