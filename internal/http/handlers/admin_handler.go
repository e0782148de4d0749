package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/handlers/common"
	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
)

// AdminHandler рассмотрение жалоб администратором.
type AdminHandler struct {
	workspaces *workspace.Registry
}

func NewAdminHandler(workspaces *workspace.Registry) *AdminHandler {
	return &AdminHandler{workspaces: workspaces}
}

// ListReports GET /admin/reports
// Ошибка загрузки не блокирует экран: список приходит с веткой error.
func (h *AdminHandler) ListReports(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctrl := h.workspaces.Reports(userID)
	ctrl.LoadReports(c.Request.Context())
	response.Success(c, ctrl.State())
}

// OpenApproval POST /admin/reports/:id/approval
func (h *AdminHandler) OpenApproval(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	reportID, err := common.ParseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		Action models.ApprovalAction `json:"action" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	ctrl := h.workspaces.Reports(userID)
	ctrl.EnsureLoaded(c.Request.Context())

	snap, err := ctrl.OpenApproval(reportID, req.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// UpdateApproval PATCH /admin/reports/approval
func (h *AdminHandler) UpdateApproval(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var patch models.ApprovalPatch
	if err := common.BindJSON(c, &patch); err != nil {
		response.Error(c, err)
		return
	}

	snap, err := h.workspaces.Reports(userID).UpdateDraft(patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// SubmitApproval POST /admin/reports/approval/submit
func (h *AdminHandler) SubmitApproval(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	defer h.workspaces.Hold(userID)()

	result, err := h.workspaces.Reports(userID).SubmitApproval(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CloseApproval DELETE /admin/reports/approval
func (h *AdminHandler) CloseApproval(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctrl := h.workspaces.Reports(userID)
	ctrl.CloseApproval()
	response.Success(c, ctrl.State())
}
