package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/handlers/common"
	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
)

// SchoolHandler выбор предложения и оплата заказа школой.
type SchoolHandler struct {
	workspaces *workspace.Registry
}

func NewSchoolHandler(workspaces *workspace.Registry) *SchoolHandler {
	return &SchoolHandler{workspaces: workspaces}
}

// ListQuotations GET /school/orders/:id/quotations
func (h *SchoolHandler) ListQuotations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orderID, err := common.ParseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	ctrl := h.workspaces.Quotations(userID)
	ctrl.LoadQuotations(c.Request.Context(), orderID)
	response.Success(c, ctrl.State())
}

// SelectQuotation POST /school/quotations/:id/select
func (h *SchoolHandler) SelectQuotation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	quotationID, err := common.ParseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.workspaces.Quotations(userID).SelectQuotation(quotationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// CloseSummary DELETE /school/quotations/summary
func (h *SchoolHandler) CloseSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctrl := h.workspaces.Quotations(userID)
	ctrl.CloseSummary()
	response.Success(c, ctrl.State())
}

// ProceedToPayment POST /school/quotations/payment
// Возвращает адрес платёжной страницы, переход выполняет клиент.
func (h *SchoolHandler) ProceedToPayment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	defer h.workspaces.Hold(userID)()

	redirect, err := h.workspaces.Quotations(userID).ProceedToPayment(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, redirect)
}

// PaymentResult GET /school/payment/result?orderType=order&quotationId=N
func (h *SchoolHandler) PaymentResult(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if orderType := c.Query("orderType"); orderType != "" && orderType != models.PaymentOrderType {
		response.Error(c, apperror.Validation("orderType", "неизвестный тип оплаты"))
		return
	}

	quotationID, err := common.ParseIDQuery(c, "quotationId")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.workspaces.Quotations(userID).ResumePayment(c.Request.Context(), quotationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
