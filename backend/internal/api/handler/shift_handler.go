package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hotelos/backend/internal/dto"
	"hotelos/backend/internal/service"
	"hotelos/backend/pkg/response"
)

// ShiftHandler 班次模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// OpenShift 开班
// POST /api/v1/shifts/open
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	var req dto.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Open(c.Request.Context(), tenantID, userID, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.Created(c, shift)
}

// GetShift 班次详情
// GET /api/v1/shifts/:id
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id := c.Param("id")
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// GetCurrentShift 当前用户的 OPEN 班次
// GET /api/v1/shifts/current
func (h *ShiftHandler) GetCurrentShift(c *gin.Context) {
	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	shift, err := h.shiftSvc.Current(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, shift)
}

// GetExpectedCash 期望现金
// GET /api/v1/shifts/:id/expected-cash
func (h *ShiftHandler) GetExpectedCash(c *gin.Context) {
	id := c.Param("id")
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.ExpectedCash(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// GetShiftSummary 班次交接汇总（含零用金与收付款明细）
// GET /api/v1/shifts/:id/summary
func (h *ShiftHandler) GetShiftSummary(c *gin.Context) {
	id := c.Param("id")
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Summary(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// AddLedgerEntry 记零用金流水
// POST /api/v1/shifts/:id/ledger
func (h *ShiftHandler) AddLedgerEntry(c *gin.Context) {
	id := c.Param("id")

	var req dto.AddLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	entry, err := h.shiftSvc.AddLedgerEntry(c.Request.Context(), tenantID, userID, id, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.Created(c, entry)
}

// CloseShift 关班
// POST /api/v1/shifts/:id/close
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	id := c.Param("id")

	var req dto.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Close(c.Request.Context(), tenantID, id, userID, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, result)
}

// VerifyShift 经理核验（仅 admin / manager，路由层限定）
// POST /api/v1/shifts/:id/verify
func (h *ShiftHandler) VerifyShift(c *gin.Context) {
	id := c.Param("id")

	var req dto.VerifyShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	tenantID, userID, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.shiftSvc.Verify(c.Request.Context(), tenantID, id, userID, req.Note); err != nil {
		h.handleShiftError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListShifts 近期班次列表
// GET /api/v1/shifts
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	shifts, err := h.shiftSvc.ListRecent(c.Request.Context(), tenantID, limit)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": shifts})
}

// ListClosedShifts 已关闭班次分页列表（对账用）
// GET /api/v1/shifts/closed
func (h *ShiftHandler) ListClosedShifts(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	shifts, total, err := h.shiftSvc.ListClosed(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, shifts, total, page, pageSize)
}

// handleShiftError 统一处理班次模块业务错误
func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	var closedErr *service.AlreadyClosedError
	switch {
	case errors.As(err, &closedErr):
		response.ErrorWithDetails(c, 409, 11002,
			"Shift is already closed. Its financial snapshot cannot be recalculated.",
			"closed_at="+closedErr.ClosedAt.Format(time.RFC3339))
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 11001, "Shift not found.")
	case errors.Is(err, service.ErrShiftNotOwned):
		response.Forbidden(c, 11003, "You can only close your own shift.")
	case errors.Is(err, service.ErrShiftAlreadyOpen):
		response.Conflict(c, 11004, "You already have an open shift.")
	case errors.Is(err, service.ErrNegativeOpeningCash):
		response.BadRequest(c, 11005, "Opening cash cannot be negative.")
	case errors.Is(err, service.ErrLedgerAmountInvalid):
		response.BadRequest(c, 11006, "Ledger amount must be positive.")
	case errors.Is(err, service.ErrLedgerShiftNotOpen):
		response.Conflict(c, 11007, "Ledger entries require your own open shift.")
	case errors.Is(err, service.ErrShiftNotClosed):
		response.Conflict(c, 11008, "Only a closed shift can be verified.")
	case errors.Is(err, service.ErrShiftVerified):
		response.Conflict(c, 11009, "Shift has already been verified.")
	case errors.Is(err, service.ErrSelfVerification):
		response.Forbidden(c, 11010, "A shift cannot be verified by its own custodian.")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/shift_handler.go
