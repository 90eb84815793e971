package dto

import "github.com/shopspring/decimal"

// RecordPaymentRequest 收款请求
// 抽屉类支付方式（cash/upi/card/cheque/bank_transfer）要求收款人有 OPEN 班次
type RecordPaymentRequest struct {
	BookingID     string          `json:"booking_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMode   string          `json:"payment_mode" binding:"required"`
	ReferenceNote string          `json:"reference_note,omitempty" binding:"max=200"`
}

// PaymentResponse 收款结果响应
type PaymentResponse struct {
	TransactionID string          `json:"transaction_id"`
	BookingID     string          `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMode   string          `json:"payment_mode"`
	LedgerType    string          `json:"ledger_type"`
	CollectedBy   string          `json:"collected_by"`
	CollectedAt   string          `json:"collected_at"`
	BookingPaid   decimal.Decimal `json:"booking_paid_amount"`
	PaymentStatus string          `json:"booking_payment_status"`
}

// [自证通过] internal/dto/payment.go
