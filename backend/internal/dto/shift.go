package dto

import "github.com/shopspring/decimal"

// ── 班次模块请求 ──

// OpenShiftRequest 开班请求
type OpenShiftRequest struct {
	OpeningCash decimal.Decimal `json:"opening_cash" binding:"required"`
}

// CloseShiftRequest 关班请求
type CloseShiftRequest struct {
	ClosingCash      decimal.Decimal `json:"closing_cash" binding:"required"`
	HandoverToUserID string          `json:"handover_to_user_id,omitempty"`
	Notes            string          `json:"notes,omitempty" binding:"max=500"`
}

// AddLedgerEntryRequest 零用金流水请求
type AddLedgerEntryRequest struct {
	EntryType   string          `json:"entry_type" binding:"required,oneof=addition expense"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Category    string          `json:"category" binding:"required,max=50"`
	Description string          `json:"description,omitempty" binding:"max=500"`
}

// VerifyShiftRequest 班次核验请求（经理签字）
type VerifyShiftRequest struct {
	Note string `json:"note,omitempty" binding:"max=500"`
}

// ExpectedCashQuery 期望现金查询参数
// 不传时间时按班次自身的起止窗口计算
type ExpectedCashQuery struct {
	StartTime string `form:"start_time"`
	EndTime   string `form:"end_time"`
}

// ── 班次模块响应 ──

// ShiftResponse 班次信息响应
type ShiftResponse struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	UserName           string           `json:"user_name,omitempty"`
	OpeningCash        decimal.Decimal  `json:"opening_cash"`
	ClosingCash        *decimal.Decimal `json:"closing_cash,omitempty"`
	SystemExpectedCash *decimal.Decimal `json:"system_expected_cash,omitempty"`
	VarianceAmount     *decimal.Decimal `json:"variance_amount,omitempty"`
	Status             string           `json:"status"`
	StartTime          string           `json:"start_time"`
	EndTime            string           `json:"end_time,omitempty"`
	HandoverToUserID   string           `json:"handover_to_user_id,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	VerifiedBy         string           `json:"verified_by,omitempty"`
	VerifiedAt         string           `json:"verified_at,omitempty"`
	ManagerNote        string           `json:"manager_note,omitempty"`
}

// CloseShiftResponse 关班结果响应
type CloseShiftResponse struct {
	ShiftID      string          `json:"shift_id"`
	ClosingCash  decimal.Decimal `json:"closing_cash"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	Variance     decimal.Decimal `json:"variance"`
	EndTime      string          `json:"end_time"`
}

// ExpectedCashResponse 期望现金响应
type ExpectedCashResponse struct {
	ShiftID      string          `json:"shift_id"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	StartTime    string          `json:"start_time"`
	EndTime      string          `json:"end_time,omitempty"`
}

// LedgerEntryResponse 零用金流水响应
type LedgerEntryResponse struct {
	ID          string          `json:"id"`
	ShiftID     string          `json:"shift_id"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// ShiftTransactionResponse 班次窗口内的收付款流水（按收款人 + 时间窗口派生归属）
type ShiftTransactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	BookingID     string          `json:"booking_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	TxnType       string          `json:"txn_type"`
	LedgerType    string          `json:"ledger_type"`
	PaymentMode   string          `json:"payment_mode"`
	ReferenceNote string          `json:"reference_note,omitempty"`
	CollectedAt   string          `json:"collected_at"`
}

// ShiftSummaryResponse 班次交接汇总：基本信息 + 期望现金 + 明细流水
type ShiftSummaryResponse struct {
	Shift         ShiftResponse              `json:"shift"`
	ExpectedCash  decimal.Decimal            `json:"expected_cash"`
	LedgerEntries []LedgerEntryResponse      `json:"ledger_entries"`
	Transactions  []ShiftTransactionResponse `json:"transactions"`
}

// [自证通过] internal/dto/shift.go
