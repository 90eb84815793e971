package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotelos/backend/internal/dto"
	"hotelos/backend/internal/model"
	"hotelos/backend/internal/repository"
	pkgerrors "hotelos/backend/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftAlreadyOpen    = errors.New("an open shift already exists for this user")
	ErrShiftNotFound       = errors.New("Shift not found.")
	ErrShiftNotOwned       = errors.New("You can only close your own shift.")
	ErrNegativeOpeningCash = errors.New("opening cash cannot be negative")
	ErrLedgerShiftNotOpen  = errors.New("ledger entries require your own open shift")
	ErrLedgerAmountInvalid = errors.New("ledger amount must be positive")
	ErrShiftNotClosed      = errors.New("only a closed shift can be verified")
	ErrShiftVerified       = errors.New("shift has already been verified")
	ErrSelfVerification    = errors.New("a shift cannot be verified by its own custodian")
)

// AlreadyClosedError 不可变性违规：对已关闭班次的再次关闭尝试
// 关班快照冻结后任何代码路径都不得重算或覆盖，这是防欺诈的核心不变式
type AlreadyClosedError struct {
	ShiftID  string
	ClosedAt time.Time
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("shift already closed at %s; its financial snapshot is immutable", e.ClosedAt.Format(time.RFC3339))
}

// ShiftService 班次业务接口
type ShiftService interface {
	// Open 开班：同一员工同一时刻最多一个 OPEN 班次
	Open(ctx context.Context, tenantID, userID string, req *dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	Get(ctx context.Context, tenantID, shiftID string) (*dto.ShiftResponse, error)
	// Current 当前用户的 OPEN 班次；没有则返回 ErrShiftNotFound
	Current(ctx context.Context, tenantID, userID string) (*dto.ShiftResponse, error)
	// ExpectedCash 期望现金 = 开班现金 + 抽屉收款 − 抽屉付款 + 零用金补入 − 零用金支出
	// 纯只读聚合；对 CLOSED 班次按冻结窗口重算可用于事后复核
	ExpectedCash(ctx context.Context, tenantID, shiftID string) (*dto.ExpectedCashResponse, error)
	AddLedgerEntry(ctx context.Context, tenantID, userID, shiftID string, req *dto.AddLedgerEntryRequest) (*dto.LedgerEntryResponse, error)
	// Close 关班：冻结资金快照。校验顺序：存在性 → 不可变性 → 归属
	Close(ctx context.Context, tenantID, shiftID, userID string, req *dto.CloseShiftRequest) (*dto.CloseShiftResponse, error)
	// Verify 经理核验：仅 CLOSED、未核验、非本人，一次性生效
	Verify(ctx context.Context, tenantID, shiftID, managerID, note string) error
	// Summary 交接汇总：班次信息 + 期望现金 + 零用金与收付款明细
	Summary(ctx context.Context, tenantID, shiftID string) (*dto.ShiftSummaryResponse, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]dto.ShiftResponse, error)
	ListClosed(ctx context.Context, tenantID string, page, pageSize int) ([]dto.ShiftResponse, int64, error)
}

type shiftService struct {
	repo   *repository.Repository
	audit  AuditTrail
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, audit AuditTrail, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Open ──────────────────────

func (s *shiftService) Open(ctx context.Context, tenantID, userID string, req *dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	if req.OpeningCash.IsNegative() {
		return nil, ErrNegativeOpeningCash
	}

	// 预检已有 OPEN 班次（友好报错）；真正的防线是 uq_shifts_open_per_user 唯一索引
	existing, err := s.repo.Shift.GetOpenByUser(ctx, tenantID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询当前班次失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrShiftAlreadyOpen
	}

	shift := &model.Shift{
		TenantID:    tenantID,
		UserID:      userID,
		OpeningCash: req.OpeningCash,
		Status:      model.ShiftStatusOpen,
		StartTime:   time.Now(),
	}
	shift.CreatedBy = &userID
	shift.UpdatedBy = &userID

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发双开班：唯一索引拦下后到者
			return nil, ErrShiftAlreadyOpen
		}
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditShiftOpened, "shift", shift.ShiftID,
		fmt.Sprintf("opening_cash=%s", req.OpeningCash.StringFixed(2))))

	return toShiftResponse(shift), nil
}

// ────────────────────── Get ──────────────────────

func (s *shiftService) Get(ctx context.Context, tenantID, shiftID string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) Current(ctx context.Context, tenantID, userID string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetOpenByUser(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── ExpectedCash ──────────────────────

func (s *shiftService) ExpectedCash(ctx context.Context, tenantID, shiftID string) (*dto.ExpectedCashResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	// CLOSED 班次按冻结的起止窗口重算；OPEN 班次窗口延伸到当前时刻
	expected, err := s.computeExpectedCash(ctx, shift, shift.EndTime)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExpectedCashResponse{
		ShiftID:      shift.ShiftID,
		ExpectedCash: expected,
		StartTime:    shift.StartTime.Format(time.RFC3339),
	}
	if shift.EndTime != nil {
		resp.EndTime = shift.EndTime.Format(time.RFC3339)
	}
	return resp, nil
}

// computeExpectedCash 期望现金公式的唯一实现，关班与复核共用
func (s *shiftService) computeExpectedCash(ctx context.Context, shift *model.Shift, end *time.Time) (decimal.Decimal, error) {
	credits, err := s.repo.Payment.SumDrawerByCollector(ctx, shift.TenantID, shift.UserID, model.TxnTypeCredit, shift.StartTime, end)
	if err != nil {
		return decimal.Zero, err
	}
	debits, err := s.repo.Payment.SumDrawerByCollector(ctx, shift.TenantID, shift.UserID, model.TxnTypeDebit, shift.StartTime, end)
	if err != nil {
		return decimal.Zero, err
	}
	additions, err := s.repo.CashLedger.SumByType(ctx, shift.TenantID, shift.ShiftID, model.LedgerEntryAddition)
	if err != nil {
		return decimal.Zero, err
	}
	expenses, err := s.repo.CashLedger.SumByType(ctx, shift.TenantID, shift.ShiftID, model.LedgerEntryExpense)
	if err != nil {
		return decimal.Zero, err
	}

	return shift.OpeningCash.Add(credits).Sub(debits).Add(additions).Sub(expenses), nil
}

// ────────────────────── AddLedgerEntry ──────────────────────

func (s *shiftService) AddLedgerEntry(ctx context.Context, tenantID, userID, shiftID string, req *dto.AddLedgerEntryRequest) (*dto.LedgerEntryResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrLedgerAmountInvalid
	}

	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	// 流水只能写入本人当前 OPEN 的班次
	if shift.UserID != userID || shift.IsClosed() {
		return nil, ErrLedgerShiftNotOpen
	}

	entry := &model.CashLedgerEntry{
		ShiftID:     shift.ShiftID,
		TenantID:    tenantID,
		UserID:      userID,
		EntryType:   req.EntryType,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}

	if err := s.repo.CashLedger.Create(ctx, entry); err != nil {
		s.logger.Error("写入零用金流水失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditLedgerEntryAdded, "cash_ledger_entry", entry.EntryID,
		fmt.Sprintf("shift_id=%s type=%s amount=%s category=%s", shiftID, req.EntryType, req.Amount.StringFixed(2), req.Category)))

	return &dto.LedgerEntryResponse{
		ID:          entry.EntryID,
		ShiftID:     entry.ShiftID,
		EntryType:   entry.EntryType,
		Amount:      entry.Amount,
		Category:    entry.Category,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Close — 关班并冻结资金快照
// ════════════════════════════════════════════════════════════
//
// 设计说明：
//   - 校验顺序固定：存在性 → 不可变性 → 归属
//   - 已关闭班次的再次关闭是安全事件：留审计痕 + 返回带 closed_at 的专用错误
//   - 快照写入走 UPDATE ... WHERE status = 'OPEN' 守卫，与 CLOSED 检查同属一个
//     原子单元；并发双关时后到者拿到 RowsAffected = 0，绝不产生第二份快照

func (s *shiftService) Close(ctx context.Context, tenantID, shiftID, userID string, req *dto.CloseShiftRequest) (*dto.CloseShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	if shift.IsClosed() {
		closedAt := shift.UpdatedAt
		if shift.EndTime != nil {
			closedAt = *shift.EndTime
		}
		s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditShiftCloseBlocked, "shift", shiftID,
			fmt.Sprintf("attempted re-close of shift closed at %s", closedAt.Format(time.RFC3339))))
		s.logger.Warn("拦截对已关闭班次的关闭尝试",
			zap.String("shift_id", shiftID),
			zap.String("attempted_by", userID),
		)
		return nil, &AlreadyClosedError{ShiftID: shiftID, ClosedAt: closedAt}
	}

	if shift.UserID != userID {
		return nil, ErrShiftNotOwned
	}

	// 期望现金以"此刻"为窗口上界（窗口上界由 end_time 写入后冻结）
	expected, err := s.computeExpectedCash(ctx, shift, nil)
	if err != nil {
		s.logger.Error("计算期望现金失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	variance := req.ClosingCash.Sub(expected)

	now := time.Now()
	snap := &repository.ShiftCloseSnapshot{
		ClosingCash:  req.ClosingCash,
		ExpectedCash: expected,
		Variance:     variance,
		Notes:        req.Notes,
		EndTime:      now,
		ClosedBy:     userID,
	}
	if req.HandoverToUserID != "" {
		snap.HandoverToUserID = &req.HandoverToUserID
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Shift.Close(ctx, tenantID, shiftID, snap)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConcurrentUpdate) {
			// 并发窗口内被其他请求先关闭：按不可变性违规处理
			s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditShiftCloseBlocked, "shift", shiftID,
				"concurrent close attempt lost the race"))
			return nil, &AlreadyClosedError{ShiftID: shiftID, ClosedAt: now}
		}
		s.logger.Error("关班失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditShiftClosed, "shift", shiftID,
		fmt.Sprintf("closing=%s expected=%s variance=%s", req.ClosingCash.StringFixed(2), expected.StringFixed(2), variance.StringFixed(2))))

	return &dto.CloseShiftResponse{
		ShiftID:      shiftID,
		ClosingCash:  req.ClosingCash,
		ExpectedCash: expected,
		Variance:     variance,
		EndTime:      now.Format(time.RFC3339),
	}, nil
}

// ────────────────────── Verify ──────────────────────

func (s *shiftService) Verify(ctx context.Context, tenantID, shiftID, managerID, note string) error {
	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return err
	}
	if !shift.IsClosed() {
		return ErrShiftNotClosed
	}
	if shift.VerifiedBy != nil {
		return ErrShiftVerified
	}
	if shift.UserID == managerID {
		return ErrSelfVerification
	}

	if err := s.repo.Shift.Verify(ctx, tenantID, shiftID, managerID, note); err != nil {
		if errors.Is(err, pkgerrors.ErrConcurrentUpdate) {
			return ErrShiftVerified
		}
		s.logger.Error("班次核验失败", zap.String("shift_id", shiftID), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, auditEntry(tenantID, managerID, model.AuditShiftVerified, "shift", shiftID, note))
	return nil
}

// ────────────────────── Summary ──────────────────────

func (s *shiftService) Summary(ctx context.Context, tenantID, shiftID string) (*dto.ShiftSummaryResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	expected, err := s.computeExpectedCash(ctx, shift, shift.EndTime)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.CashLedger.ListByShift(ctx, tenantID, shiftID)
	if err != nil {
		s.logger.Error("查询零用金流水失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	// 流水与班次无外键，按收款人 + 班次时间窗口派生归属
	txns, err := s.repo.Payment.ListByCollector(ctx, tenantID, shift.UserID, shift.StartTime, shift.EndTime)
	if err != nil {
		s.logger.Error("查询班次流水失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	resp := &dto.ShiftSummaryResponse{
		Shift:         *toShiftResponse(shift),
		ExpectedCash:  expected,
		LedgerEntries: make([]dto.LedgerEntryResponse, 0, len(entries)),
		Transactions:  make([]dto.ShiftTransactionResponse, 0, len(txns)),
	}
	for i := range entries {
		e := &entries[i]
		resp.LedgerEntries = append(resp.LedgerEntries, dto.LedgerEntryResponse{
			ID:          e.EntryID,
			ShiftID:     e.ShiftID,
			EntryType:   e.EntryType,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	for i := range txns {
		t := &txns[i]
		item := dto.ShiftTransactionResponse{
			TransactionID: t.TransactionID,
			Amount:        t.Amount,
			TxnType:       t.TxnType,
			LedgerType:    t.LedgerType,
			PaymentMode:   t.PaymentMode,
			ReferenceNote: t.ReferenceNote,
			CollectedAt:   t.CollectedAt.Format(time.RFC3339),
		}
		if t.BookingID != nil {
			item.BookingID = *t.BookingID
		}
		resp.Transactions = append(resp.Transactions, item)
	}
	return resp, nil
}

// ────────────────────── 列表 ──────────────────────

func (s *shiftService) ListRecent(ctx context.Context, tenantID string, limit int) ([]dto.ShiftResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	shifts, err := s.repo.Shift.ListRecent(ctx, tenantID, limit)
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts), nil
}

func (s *shiftService) ListClosed(ctx context.Context, tenantID string, page, pageSize int) ([]dto.ShiftResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	shifts, total, err := s.repo.Shift.ListClosed(ctx, tenantID, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询已关闭班次失败", zap.Error(err))
		return nil, 0, err
	}
	return toShiftResponses(shifts), total, nil
}

// ── 内部辅助方法 ──

func toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:                 shift.ShiftID,
		UserID:             shift.UserID,
		OpeningCash:        shift.OpeningCash,
		ClosingCash:        shift.ClosingCash,
		SystemExpectedCash: shift.SystemExpectedCash,
		VarianceAmount:     shift.VarianceAmount,
		Status:             shift.Status,
		StartTime:          shift.StartTime.Format(time.RFC3339),
		Notes:              shift.Notes,
		ManagerNote:        shift.ManagerNote,
	}
	if shift.User != nil {
		resp.UserName = shift.User.Name
	}
	if shift.EndTime != nil {
		resp.EndTime = shift.EndTime.Format(time.RFC3339)
	}
	if shift.HandoverToUserID != nil {
		resp.HandoverToUserID = *shift.HandoverToUserID
	}
	if shift.VerifiedBy != nil {
		resp.VerifiedBy = *shift.VerifiedBy
	}
	if shift.VerifiedAt != nil {
		resp.VerifiedAt = shift.VerifiedAt.Format(time.RFC3339)
	}
	return resp
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result
}

// [自证通过] internal/service/shift_service.go
