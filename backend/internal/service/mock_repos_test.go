package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hotelos/backend/internal/model"
	"hotelos/backend/internal/repository"
	pkgerrors "hotelos/backend/pkg/errors"
)

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
	seq    int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	// 模拟 uq_shifts_open_per_user 部分唯一索引
	for _, s := range m.shifts {
		if s.TenantID == shift.TenantID && s.UserID == shift.UserID && s.Status == model.ShiftStatusOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if shift.ShiftID == "" {
		m.seq++
		shift.ShiftID = fmt.Sprintf("shift-%d", m.seq)
	}
	shift.CreatedAt = time.Now()
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, tenantID, shiftID string) (*model.Shift, error) {
	if s, ok := m.shifts[shiftID]; ok && s.TenantID == tenantID {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetOpenByUser(_ context.Context, tenantID, userID string) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.TenantID == tenantID && s.UserID == userID && s.Status == model.ShiftStatusOpen {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) Close(_ context.Context, tenantID, shiftID string, snap *repository.ShiftCloseSnapshot) error {
	s, ok := m.shifts[shiftID]
	if !ok || s.TenantID != tenantID || s.Status != model.ShiftStatusOpen {
		return pkgerrors.ErrConcurrentUpdate
	}
	s.ClosingCash = &snap.ClosingCash
	s.SystemExpectedCash = &snap.ExpectedCash
	s.VarianceAmount = &snap.Variance
	s.HandoverToUserID = snap.HandoverToUserID
	s.Notes = snap.Notes
	end := snap.EndTime
	s.EndTime = &end
	s.Status = model.ShiftStatusClosed
	return nil
}

func (m *mockShiftRepo) Verify(_ context.Context, tenantID, shiftID, managerID, note string) error {
	s, ok := m.shifts[shiftID]
	if !ok || s.TenantID != tenantID || s.Status != model.ShiftStatusClosed || s.VerifiedBy != nil {
		return pkgerrors.ErrConcurrentUpdate
	}
	now := time.Now()
	s.VerifiedBy = &managerID
	s.VerifiedAt = &now
	s.ManagerNote = note
	return nil
}

func (m *mockShiftRepo) ListRecent(_ context.Context, tenantID string, limit int) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.TenantID == tenantID && len(result) < limit {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) ListClosed(_ context.Context, tenantID string, _, limit int) ([]model.Shift, int64, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if s.TenantID == tenantID && s.Status == model.ShiftStatusClosed && len(result) < limit {
			result = append(result, *s)
		}
	}
	return result, int64(len(result)), nil
}

// ── Mock CashLedgerRepository ──

type mockCashLedgerRepo struct {
	entries []model.CashLedgerEntry
	seq     int
}

func newMockCashLedgerRepo() *mockCashLedgerRepo {
	return &mockCashLedgerRepo{}
}

func (m *mockCashLedgerRepo) Create(_ context.Context, entry *model.CashLedgerEntry) error {
	if entry.EntryID == "" {
		m.seq++
		entry.EntryID = fmt.Sprintf("entry-%d", m.seq)
	}
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockCashLedgerRepo) SumByType(_ context.Context, tenantID, shiftID, entryType string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.ShiftID == shiftID && e.EntryType == entryType {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (m *mockCashLedgerRepo) ListByShift(_ context.Context, tenantID, shiftID string) ([]model.CashLedgerEntry, error) {
	var result []model.CashLedgerEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.ShiftID == shiftID {
			result = append(result, e)
		}
	}
	return result, nil
}

// ── Mock TransactionRepository ──

type mockTxnRepo struct {
	txns []model.PaymentTransaction
	seq  int
}

func newMockTxnRepo() *mockTxnRepo {
	return &mockTxnRepo{}
}

func (m *mockTxnRepo) Create(_ context.Context, txn *model.PaymentTransaction) error {
	if txn.TransactionID == "" {
		m.seq++
		txn.TransactionID = fmt.Sprintf("txn-%d", m.seq)
	}
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *mockTxnRepo) SumDrawerByCollector(_ context.Context, tenantID, userID, txnType string, start time.Time, end *time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.txns {
		if t.TenantID != tenantID || t.CollectedBy != userID || t.LedgerType != model.LedgerCashDrawer || t.TxnType != txnType {
			continue
		}
		if t.CollectedAt.Before(start) {
			continue
		}
		if end != nil && t.CollectedAt.After(*end) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (m *mockTxnRepo) ListByCollector(_ context.Context, tenantID, userID string, start time.Time, end *time.Time) ([]model.PaymentTransaction, error) {
	var result []model.PaymentTransaction
	for _, t := range m.txns {
		if t.TenantID != tenantID || t.CollectedBy != userID || t.CollectedAt.Before(start) {
			continue
		}
		if end != nil && t.CollectedAt.After(*end) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

// ── Mock BookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.Booking
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepo) GetByID(_ context.Context, tenantID, bookingID string) (*model.Booking, error) {
	if b, ok := m.bookings[bookingID]; ok && b.TenantID == tenantID {
		copied := *b
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) GetByIDForUpdate(ctx context.Context, tenantID, bookingID string) (*model.Booking, error) {
	return m.GetByID(ctx, tenantID, bookingID)
}

func (m *mockBookingRepo) UpdatePaymentTotals(_ context.Context, booking *model.Booking, _ string) error {
	if b, ok := m.bookings[booking.BookingID]; ok {
		b.PaidAmount = booking.PaidAmount
		b.PaymentStatus = booking.PaymentStatus
	}
	return nil
}

// ── Mock RefundRepository ──

type mockRefundRepo struct {
	refunds map[string]*model.RefundRequest
	seq     int
}

func newMockRefundRepo() *mockRefundRepo {
	return &mockRefundRepo{refunds: make(map[string]*model.RefundRequest)}
}

func (m *mockRefundRepo) Create(_ context.Context, req *model.RefundRequest) error {
	// 模拟 uq_refund_pending_per_booking 部分唯一索引
	for _, r := range m.refunds {
		if r.TenantID == req.TenantID && r.BookingID == req.BookingID && r.Status == model.RefundStatusPending {
			return gorm.ErrDuplicatedKey
		}
	}
	if req.RequestID == "" {
		m.seq++
		req.RequestID = fmt.Sprintf("refund-%d", m.seq)
	}
	req.CreatedAt = time.Now()
	m.refunds[req.RequestID] = req
	return nil
}

func (m *mockRefundRepo) GetByID(_ context.Context, tenantID, requestID string) (*model.RefundRequest, error) {
	if r, ok := m.refunds[requestID]; ok && r.TenantID == tenantID {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRefundRepo) GetByIDForUpdate(ctx context.Context, tenantID, requestID string) (*model.RefundRequest, error) {
	return m.GetByID(ctx, tenantID, requestID)
}

func (m *mockRefundRepo) HasPendingForBooking(_ context.Context, tenantID, bookingID string) (bool, error) {
	for _, r := range m.refunds {
		if r.TenantID == tenantID && r.BookingID == bookingID && r.Status == model.RefundStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRefundRepo) SumApprovedForBooking(_ context.Context, tenantID, bookingID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, r := range m.refunds {
		if r.TenantID == tenantID && r.BookingID == bookingID && r.Status == model.RefundStatusApproved {
			sum = sum.Add(r.RequestedAmount)
		}
	}
	return sum, nil
}

func (m *mockRefundRepo) MarkApproved(_ context.Context, tenantID, requestID, approverID, creditNote, transactionID string, approvedAt time.Time) error {
	r, ok := m.refunds[requestID]
	if !ok || r.TenantID != tenantID || r.Status != model.RefundStatusPending {
		return pkgerrors.ErrConcurrentUpdate
	}
	r.Status = model.RefundStatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &approvedAt
	r.CreditNoteNumber = &creditNote
	r.TransactionID = &transactionID
	return nil
}

func (m *mockRefundRepo) MarkRejected(_ context.Context, tenantID, requestID, approverID, note string) error {
	r, ok := m.refunds[requestID]
	if !ok || r.TenantID != tenantID || r.Status != model.RefundStatusPending {
		return pkgerrors.ErrConcurrentUpdate
	}
	now := time.Now()
	r.Status = model.RefundStatusRejected
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.RejectionNote = note
	return nil
}

func (m *mockRefundRepo) MaxCreditNoteSeq(_ context.Context, tenantID, prefix string) (int, error) {
	maxSeq := 0
	for _, r := range m.refunds {
		if r.TenantID != tenantID || r.CreditNoteNumber == nil || !strings.HasPrefix(*r.CreditNoteNumber, prefix) {
			continue
		}
		// 与真实 SQL 一致：序号取最后一个连字符之后的整段
		n, err := strconv.Atoi((*r.CreditNoteNumber)[strings.LastIndex(*r.CreditNoteNumber, "-")+1:])
		if err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return maxSeq, nil
}

func (m *mockRefundRepo) List(_ context.Context, tenantID, status string, _, limit int) ([]model.RefundRequest, int64, error) {
	var result []model.RefundRequest
	for _, r := range m.refunds {
		if r.TenantID != tenantID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		if len(result) < limit {
			result = append(result, *r)
		}
	}
	return result, int64(len(result)), nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
	seq  int64
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.seq++
	log.ID = m.seq
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) ListFromID(_ context.Context, tenantID string, startID int64, limit int) ([]model.AuditLog, error) {
	var result []model.AuditLog
	for _, l := range m.logs {
		if l.TenantID == tenantID && l.ID >= startID && len(result) < limit {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *mockAuditLogRepo) ListRange(_ context.Context, tenantID string, startID, endID int64) ([]model.AuditLog, error) {
	var result []model.AuditLog
	for _, l := range m.logs {
		if l.TenantID == tenantID && l.ID >= startID && l.ID <= endID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock CheckpointRepository ──

type mockCheckpointRepo struct {
	checkpoints []model.AuditCheckpoint
	seq         int64
}

func newMockCheckpointRepo() *mockCheckpointRepo {
	return &mockCheckpointRepo{}
}

func (m *mockCheckpointRepo) Create(_ context.Context, cp *model.AuditCheckpoint) error {
	m.seq++
	cp.CheckpointID = m.seq
	cp.CreatedAt = time.Now()
	m.checkpoints = append(m.checkpoints, *cp)
	return nil
}

func (m *mockCheckpointRepo) GetByID(_ context.Context, tenantID string, checkpointID int64) (*model.AuditCheckpoint, error) {
	for i := range m.checkpoints {
		if m.checkpoints[i].TenantID == tenantID && m.checkpoints[i].CheckpointID == checkpointID {
			copied := m.checkpoints[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCheckpointRepo) Latest(_ context.Context, tenantID string) (*model.AuditCheckpoint, error) {
	var latest *model.AuditCheckpoint
	for i := range m.checkpoints {
		cp := &m.checkpoints[i]
		if cp.TenantID != tenantID {
			continue
		}
		if latest == nil || cp.CheckpointID > latest.CheckpointID {
			latest = cp
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *mockCheckpointRepo) List(_ context.Context, tenantID string, limit int) ([]model.AuditCheckpoint, error) {
	var result []model.AuditCheckpoint
	for _, cp := range m.checkpoints {
		if cp.TenantID == tenantID && len(result) < limit {
			result = append(result, cp)
		}
	}
	return result, nil
}

// ── Mock ShiftLockRepository ──

type mockShiftLockRepo struct {
	locks map[string]*model.ShiftLock
	seq   int
}

func newMockShiftLockRepo() *mockShiftLockRepo {
	return &mockShiftLockRepo{locks: make(map[string]*model.ShiftLock)}
}

func (m *mockShiftLockRepo) Create(_ context.Context, lock *model.ShiftLock) error {
	if _, ok := m.locks[lock.ShiftID]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.seq++
	lock.LockID = fmt.Sprintf("lock-%d", m.seq)
	lock.CreatedAt = time.Now()
	m.locks[lock.ShiftID] = lock
	return nil
}

func (m *mockShiftLockRepo) Exists(_ context.Context, shiftID string) (bool, error) {
	_, ok := m.locks[shiftID]
	return ok, nil
}

func (m *mockShiftLockRepo) GetByShift(_ context.Context, shiftID string) (*model.ShiftLock, error) {
	if l, ok := m.locks[shiftID]; ok {
		copied := *l
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// [自证通过] internal/service/mock_repos_test.go
