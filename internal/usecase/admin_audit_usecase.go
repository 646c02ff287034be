package usecase

import (
	"context"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 監査ログの閲覧（管理者用）。書き込みは各usecaseが行う。
type AdminAuditUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAdminAuditUsecase(auditRepo repo.AuditLogRepository) *AdminAuditUsecase {
	return &AdminAuditUsecase{auditRepo: auditRepo}
}

func (u *AdminAuditUsecase) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
