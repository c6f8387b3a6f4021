package service

import (
	"context"

	"boutique/internal/dto"
	"boutique/internal/repository"
)

type AuditService interface {
	List(ctx context.Context, filter repository.AuditFilter) (*dto.ListResponse[dto.AuditLogResponse], error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) (*dto.ListResponse[dto.AuditLogResponse], error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditLogResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toAuditResponse(&rows[i]))
	}
	return listResponse(out, total, filter.Page), nil
}
