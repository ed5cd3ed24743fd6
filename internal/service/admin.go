package service

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"context"
	"fmt"
)

// AdminRepository is the storage surface used by admin reporting.
type AdminRepository interface {
	CountLinks(ctx context.Context) (int64, error)
	SumClicks(ctx context.Context) (int64, error)
	CountClickLogs(ctx context.Context) (int64, error)
	StreamClickLogs(ctx context.Context, filter repository.ClickLogFilter, fn func(*domain.ClickLog) error) error
}

// AdminStats are system-wide totals.
type AdminStats struct {
	TotalLinks  int64 `json:"totalLinks"`
	TotalClicks int64 `json:"totalClicks"`
	TotalLogs   int64 `json:"totalLogs"`
}

type AdminService struct {
	repo AdminRepository
}

func NewAdminService(repo AdminRepository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	links, err := s.repo.CountLinks(ctx)
	if err != nil {
		return nil, err
	}
	clicks, err := s.repo.SumClicks(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.CountClickLogs(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{TotalLinks: links, TotalClicks: clicks, TotalLogs: logs}, nil
}

// ExportClickLogs streams click logs in the range, newest first.
func (s *AdminService) ExportClickLogs(ctx context.Context, filter repository.ClickLogFilter, fn func(*domain.ClickLog) error) error {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return invalid("from", "from must not be after to")
	}
	if err := s.repo.StreamClickLogs(ctx, filter, fn); err != nil {
		return fmt.Errorf("failed to export click logs: %w", err)
	}
	return nil
}
