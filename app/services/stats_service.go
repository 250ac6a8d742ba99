package services

import (
	"context"

	"github.com/thriftline/thriftline/app/repositories"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalProducts int64   `json:"totalProducts"`
	TotalSold     int64   `json:"totalSold"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// StatsService aggregates marketplace counters for the admin dashboard.
type StatsService struct {
	users    *repositories.UserRepository
	products *repositories.ProductRepository
}

func NewStatsService(users *repositories.UserRepository, products *repositories.ProductRepository) *StatsService {
	return &StatsService{users: users, products: products}
}

// Summary computes the dashboard numbers. Revenue is the sum of prices of
// sold listings.
func (s *StatsService) Summary(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalProducts, err = s.products.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalSold, err = s.products.CountSold(ctx); err != nil {
		return nil, err
	}
	if stats.TotalRevenue, err = s.products.SumSoldRevenue(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
