package services

import (
	"context"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

const summaryMonths = 12

type ReportsService struct {
	Store repositories.Store
	Clock Clock
}

// AdminSummary aggregates revenue from completed bookings, the booking mix and
// the dashboard headcounts.
func (s ReportsService) AdminSummary(ctx context.Context, p domain.Principal) (models.AdminSummary, error) {
	if err := requireAdmin(p); err != nil {
		return models.AdminSummary{}, err
	}
	reports := s.Store.Reports()
	revenue, err := reports.Revenue(ctx)
	if err != nil {
		return models.AdminSummary{}, err
	}
	counts, err := reports.BookingCountsByStatus(ctx)
	if err != nil {
		return models.AdminSummary{}, err
	}
	monthly, err := reports.MonthlyRevenue(ctx, summaryMonths)
	if err != nil {
		return models.AdminSummary{}, err
	}
	dash, err := reports.DashboardCounts(ctx, utils.DateOnly(s.Clock.now()))
	if err != nil {
		return models.AdminSummary{}, err
	}

	out := models.AdminSummary{DashboardCounts: dash, Revenue: revenue, BookingsByStatus: counts, MonthlyRevenue: monthly}
	for _, c := range counts {
		if c.Status == models.BookingPending {
			out.PendingBookings = c.Count
		}
	}
	return out, nil
}

func (s ReportsService) DriverEarnings(ctx context.Context, p domain.Principal) (models.DriverEarnings, error) {
	driverID, err := requireDriver(p)
	if err != nil {
		return models.DriverEarnings{}, err
	}
	return s.Store.Reports().DriverEarnings(ctx, driverID)
}
