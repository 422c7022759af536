package service

import (
	"context"

	"github.com/clientcare/support-portal/internal/repository"
)

// AnalyticsReport is the aggregate view over all tickets.
type AnalyticsReport struct {
	TotalTickets int64
	ByTag        []repository.BucketCount
	ByDepartment []repository.BucketCount
	Metrics      AnalyticsMetrics
}

// AnalyticsMetrics carries the averaged SLA numbers. A nil field means no
// ticket contributed a value; tickets with missing timestamps or ratings are
// excluded from the average, not counted as zero.
type AnalyticsMetrics struct {
	AvgFirstResponseMinutes *float64
	AvgResolutionMinutes    *float64
	AvgRating               *float64
}

// AnalyticsService assembles the aggregate report.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(analytics repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analytics: analytics}
}

// Report computes totals, grouped counts and averages.
func (s *AnalyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	total, err := s.analytics.TotalTickets(ctx)
	if err != nil {
		return nil, err
	}
	byTag, err := s.analytics.CountByTag(ctx)
	if err != nil {
		return nil, err
	}
	byDepartment, err := s.analytics.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	timings, err := s.analytics.Timings(ctx)
	if err != nil {
		return nil, err
	}

	return &AnalyticsReport{
		TotalTickets: total,
		ByTag:        byTag,
		ByDepartment: byDepartment,
		Metrics:      computeMetrics(timings),
	}, nil
}

func computeMetrics(timings []repository.TicketTiming) AnalyticsMetrics {
	var (
		firstResponseSum, resolutionSum, ratingSum float64
		firstResponseN, resolutionN, ratingN       int
	)
	for _, t := range timings {
		if t.FirstResponseAt != nil {
			firstResponseSum += t.FirstResponseAt.Sub(t.CreatedAt).Minutes()
			firstResponseN++
		}
		if t.ResolvedAt != nil {
			resolutionSum += t.ResolvedAt.Sub(t.CreatedAt).Minutes()
			resolutionN++
		}
		if t.Rating != nil {
			ratingSum += float64(*t.Rating)
			ratingN++
		}
	}

	metrics := AnalyticsMetrics{}
	if firstResponseN > 0 {
		avg := firstResponseSum / float64(firstResponseN)
		metrics.AvgFirstResponseMinutes = &avg
	}
	if resolutionN > 0 {
		avg := resolutionSum / float64(resolutionN)
		metrics.AvgResolutionMinutes = &avg
	}
	if ratingN > 0 {
		avg := ratingSum / float64(ratingN)
		metrics.AvgRating = &avg
	}
	return metrics
}
