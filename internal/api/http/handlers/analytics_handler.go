package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/api/dto"
	"github.com/clientcare/support-portal/internal/repository"
	"github.com/clientcare/support-portal/internal/service"
)

// AnalyticsHandler serves the aggregate report. The endpoint is
// unauthenticated and exposes aggregates only.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// Report GET /analytics.
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	report, err := h.service.Report(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.AnalyticsResponse{
		TotalTickets: report.TotalTickets,
		ByTag:        bucketResponses(report.ByTag),
		ByDepartment: bucketResponses(report.ByDepartment),
		Metrics: dto.AnalyticsMetricsResponse{
			AvgFirstResponseMinutes: report.Metrics.AvgFirstResponseMinutes,
			AvgResolutionMinutes:    report.Metrics.AvgResolutionMinutes,
			AvgRating:               report.Metrics.AvgRating,
		},
	}})
}

func bucketResponses(buckets []repository.BucketCount) []dto.BucketCountResponse {
	resp := make([]dto.BucketCountResponse, 0, len(buckets))
	for _, bucket := range buckets {
		resp = append(resp, dto.BucketCountResponse{Label: bucket.Label, Count: bucket.Count})
	}
	return resp
}
