package dto

// BucketCountResponse is one grouped count row.
type BucketCountResponse struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// AnalyticsMetricsResponse carries averaged SLA numbers. Null means no
// ticket contributed a value.
type AnalyticsMetricsResponse struct {
	AvgFirstResponseMinutes *float64 `json:"avg_first_response_min"`
	AvgResolutionMinutes    *float64 `json:"avg_resolution_min"`
	AvgRating               *float64 `json:"avg_rating"`
}

// AnalyticsResponse is the aggregate report.
type AnalyticsResponse struct {
	TotalTickets int64                    `json:"total_tickets"`
	ByTag        []BucketCountResponse    `json:"by_tag"`
	ByDepartment []BucketCountResponse    `json:"by_department"`
	Metrics      AnalyticsMetricsResponse `json:"metrics"`
}
