package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BucketCount is one row of a grouped count.
type BucketCount struct {
	Label string
	Count int64
}

// TicketTiming carries the nullable timestamps and rating used for SLA
// averages. Averaging happens in the analytics service so that NULL handling
// is explicit and testable.
type TicketTiming struct {
	CreatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	Rating          *int
}

// AnalyticsRepository exposes the aggregate read model.
type AnalyticsRepository interface {
	TotalTickets(ctx context.Context) (int64, error)
	CountByTag(ctx context.Context) ([]BucketCount, error)
	CountByDepartment(ctx context.Context) ([]BucketCount, error)
	Timings(ctx context.Context) ([]TicketTiming, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) TotalTickets(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(1) FROM tickets`).Scan(&total)
	return total, err
}

func (r *analyticsRepository) CountByTag(ctx context.Context) ([]BucketCount, error) {
	const query = `SELECT tag, COUNT(1) FROM tickets GROUP BY tag ORDER BY COUNT(1) DESC`
	return r.grouped(ctx, query)
}

func (r *analyticsRepository) CountByDepartment(ctx context.Context) ([]BucketCount, error) {
	const query = `SELECT department, COUNT(1) FROM tickets GROUP BY department ORDER BY COUNT(1) DESC`
	return r.grouped(ctx, query)
}

func (r *analyticsRepository) Timings(ctx context.Context) ([]TicketTiming, error) {
	const query = `SELECT created_at, first_response_at, resolved_at, rating FROM tickets`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TicketTiming
	for rows.Next() {
		var timing TicketTiming
		if err := rows.Scan(
			&timing.CreatedAt,
			&timing.FirstResponseAt,
			&timing.ResolvedAt,
			&timing.Rating,
		); err != nil {
			return nil, err
		}
		result = append(result, timing)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) grouped(ctx context.Context, query string) ([]BucketCount, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BucketCount
	for rows.Next() {
		var bucket BucketCount
		if err := rows.Scan(&bucket.Label, &bucket.Count); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}
