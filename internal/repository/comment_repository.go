package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientcare/support-portal/internal/domain"
)

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error)
	MarkManagerCommentsRead(ctx context.Context, ticketID int64) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_type, author_name, text, read_by_client)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorType,
		comment.AuthorName,
		comment.Text,
		comment.ReadByClient,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_name, text, created_at, read_by_client
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorType,
			&comment.AuthorName,
			&comment.Text,
			&comment.CreatedAt,
			&comment.ReadByClient,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

// MarkManagerCommentsRead flips the read flag for every manager comment on
// the ticket. Called when the owning client opens the detail view.
func (r *commentRepository) MarkManagerCommentsRead(ctx context.Context, ticketID int64) error {
	const query = `
        UPDATE comments SET read_by_client=TRUE
        WHERE ticket_id=$1 AND author_type='manager' AND NOT read_by_client`
	_, err := r.pool.Exec(ctx, query, ticketID)
	return err
}
