package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientcare/support-portal/internal/domain"
)

const ticketColumns = `id, external_key, user_id, title, description, criticality, tag, department,
               status, created_at, first_response_at, resolved_at, rating,
               bitrix_sync_status, bitrix_payload, bitrix_entity_type, bitrix_entity_id`

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Ticket, error)
	GetByCRMEntityID(ctx context.Context, entityID int64) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.TicketWithUnread, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus, resolvedAt *time.Time) error
	SetRating(ctx context.Context, id, userID int64, rating int) error
	SetFirstResponseIfUnset(ctx context.Context, id int64, at time.Time) error
	RecordSyncResult(ctx context.Context, id int64, status domain.SyncStatus, payload string) error
	MarkSynced(ctx context.Context, id int64) error
	LinkCRMEntity(ctx context.Context, id int64, entityType string, entityID int64, payload string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, user_id, title, description, criticality, tag, department, status, bitrix_sync_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.UserID,
		ticket.Title,
		ticket.Description,
		ticket.Criticality,
		ticket.Tag,
		ticket.Department,
		ticket.Status,
		ticket.SyncStatus,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 AND user_id=$2`
	return r.fetchSingle(ctx, query, id, userID)
}

func (r *ticketRepository) GetByCRMEntityID(ctx context.Context, entityID int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE bitrix_entity_id=$1`
	return r.fetchSingle(ctx, query, entityID)
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID int64) ([]domain.TicketWithUnread, error) {
	query := `
        SELECT ` + ticketColumns + `,
               (SELECT COUNT(1) FROM comments c
                WHERE c.ticket_id = t.id AND c.author_type = 'manager' AND NOT c.read_by_client) AS unread_count
        FROM tickets t
        WHERE t.user_id = $1
        ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketWithUnread
	for rows.Next() {
		var item domain.TicketWithUnread
		if err := scanTicket(rows, &item.Ticket, &item.UnreadManagerComments); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// UpdateStatus applies the new status. resolvedAt is non-nil only when the
// status is terminal; COALESCE keeps an earlier resolution timestamp from
// ever reverting to NULL.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus, resolvedAt *time.Time) error {
	const query = `
        UPDATE tickets SET status=$2, resolved_at=COALESCE($3, resolved_at)
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, status, resolvedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) SetRating(ctx context.Context, id, userID int64, rating int) error {
	const query = `UPDATE tickets SET rating=$3 WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, userID, rating)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetFirstResponseIfUnset stamps the first manager response exactly once;
// re-delivery of later responses leaves the original timestamp intact.
func (r *ticketRepository) SetFirstResponseIfUnset(ctx context.Context, id int64, at time.Time) error {
	const query = `
        UPDATE tickets SET first_response_at=COALESCE(first_response_at, $2)
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) RecordSyncResult(ctx context.Context, id int64, status domain.SyncStatus, payload string) error {
	const query = `
        UPDATE tickets SET bitrix_sync_status=$2, bitrix_payload=$3
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, status, payload)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkSynced acknowledges receipt of a CRM-originated event without touching
// the stored payload.
func (r *ticketRepository) MarkSynced(ctx context.Context, id int64) error {
	const query = `UPDATE tickets SET bitrix_sync_status='sent' WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// LinkCRMEntity records the mirrored entity after a successful creation sync.
// The entity id is set at most once; later syncs reuse it.
func (r *ticketRepository) LinkCRMEntity(ctx context.Context, id int64, entityType string, entityID int64, payload string) error {
	const query = `
        UPDATE tickets
        SET bitrix_sync_status='sent', bitrix_payload=$2,
            bitrix_entity_type=COALESCE(bitrix_entity_type, $3),
            bitrix_entity_id=COALESCE(bitrix_entity_id, $4)
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id, payload, entityType, entityID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, args...), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner, ticket *domain.Ticket, extra ...any) error {
	dest := []any{
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.UserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Criticality,
		&ticket.Tag,
		&ticket.Department,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.Rating,
		&ticket.SyncStatus,
		&ticket.SyncPayload,
		&ticket.CRMEntityType,
		&ticket.CRMEntityID,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}
