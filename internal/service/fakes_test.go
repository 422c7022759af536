package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clientcare/support-portal/internal/crm"
	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository with the same COALESCE
// semantics as the SQL implementation.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int64
	tickets map[int64]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[int64]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = r.seq
	ticket.CreatedAt = time.Now().UTC()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Ticket, error) {
	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return ticket, nil
}

func (r *fakeTicketRepo) GetByCRMEntityID(_ context.Context, entityID int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.CRMEntityID != nil && *ticket.CRMEntityID == entityID {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListByUser(_ context.Context, userID int64) ([]domain.TicketWithUnread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketWithUnread
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			result = append(result, domain.TicketWithUnread{Ticket: *ticket})
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id int64, status domain.TicketStatus, resolvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	if resolvedAt != nil {
		ticket.ResolvedAt = resolvedAt
	}
	return nil
}

func (r *fakeTicketRepo) SetRating(_ context.Context, id, userID int64, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.UserID != userID {
		return pgx.ErrNoRows
	}
	ticket.Rating = &rating
	return nil
}

func (r *fakeTicketRepo) SetFirstResponseIfUnset(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if ticket.FirstResponseAt == nil {
		ticket.FirstResponseAt = &at
	}
	return nil
}

func (r *fakeTicketRepo) RecordSyncResult(_ context.Context, id int64, status domain.SyncStatus, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.SyncStatus = status
	ticket.SyncPayload = payload
	return nil
}

func (r *fakeTicketRepo) MarkSynced(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.SyncStatus = domain.SyncStatusSent
	return nil
}

func (r *fakeTicketRepo) LinkCRMEntity(_ context.Context, id int64, entityType string, entityID int64, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.SyncStatus = domain.SyncStatusSent
	ticket.SyncPayload = payload
	if ticket.CRMEntityType == nil {
		ticket.CRMEntityType = &entityType
	}
	if ticket.CRMEntityID == nil {
		ticket.CRMEntityID = &entityID
	}
	return nil
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int64
	comments []*domain.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = r.seq
	comment.CreatedAt = time.Now().UTC()
	clone := *comment
	r.comments = append(r.comments, &clone)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, *comment)
		}
	}
	return result, nil
}

func (r *fakeCommentRepo) MarkManagerCommentsRead(_ context.Context, ticketID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, comment := range r.comments {
		if comment.TicketID == ticketID && comment.AuthorType == domain.AuthorTypeManager {
			comment.ReadByClient = true
		}
	}
	return nil
}

// fakeGateway scripts CRM call outcomes.
type fakeGateway struct {
	resp  crm.Response
	err   error
	calls []fakeCall
}

type fakeCall struct {
	method  string
	payload any
}

func (g *fakeGateway) Call(_ context.Context, method string, payload any) (crm.Response, error) {
	g.calls = append(g.calls, fakeCall{method: method, payload: payload})
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

// fakeAnalyticsRepo serves canned aggregate rows.
type fakeAnalyticsRepo struct {
	total        int64
	byTag        []repository.BucketCount
	byDepartment []repository.BucketCount
	timings      []repository.TicketTiming
}

func (r *fakeAnalyticsRepo) TotalTickets(context.Context) (int64, error) {
	return r.total, nil
}

func (r *fakeAnalyticsRepo) CountByTag(context.Context) ([]repository.BucketCount, error) {
	return r.byTag, nil
}

func (r *fakeAnalyticsRepo) CountByDepartment(context.Context) ([]repository.BucketCount, error) {
	return r.byDepartment, nil
}

func (r *fakeAnalyticsRepo) Timings(context.Context) ([]repository.TicketTiming, error) {
	return r.timings, nil
}
