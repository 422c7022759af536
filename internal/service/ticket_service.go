package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/events"
	"github.com/clientcare/support-portal/internal/repository"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// TicketService coordinates ticket workflows for both the client portal and
// the manager API. Local writes always happen first; CRM mirroring is a
// recorded side effect that never fails the operation.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	sync       *SyncService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Sync        *SyncService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Criticality string
	Tag         string
	Department  string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		sync:       deps.Sync,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateTicket stores a new ticket and mirrors it into the CRM best-effort.
// The returned bool reports whether the mirror succeeded; the ticket itself
// exists locally either way.
func (s *TicketService) CreateTicket(ctx context.Context, user *domain.User, input TicketCreateInput) (*domain.Ticket, bool, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	tag := strings.TrimSpace(input.Tag)
	if title == "" || description == "" || tag == "" || strings.TrimSpace(input.Criticality) == "" {
		return nil, false, apperrors.NewValidationError("title, description, criticality, tag required", nil)
	}
	criticality, err := domain.ParseCriticality(strings.TrimSpace(input.Criticality))
	if err != nil {
		return nil, false, apperrors.NewValidationError(err.Error(), nil)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		UserID:      user.ID,
		Title:       title,
		Description: description,
		Criticality: criticality,
		Tag:         tag,
		Department:  strings.TrimSpace(input.Department),
		Status:      domain.TicketStatusNew,
		SyncStatus:  domain.SyncStatusUnsynced,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.AuthorTypeClient, Name: user.Phone},
		Payload: events.TicketCreatedPayload{
			Title:       ticket.Title,
			Criticality: ticket.Criticality,
			Tag:         ticket.Tag,
			Department:  ticket.Department,
		},
	})

	synced := s.sync.SyncNewTicket(ctx, ticket, user.Phone)

	// Re-read so the caller sees the recorded sync outcome and entity link.
	fresh, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return ticket, synced, nil
	}
	return fresh, synced, nil
}

// ListTickets returns the client's dashboard list with unread counts.
func (s *TicketService) ListTickets(ctx context.Context, userID int64) ([]domain.TicketWithUnread, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// GetTicketForUser fetches a ticket with its thread, enforcing ownership.
// Opening the detail view marks manager comments as read.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID int64) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByIDForUser(ctx, ticketID, userID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.comments.MarkManagerCommentsRead(ctx, ticket.ID); err != nil {
		return nil, nil, err
	}
	return ticket, comments, nil
}

// AddClientComment appends a client comment and mirrors it to the CRM
// timeline. The comment row exists regardless of the sync outcome.
func (s *TicketService) AddClientComment(ctx context.Context, user *domain.User, ticketID int64, text string) (*domain.Comment, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, apperrors.NewValidationError("text is required", nil)
	}
	ticket, err := s.tickets.GetByIDForUser(ctx, ticketID, user.ID)
	if err != nil {
		return nil, false, err
	}

	comment := &domain.Comment{
		TicketID:     ticket.ID,
		AuthorType:   domain.AuthorTypeClient,
		AuthorName:   user.Phone,
		Text:         text,
		ReadByClient: true,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.AuthorTypeClient, Name: user.Phone},
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorType:  comment.AuthorType,
			AuthorName:  comment.AuthorName,
			TextPreview: textPreview(text, 120),
		},
	})

	synced := s.sync.SyncComment(ctx, ticket, text, user.Phone)
	return comment, synced, nil
}

// RateTicket stores a 1..5 rating on the client's own ticket.
func (s *TicketService) RateTicket(ctx context.Context, userID, ticketID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}
	if err := s.tickets.SetRating(ctx, ticketID, userID, rating); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRated,
		TicketID: ticketID,
		Actor:    events.Actor{Type: domain.AuthorTypeClient},
		Payload:  events.TicketRatedPayload{Rating: rating},
	})
	return nil
}

// AddManagerComment appends a manager reply via the manager API. The first
// manager response stamps first_response_at exactly once. Manager replies
// originate locally and are not mirrored back to the CRM.
func (s *TicketService) AddManagerComment(ctx context.Context, ticketID int64, author, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text is required", nil)
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = "Manager"
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:     ticket.ID,
		AuthorType:   domain.AuthorTypeManager,
		AuthorName:   author,
		Text:         text,
		ReadByClient: false,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.tickets.SetFirstResponseIfUnset(ctx, ticket.ID, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.AuthorTypeManager, Name: author},
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorType:  comment.AuthorType,
			AuthorName:  author,
			TextPreview: textPreview(text, 120),
		},
	})
	return comment, nil
}

// UpdateStatusAsManager applies a status change locally and mirrors it to
// the CRM. resolved_at is stamped on terminal statuses and survives later
// non-terminal transitions.
func (s *TicketService) UpdateStatusAsManager(ctx context.Context, ticketID int64, rawStatus string) (*domain.Ticket, bool, error) {
	status, err := domain.ParseTicketStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, false, apperrors.NewValidationError(err.Error(), map[string]any{
			"allowed": domain.TicketStatuses(),
		})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, false, err
	}

	var resolvedAt *time.Time
	if status.Terminal() {
		now := time.Now().UTC()
		resolvedAt = &now
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, resolvedAt); err != nil {
		return nil, false, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.AuthorTypeManager},
		Payload: events.StatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: status,
		},
	})

	synced := s.sync.SyncStatus(ctx, ticket, status)

	fresh, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		return ticket, synced, nil
	}
	return fresh, synced, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func textPreview(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
