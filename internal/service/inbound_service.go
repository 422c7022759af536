package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/events"
	"github.com/clientcare/support-portal/internal/repository"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// Inbound actions accepted from the CRM.
const (
	InboundActionComment = "comment"
	InboundActionStatus  = "status"
)

// InboundEvent is a CRM-originated mutation delivered to the webhook.
type InboundEvent struct {
	Action        string `json:"action"`
	LocalTicketID *int64 `json:"local_ticket_id"`
	CRMEntityID   *int64 `json:"bitrix_entity_id"`
	Text          string `json:"text"`
	Author        string `json:"author"`
	Status        string `json:"status"`
}

// InboundResult identifies the ticket an event was applied to.
type InboundResult struct {
	TicketID int64
	Action   string
}

// InboundService reconciles CRM-originated events into local state. It never
// calls the CRM gateway, which keeps the two systems from echoing each
// other's changes back and forth.
type InboundService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewInboundService constructs the service.
func NewInboundService(tickets repository.TicketRepository, comments repository.CommentRepository, dispatcher events.Dispatcher, logger *zap.Logger) *InboundService {
	return &InboundService{
		tickets:    tickets,
		comments:   comments,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Apply resolves the target ticket and applies the event. Re-delivery of a
// status event is idempotent; comment events are append-only, so duplicates
// insert duplicate rows (no dedup key is modeled on the CRM side).
func (s *InboundService) Apply(ctx context.Context, event InboundEvent) (*InboundResult, error) {
	action := strings.ToLower(strings.TrimSpace(event.Action))
	if action != InboundActionComment && action != InboundActionStatus {
		return nil, apperrors.NewValidationError("action must be comment or status", nil)
	}

	ticket, err := s.resolveTicket(ctx, event)
	if err != nil {
		return nil, err
	}

	switch action {
	case InboundActionComment:
		if err := s.applyComment(ctx, ticket, event); err != nil {
			return nil, err
		}
	case InboundActionStatus:
		if err := s.applyStatus(ctx, ticket, event); err != nil {
			return nil, err
		}
	}

	return &InboundResult{TicketID: ticket.ID, Action: action}, nil
}

// resolveTicket prefers the explicit local id, then the CRM entity id.
func (s *InboundService) resolveTicket(ctx context.Context, event InboundEvent) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	switch {
	case event.LocalTicketID != nil:
		ticket, err = s.tickets.GetByID(ctx, *event.LocalTicketID)
	case event.CRMEntityID != nil:
		ticket, err = s.tickets.GetByCRMEntityID(ctx, *event.CRMEntityID)
	default:
		return nil, apperrors.NewNotFound("ticket", map[string]any{
			"reason": "local_ticket_id or bitrix_entity_id required",
		})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *InboundService) applyComment(ctx context.Context, ticket *domain.Ticket, event InboundEvent) error {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return apperrors.NewValidationError("text is required for action=comment", nil)
	}
	author := strings.TrimSpace(event.Author)
	if author == "" {
		author = "CRM manager"
	}

	comment := &domain.Comment{
		TicketID:     ticket.ID,
		AuthorType:   domain.AuthorTypeManager,
		AuthorName:   author,
		Text:         text,
		ReadByClient: false,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return err
	}
	if err := s.tickets.SetFirstResponseIfUnset(ctx, ticket.ID, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.tickets.MarkSynced(ctx, ticket.ID); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
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
	return nil
}

func (s *InboundService) applyStatus(ctx context.Context, ticket *domain.Ticket, event InboundEvent) error {
	status, err := domain.ParseTicketStatus(strings.TrimSpace(event.Status))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{
			"allowed": domain.TicketStatuses(),
		})
	}

	var resolvedAt *time.Time
	if status.Terminal() {
		now := time.Now().UTC()
		resolvedAt = &now
	}
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, status, resolvedAt); err != nil {
		return err
	}
	if err := s.tickets.MarkSynced(ctx, ticket.ID); err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{Type: domain.AuthorTypeManager, Name: event.Author},
		Payload: events.StatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: status,
		},
	})
	return nil
}

func (s *InboundService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}
