package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/crm"
	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/events"
	"github.com/clientcare/support-portal/internal/observability"
	"github.com/clientcare/support-portal/internal/repository"
)

// SyncService mirrors local ticket mutations into the external CRM. Every
// call is best-effort: the local write has already happened and is never
// rolled back; the outcome is recorded on the ticket row.
type SyncService struct {
	gateway      crm.Gateway
	tickets      repository.TicketRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	metrics      *observability.Metrics
	payloadLimit int
}

// NewSyncService constructs the service.
func NewSyncService(gateway crm.Gateway, tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.CRMConfig) *SyncService {
	limit := cfg.PayloadLimitBytes
	if limit <= 0 {
		limit = 2000
	}
	return &SyncService{
		gateway:      gateway,
		tickets:      tickets,
		dispatcher:   dispatcher,
		logger:       logger,
		metrics:      metrics,
		payloadLimit: limit,
	}
}

// SyncNewTicket projects a freshly created ticket as a CRM lead. On success
// the returned entity id/type are persisted; the id is set at most once.
func (s *SyncService) SyncNewTicket(ctx context.Context, ticket *domain.Ticket, contactPhone string) bool {
	resp, err := s.gateway.Call(ctx, crm.MethodLeadAdd, crm.NewLeadPayload(ticket, contactPhone))
	if err != nil {
		s.recordFailure(ctx, ticket.ID, crm.MethodLeadAdd, err)
		return false
	}

	entityID, ok := crm.EntityID(resp)
	if !ok {
		s.recordFailure(ctx, ticket.ID, crm.MethodLeadAdd, errors.New("creation response carries no result id"))
		return false
	}

	if err := s.tickets.LinkCRMEntity(ctx, ticket.ID, crm.EntityTypeLead, entityID, s.truncate(resp)); err != nil {
		s.logger.Error("persist crm link", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return false
	}
	return true
}

// SyncComment posts a timeline comment on the linked CRM entity. Unlinked
// tickets fail the sync; the comment itself is already stored locally.
func (s *SyncService) SyncComment(ctx context.Context, ticket *domain.Ticket, text, author string) bool {
	if !ticket.Linked() {
		s.recordFailure(ctx, ticket.ID, crm.MethodTimelineCommentAdd, errors.New("ticket is not linked to a crm entity"))
		return false
	}

	entityType := crm.EntityTypeLead
	if ticket.CRMEntityType != nil {
		entityType = *ticket.CRMEntityType
	}
	payload := crm.NewTimelineCommentPayload(*ticket.CRMEntityID, entityType, author, text)

	resp, err := s.gateway.Call(ctx, crm.MethodTimelineCommentAdd, payload)
	if err != nil {
		s.recordFailure(ctx, ticket.ID, crm.MethodTimelineCommentAdd, err)
		return false
	}
	return s.recordSuccess(ctx, ticket.ID, resp)
}

// SyncStatus posts a status-description update on the linked CRM entity.
func (s *SyncService) SyncStatus(ctx context.Context, ticket *domain.Ticket, status domain.TicketStatus) bool {
	if !ticket.Linked() {
		s.recordFailure(ctx, ticket.ID, crm.MethodLeadUpdate, errors.New("ticket is not linked to a crm entity"))
		return false
	}

	resp, err := s.gateway.Call(ctx, crm.MethodLeadUpdate, crm.NewStatusPayload(*ticket.CRMEntityID, status))
	if err != nil {
		s.recordFailure(ctx, ticket.ID, crm.MethodLeadUpdate, err)
		return false
	}
	return s.recordSuccess(ctx, ticket.ID, resp)
}

func (s *SyncService) recordSuccess(ctx context.Context, ticketID int64, resp crm.Response) bool {
	if err := s.tickets.RecordSyncResult(ctx, ticketID, domain.SyncStatusSent, s.truncate(resp)); err != nil {
		s.logger.Error("persist sync result", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return false
	}
	return true
}

func (s *SyncService) recordFailure(ctx context.Context, ticketID int64, method string, cause error) {
	detail := cause.Error()
	var remote *crm.RemoteError
	if errors.As(cause, &remote) {
		detail = s.truncate(remote.Payload)
	}
	if len(detail) > s.payloadLimit {
		detail = detail[:s.payloadLimit]
	}

	s.logger.Warn("crm sync failed",
		zap.Int64("ticket_id", ticketID),
		zap.String("method", method),
		zap.Error(cause))
	s.metrics.RecordSyncFailure()

	if err := s.tickets.RecordSyncResult(ctx, ticketID, domain.SyncStatusError, detail); err != nil {
		s.logger.Error("persist sync failure", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSyncFailed,
			TicketID:  ticketID,
			Timestamp: time.Now(),
			Payload:   events.SyncFailedPayload{Method: method, Detail: detail},
		})
	}
}

// truncate renders a response as JSON bounded to the configured audit size.
func (s *SyncService) truncate(resp crm.Response) string {
	raw, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	if len(raw) > s.payloadLimit {
		return string(raw[:s.payloadLimit])
	}
	return string(raw)
}
