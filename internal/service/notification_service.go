package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/events"
)

// NotificationService surfaces domain events to operators. Delivery beyond
// structured logs is a stub; the webhook target comes from config.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleEvent)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventSyncFailed, n.handleSyncFailed)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

// Sync failures are operator-facing: the client request already succeeded,
// so the log line is the only place the failure shows up outside the ticket.
func (n *NotificationService) handleSyncFailed(ctx context.Context, event events.Event) error {
	n.logger.Warn(string(event.Type),
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
