package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/config"
	"github.com/clientcare/support-portal/internal/crm"
	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/events"
	"github.com/clientcare/support-portal/internal/observability"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

type ticketFixture struct {
	svc      *TicketService
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	gateway  *fakeGateway
	user     *domain.User
}

func newTicketFixture(t *testing.T, gateway *fakeGateway) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	comments := newFakeCommentRepo()
	dispatcher := events.NewInMemoryDispatcher()
	sync := NewSyncService(gateway, tickets, dispatcher, zap.NewNop(), observability.NewMetrics(), config.CRMConfig{PayloadLimitBytes: 2000})
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		CommentRepo: comments,
		Sync:        sync,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
	})
	return &ticketFixture{
		svc:      svc,
		tickets:  tickets,
		comments: comments,
		gateway:  gateway,
		user:     &domain.User{ID: 1, Phone: "+79990001122", FullName: "Partner +79990001122"},
	}
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		Title:       "VPN is down",
		Description: "cannot reach the office network",
		Criticality: "HIGH",
		Tag:         "network",
		Department:  "IT",
	}
}

func TestCreateTicketMirrorsLead(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{resp: crm.Response{"result": float64(555)}})

	ticket, synced, err := fx.svc.CreateTicket(context.Background(), fx.user, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !synced {
		t.Fatal("expected sync to succeed")
	}
	if ticket.Status != domain.TicketStatusNew {
		t.Fatalf("status = %q, want NEW", ticket.Status)
	}
	if ticket.SyncStatus != domain.SyncStatusSent {
		t.Fatalf("sync status = %q, want sent", ticket.SyncStatus)
	}
	if ticket.CRMEntityID == nil || *ticket.CRMEntityID != 555 {
		t.Fatalf("entity id = %v, want 555", ticket.CRMEntityID)
	}

	payload, ok := fx.gateway.calls[0].payload.(crm.LeadAddPayload)
	if !ok {
		t.Fatalf("payload type %T", fx.gateway.calls[0].payload)
	}
	if payload.Fields.SourceID != "WEB" {
		t.Fatalf("source id = %q", payload.Fields.SourceID)
	}
	if len(payload.Fields.Phone) != 1 || payload.Fields.Phone[0].Value != fx.user.Phone {
		t.Fatalf("phone field = %+v", payload.Fields.Phone)
	}
}

func TestCreateTicketSurvivesCRMOutage(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{err: errors.New("dial tcp: connection refused")})

	ticket, synced, err := fx.svc.CreateTicket(context.Background(), fx.user, validInput())
	if err != nil {
		t.Fatalf("create must not fail on a CRM outage: %v", err)
	}
	if synced {
		t.Fatal("expected sync to fail")
	}
	if ticket.ID == 0 {
		t.Fatal("ticket was not persisted")
	}
	if ticket.SyncStatus != domain.SyncStatusError {
		t.Fatalf("sync status = %q, want error", ticket.SyncStatus)
	}
	if ticket.CRMEntityID != nil {
		t.Fatalf("entity id = %v, want nil", ticket.CRMEntityID)
	}
}

func TestCreateTicketValidatesInput(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})

	cases := map[string]TicketCreateInput{
		"missing title": func() TicketCreateInput {
			in := validInput()
			in.Title = "  "
			return in
		}(),
		"missing tag": func() TicketCreateInput {
			in := validInput()
			in.Tag = ""
			return in
		}(),
		"unknown criticality": func() TicketCreateInput {
			in := validInput()
			in.Criticality = "URGENT-ISH"
			return in
		}(),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := fx.svc.CreateTicket(context.Background(), fx.user, input)
			var domainErr *apperrors.DomainError
			if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
				t.Fatalf("err = %v, want VALIDATION_FAILED", err)
			}
			if len(fx.gateway.calls) != 0 {
				t.Fatal("gateway must not be called for invalid input")
			}
		})
	}
}

func TestAddClientCommentOnUnlinkedTicket(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{resp: crm.Response{"result": float64(1)}})
	ticket := seedTicket(t, fx.tickets, nil)

	comment, synced, err := fx.svc.AddClientComment(context.Background(), fx.user, ticket.ID, "any progress?")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if synced {
		t.Fatal("expected sync to fail for an unlinked ticket")
	}
	if comment.ID == 0 {
		t.Fatal("comment was not persisted")
	}
	if !comment.ReadByClient {
		t.Fatal("client's own comment must start read")
	}

	stored, _ := fx.tickets.GetByID(context.Background(), ticket.ID)
	if stored.SyncStatus != domain.SyncStatusError {
		t.Fatalf("sync status = %q, want error", stored.SyncStatus)
	}
}

func TestRateTicketBounds(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)

	for _, rating := range []int{0, 6, -1} {
		if err := fx.svc.RateTicket(context.Background(), fx.user.ID, ticket.ID, rating); err == nil {
			t.Fatalf("rating %d accepted", rating)
		}
	}
	if err := fx.svc.RateTicket(context.Background(), fx.user.ID, ticket.ID, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	stored, _ := fx.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Rating == nil || *stored.Rating != 4 {
		t.Fatalf("rating = %v, want 4", stored.Rating)
	}
}

func TestManagerCommentStampsFirstResponseOnce(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)

	if _, err := fx.svc.AddManagerComment(context.Background(), ticket.ID, "", "looking into it"); err != nil {
		t.Fatalf("first comment: %v", err)
	}
	stored, _ := fx.tickets.GetByID(context.Background(), ticket.ID)
	if stored.FirstResponseAt == nil {
		t.Fatal("first_response_at not set")
	}
	first := *stored.FirstResponseAt

	time.Sleep(5 * time.Millisecond)
	if _, err := fx.svc.AddManagerComment(context.Background(), ticket.ID, "Alice", "fixed now"); err != nil {
		t.Fatalf("second comment: %v", err)
	}
	stored, _ = fx.tickets.GetByID(context.Background(), ticket.ID)
	if !stored.FirstResponseAt.Equal(first) {
		t.Fatalf("first_response_at moved from %v to %v", first, *stored.FirstResponseAt)
	}
}

func TestManagerCommentDefaultsAuthorAndStaysUnread(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)

	comment, err := fx.svc.AddManagerComment(context.Background(), ticket.ID, "  ", "we are on it")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.AuthorName != "Manager" {
		t.Fatalf("author = %q, want Manager", comment.AuthorName)
	}
	if comment.ReadByClient {
		t.Fatal("manager comment must start unread")
	}
	if len(fx.gateway.calls) != 0 {
		t.Fatal("manager comments are not mirrored to the CRM")
	}
}

func TestUpdateStatusTerminalStampsResolvedAt(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{resp: crm.Response{"result": true}})
	entityID := int64(555)
	ticket := seedTicket(t, fx.tickets, func(tk *domain.Ticket) {
		tk.CRMEntityID = &entityID
	})

	updated, synced, err := fx.svc.UpdateStatusAsManager(context.Background(), ticket.ID, "RESOLVED")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !synced {
		t.Fatal("expected status sync to succeed")
	}
	if updated.Status != domain.TicketStatusResolved {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped")
	}
	resolved := *updated.ResolvedAt

	// Reopening keeps the original resolution timestamp.
	updated, _, err = fx.svc.UpdateStatusAsManager(context.Background(), ticket.ID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(resolved) {
		t.Fatalf("resolved_at = %v, want kept %v", updated.ResolvedAt, resolved)
	}
}

func TestUpdateStatusOnUnlinkedTicket(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)

	updated, synced, err := fx.svc.UpdateStatusAsManager(context.Background(), ticket.ID, "CLOSED")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if synced {
		t.Fatal("expected sync to fail for an unlinked ticket")
	}
	if updated.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %q, local update must still apply", updated.Status)
	}
	if updated.SyncStatus != domain.SyncStatusError {
		t.Fatalf("sync status = %q, want error", updated.SyncStatus)
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)

	_, _, err := fx.svc.UpdateStatusAsManager(context.Background(), ticket.ID, "DONE")
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "VALIDATION_FAILED" {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	stored, _ := fx.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusNew {
		t.Fatalf("status = %q, unknown value must not be stored", stored.Status)
	}
}

func TestGetTicketMarksManagerCommentsRead(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, nil)
	if _, err := fx.svc.AddManagerComment(context.Background(), ticket.ID, "Alice", "reply"); err != nil {
		t.Fatalf("manager comment: %v", err)
	}

	_, comments, err := fx.svc.GetTicketForUser(context.Background(), fx.user.ID, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}

	after, _ := fx.comments.ListByTicket(context.Background(), ticket.ID)
	if !after[0].ReadByClient {
		t.Fatal("opening the ticket must mark manager comments read")
	}
}

func TestGetTicketEnforcesOwnership(t *testing.T) {
	fx := newTicketFixture(t, &fakeGateway{})
	ticket := seedTicket(t, fx.tickets, func(tk *domain.Ticket) {
		tk.UserID = 42
	})

	_, _, err := fx.svc.GetTicketForUser(context.Background(), fx.user.ID, ticket.ID)
	if err == nil {
		t.Fatal("expected a lookup for someone else's ticket to fail")
	}
}
