package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/api/dto"
	"github.com/clientcare/support-portal/internal/auth"
	"github.com/clientcare/support-portal/internal/domain"
	"github.com/clientcare/support-portal/internal/service"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// TicketsHandler manages client ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, synced, err := h.service.CreateTicket(c.UserContext(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Criticality: req.Criticality,
		Tag:         req.Tag,
		Department:  req.Department,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":        ticketDetail(ticket, nil),
		"bitrix_sync": synced,
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := h.service.ListTickets(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id. Opening the detail marks manager comments read.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	ticket, comments, err := h.service.GetTicketForUser(c.UserContext(), principal.User.ID, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, synced, err := h.service.AddClientComment(c.UserContext(), principal.User, ticketID, req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":        commentResponse(comment),
		"bitrix_sync": synced,
	})
}

// RateTicket POST /tickets/:id/rating.
func (h *TicketsHandler) RateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.RateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.RateTicket(c.UserContext(), principal.User.ID, ticketID, req.Rating); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", nil)
	}
	return id, nil
}

func ticketSummary(item *domain.TicketWithUnread) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              item.ID,
		ExternalKey:     item.ExternalKey,
		Title:           item.Title,
		Criticality:     item.Criticality,
		Tag:             item.Tag,
		Department:      item.Department,
		Status:          item.Status,
		Rating:          item.Rating,
		SyncStatus:      item.SyncStatus,
		CreatedAt:       item.CreatedAt,
		UnreadComments:  item.UnreadManagerComments,
		FirstResponseAt: item.FirstResponseAt,
		ResolvedAt:      item.ResolvedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.Comment) dto.TicketDetailResponse {
	thread := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		thread = append(thread, commentResponse(&comments[i]))
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		ExternalKey:     ticket.ExternalKey,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Criticality:     ticket.Criticality,
		Tag:             ticket.Tag,
		Department:      ticket.Department,
		Status:          ticket.Status,
		Rating:          ticket.Rating,
		SyncStatus:      ticket.SyncStatus,
		CRMEntityType:   ticket.CRMEntityType,
		CRMEntityID:     ticket.CRMEntityID,
		CreatedAt:       ticket.CreatedAt,
		FirstResponseAt: ticket.FirstResponseAt,
		ResolvedAt:      ticket.ResolvedAt,
		Comments:        thread,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:           comment.ID,
		AuthorType:   comment.AuthorType,
		AuthorName:   comment.AuthorName,
		Text:         comment.Text,
		CreatedAt:    comment.CreatedAt,
		ReadByClient: comment.ReadByClient,
	}
}
