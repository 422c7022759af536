package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/api/dto"
	"github.com/clientcare/support-portal/internal/service"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// ManagerHandler serves the shared-key manager API.
type ManagerHandler struct {
	service *service.TicketService
}

// NewManagerHandler constructs handler.
func NewManagerHandler(ticketService *service.TicketService) *ManagerHandler {
	return &ManagerHandler{service: ticketService}
}

// AddComment POST /manager/tickets/:id/comment.
func (h *ManagerHandler) AddComment(c *fiber.Ctx) error {
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.ManagerCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddManagerComment(c.UserContext(), ticketID, req.Author, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ok":         true,
		"ticket_id":  ticketID,
		"comment_id": comment.ID,
	})
}

// UpdateStatus POST /manager/tickets/:id/status. The status change always
// lands locally; bitrix_sync reports whether the CRM mirror succeeded.
func (h *ManagerHandler) UpdateStatus(c *fiber.Ctx) error {
	ticketID, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.ManagerStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, synced, err := h.service.UpdateStatusAsManager(c.UserContext(), ticketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ok":          true,
		"ticket_id":   ticket.ID,
		"status":      ticket.Status,
		"bitrix_sync": synced,
	})
}
