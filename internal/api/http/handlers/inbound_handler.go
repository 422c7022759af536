package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/clientcare/support-portal/internal/service"
	apperrors "github.com/clientcare/support-portal/pkg/util"
)

// InboundHandler accepts CRM-originated events on the authenticated webhook.
type InboundHandler struct {
	service *service.InboundService
}

// NewInboundHandler constructs handler.
func NewInboundHandler(inboundService *service.InboundService) *InboundHandler {
	return &InboundHandler{service: inboundService}
}

// Handle POST /integrations/crm/inbound.
func (h *InboundHandler) Handle(c *fiber.Ctx) error {
	var event service.InboundEvent
	if err := c.BodyParser(&event); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Apply(c.UserContext(), event)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ok":        true,
		"ticket_id": result.TicketID,
		"action":    result.Action,
	})
}
