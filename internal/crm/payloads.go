package crm

import (
	"fmt"
	"strings"

	"github.com/clientcare/support-portal/internal/domain"
)

// CRM method names on the webhook endpoint.
const (
	MethodLeadAdd            = "crm.lead.add"
	MethodTimelineCommentAdd = "crm.timeline.comment.add"
	MethodLeadUpdate         = "crm.lead.update"
)

// EntityTypeLead is the CRM record type tickets are mirrored into.
const EntityTypeLead = "LEAD"

// PhoneValue follows the CRM multi-value phone field shape.
type PhoneValue struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

// LeadFields is the field set for crm.lead.add.
type LeadFields struct {
	Title    string       `json:"TITLE"`
	Name     string       `json:"NAME"`
	Phone    []PhoneValue `json:"PHONE"`
	Comments string       `json:"COMMENTS"`
	SourceID string       `json:"SOURCE_ID"`
}

// LeadAddPayload wraps the lead fields.
type LeadAddPayload struct {
	Fields LeadFields `json:"fields"`
}

// NewLeadPayload builds the creation payload for a ticket. The title embeds
// the local ticket id so the lead can be traced back without the reverse link.
func NewLeadPayload(ticket *domain.Ticket, contactPhone string) LeadAddPayload {
	comments := strings.Join([]string{
		fmt.Sprintf("Local Ticket ID: %d", ticket.ID),
		"Phone: " + contactPhone,
		"Criticality: " + string(ticket.Criticality),
		"Tag: " + ticket.Tag,
		"Department: " + ticket.Department,
		"Description:\n" + ticket.Description,
	}, "\n")

	return LeadAddPayload{
		Fields: LeadFields{
			Title:    fmt.Sprintf("[Support #%d] %s", ticket.ID, ticket.Title),
			Name:     "Support request",
			Phone:    []PhoneValue{{Value: contactPhone, ValueType: "WORK"}},
			Comments: comments,
			SourceID: "WEB",
		},
	}
}

// TimelineCommentFields is the field set for crm.timeline.comment.add.
type TimelineCommentFields struct {
	EntityID   int64  `json:"ENTITY_ID"`
	EntityType string `json:"ENTITY_TYPE"`
	Comment    string `json:"COMMENT"`
}

// TimelineCommentPayload wraps the timeline comment fields.
type TimelineCommentPayload struct {
	Fields TimelineCommentFields `json:"fields"`
}

// NewTimelineCommentPayload builds a comment event tagged with the author.
func NewTimelineCommentPayload(entityID int64, entityType, author, text string) TimelineCommentPayload {
	if entityType == "" {
		entityType = EntityTypeLead
	}
	return TimelineCommentPayload{
		Fields: TimelineCommentFields{
			EntityID:   entityID,
			EntityType: strings.ToUpper(entityType),
			Comment:    fmt.Sprintf("[%s] %s", author, text),
		},
	}
}

// LeadUpdateFields is the field set for crm.lead.update.
type LeadUpdateFields struct {
	StatusDescription string `json:"STATUS_DESCRIPTION"`
}

// LeadUpdatePayload wraps an id plus the fields to update.
type LeadUpdatePayload struct {
	ID     int64            `json:"id"`
	Fields LeadUpdateFields `json:"fields"`
}

// NewStatusPayload builds a status-description update for a linked lead.
func NewStatusPayload(entityID int64, status domain.TicketStatus) LeadUpdatePayload {
	return LeadUpdatePayload{
		ID:     entityID,
		Fields: LeadUpdateFields{StatusDescription: string(status)},
	}
}
