package dto

import (
	"time"

	"github.com/clientcare/support-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Criticality string `json:"criticality"`
	Tag         string `json:"tag"`
	Department  string `json:"department"`
}

// RateTicketRequest payload.
type RateTicketRequest struct {
	Rating int `json:"rating"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// TicketSummary response for the dashboard list.
type TicketSummary struct {
	ID              int64               `json:"id"`
	ExternalKey     string              `json:"external_key"`
	Title           string              `json:"title"`
	Criticality     domain.Criticality  `json:"criticality"`
	Tag             string              `json:"tag"`
	Department      string              `json:"department"`
	Status          domain.TicketStatus `json:"status"`
	Rating          *int                `json:"rating,omitempty"`
	SyncStatus      domain.SyncStatus   `json:"bitrix_sync_status"`
	CreatedAt       time.Time           `json:"created_at"`
	UnreadComments  int64               `json:"unread_comments"`
	FirstResponseAt *time.Time          `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
}

// TicketDetailResponse provides full ticket info with the thread.
type TicketDetailResponse struct {
	ID              int64               `json:"id"`
	ExternalKey     string              `json:"external_key"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Criticality     domain.Criticality  `json:"criticality"`
	Tag             string              `json:"tag"`
	Department      string              `json:"department"`
	Status          domain.TicketStatus `json:"status"`
	Rating          *int                `json:"rating,omitempty"`
	SyncStatus      domain.SyncStatus   `json:"bitrix_sync_status"`
	CRMEntityType   *string             `json:"bitrix_entity_type,omitempty"`
	CRMEntityID     *int64              `json:"bitrix_entity_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	FirstResponseAt *time.Time          `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
	Comments        []CommentResponse   `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID           int64             `json:"id"`
	AuthorType   domain.AuthorType `json:"author_type"`
	AuthorName   string            `json:"author_name"`
	Text         string            `json:"text"`
	CreatedAt    time.Time         `json:"created_at"`
	ReadByClient bool              `json:"read_by_client"`
}
