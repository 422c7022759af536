package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew            TicketStatus = "NEW"
	TicketStatusInProgress     TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingClient TicketStatus = "AWAITING_CLIENT"
	TicketStatusResolved       TicketStatus = "RESOLVED"
	TicketStatusClosed         TicketStatus = "CLOSED"
)

// TicketStatuses lists every valid status, in lifecycle order.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusNew,
		TicketStatusInProgress,
		TicketStatusAwaitingClient,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// ParseTicketStatus validates a raw status string. Unknown values never
// reach storage.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	switch status {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusAwaitingClient,
		TicketStatusResolved, TicketStatusClosed:
		return status, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// Terminal reports whether the status closes out the ticket for SLA purposes.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Criticality enumerates client-reported urgency.
type Criticality string

const (
	CriticalityLow      Criticality = "LOW"
	CriticalityMedium   Criticality = "MEDIUM"
	CriticalityHigh     Criticality = "HIGH"
	CriticalityCritical Criticality = "CRITICAL"
)

// ParseCriticality validates a raw criticality string.
func ParseCriticality(raw string) (Criticality, error) {
	criticality := Criticality(raw)
	switch criticality {
	case CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical:
		return criticality, nil
	}
	return "", fmt.Errorf("unknown criticality %q", raw)
}

// SyncStatus records the outcome of the most recent CRM mirror attempt.
type SyncStatus string

const (
	SyncStatusUnsynced SyncStatus = "unsynced"
	SyncStatusSent     SyncStatus = "sent"
	SyncStatusError    SyncStatus = "error"
)

// Ticket is the aggregate for support requests. The local row is the source
// of truth; the bitrix_* fields mirror the best-effort CRM projection.
type Ticket struct {
	ID              int64
	ExternalKey     string
	UserID          int64
	Title           string
	Description     string
	Criticality     Criticality
	Tag             string
	Department      string
	Status          TicketStatus
	CreatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	Rating          *int
	SyncStatus      SyncStatus
	SyncPayload     string
	CRMEntityType   *string
	CRMEntityID     *int64
}

// Linked reports whether the ticket carries a CRM entity id and is therefore
// eligible for comment/status mirroring.
func (t *Ticket) Linked() bool {
	return t.CRMEntityID != nil
}

// TicketWithUnread annotates a ticket with the count of manager comments the
// owning client has not opened yet.
type TicketWithUnread struct {
	Ticket
	UnreadManagerComments int64
}
