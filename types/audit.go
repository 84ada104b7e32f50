package types

import "time"

// Audit outcomes. UNAUTHORIZED and FORBIDDEN distinguish a missing session
// from a wrong-role session; INVALID covers precondition failures.
const (
	AuditOutcomeSuccess      = "SUCCESS"
	AuditOutcomeUnauthorized = "UNAUTHORIZED"
	AuditOutcomeForbidden    = "FORBIDDEN"
	AuditOutcomeInvalid      = "INVALID"
	AuditOutcomeNotFound     = "NOT_FOUND"
	AuditOutcomeError        = "ERROR"
)

// AuditEntry is one row of the append-only audit log recording a privileged
// action or its rejection. It is distinct from general application logging
// and is used for accountability review.
type AuditEntry struct {
	// ID is the unique identifier of the row.
	ID int `json:"id" db:"id"`

	// EventID is a globally unique identifier for the event, shared with
	// the published broker message.
	EventID string `json:"event_id" db:"event_id"`

	// ActorID is the acting user's ID, nil when the caller was anonymous.
	ActorID *int `json:"actor_id,omitempty" db:"actor_id"`

	// Action names the attempted operation (e.g. "menu.publish").
	Action string `json:"action" db:"action"`

	// Resource names the resource kind acted on (e.g. "menu").
	Resource string `json:"resource" db:"resource"`

	// ResourceID identifies the specific resource, empty when not applicable.
	ResourceID string `json:"resource_id,omitempty" db:"resource_id"`

	// Outcome is one of the audit outcome constants.
	Outcome string `json:"outcome" db:"outcome"`

	// Detail carries the resulting state or rejection reason.
	Detail string `json:"detail,omitempty" db:"detail"`

	// CreatedAt is the timestamp the entry was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
