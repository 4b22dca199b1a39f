// Package events captures the attestation audit trail: every workflow action
// with legal significance is emitted as a structured event. Events are
// transport-agnostic; sinks (in-memory store, Kafka) fan out behind the
// worker.
package events

import "time"

// Action identifies what happened.
type Action string

const (
	ActionDocumentSubmitted Action = "document_submitted"
	ActionRecordCommitted   Action = "record_committed"
	ActionAuditorAssigned   Action = "auditor_assigned"
	ActionAuditDisposed     Action = "audit_disposed"
	ActionPermitIssued      Action = "permit_issued"
	ActionDocumentVerified  Action = "document_verified"
)

// Event is one audit trail entry. Subject is the entity acted on (a
// submission id, a ledger index, a document fingerprint); Actor is the
// wallet or user that acted. Detail carries action-specific fields and must
// never contain raw document content.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Action    Action            `json:"action"`
	Subject   string            `json:"subject"`
	Actor     string            `json:"actor,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
