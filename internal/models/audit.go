package models

// Audit actions recorded for whitelist changes.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// AuditChange captures the whitelisted values before or after a change.
type AuditChange struct {
	IP    string `json:"ip"`
	Label string `json:"label"`
}

// AuditEntry records who changed which whitelist entry and how.
type AuditEntry struct {
	ID         string       `json:"id"`
	Action     string       `json:"action"`
	EntryID    string       `json:"entryId"`
	Before     *AuditChange `json:"before,omitempty"`
	After      *AuditChange `json:"after,omitempty"`
	ActorID    string       `json:"actorId"`
	ActorEmail string       `json:"actorEmail"`
	RequestID  string       `json:"requestId"`
	CreatedAt  string       `json:"createdAt"`
}
