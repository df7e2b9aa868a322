package domain

import (
	"encoding/json"
	"time"
)

// AuditAction names the kind of mutation recorded.
type AuditAction string

const (
	ActionCreate     AuditAction = "CREATE"
	ActionUpdate     AuditAction = "UPDATE"
	ActionDelete     AuditAction = "DELETE"
	ActionPost       AuditAction = "POST"
	ActionReverse    AuditAction = "REVERSE"
	ActionDeactivate AuditAction = "DEACTIVATE"
	ActionMove       AuditAction = "MOVE"
)

// EntityType names the kind of entity an audit entry is about.
type EntityType string

const (
	EntityTenant     EntityType = "TENANT"
	EntityCompany    EntityType = "COMPANY"
	EntityMembership EntityType = "MEMBERSHIP"
	EntityAccount    EntityType = "ACCOUNT"
	EntityJournal    EntityType = "JOURNAL"
	EntityFxRate     EntityType = "FX_RATE"
)

// AuditLogEntry is append-only; it is never updated or deleted.
type AuditLogEntry struct {
	EntryID    string          `json:"entryID"`
	TenantID   string          `json:"tenantID"`
	CompanyID  string          `json:"companyID,omitempty"`
	Actor      string          `json:"actor"`
	Action     AuditAction     `json:"action"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityID"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	RequestID  string          `json:"requestID,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// AuditChange is what a mutation reports back to the recorder. Skip marks a
// no-op that wrote nothing and must not be audited.
type AuditChange struct {
	EntityID  string
	TenantID  string // overrides the scope tenant, used when provisioning a new tenant
	CompanyID string // overrides the scope company
	// TenantLevel records the entry without a company, for entities such as
	// memberships that belong to the tenant as a whole.
	TenantLevel bool
	Before      any
	After       any
	Skip        bool
}
