package domain

import "time"

// IdempotencyStatus tracks the lifecycle of a claimed key.
type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "PROCESSING"
	IdempotencyCompleted  IdempotencyStatus = "COMPLETED"
	IdempotencyFailed     IdempotencyStatus = "FAILED"
)

// IdempotencyRecord binds a caller key to one payload and, once complete, its result.
type IdempotencyRecord struct {
	TenantID    string            `json:"tenantID"`
	Key         string            `json:"key"`
	PayloadHash string            `json:"payloadHash"`
	Status      IdempotencyStatus `json:"status"`
	Token       string            `json:"token"` // identifies the current claim holder
	Response    []byte            `json:"response,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	ExpiresAt   time.Time         `json:"expiresAt"`
}

// BeginOutcome is the answer to a claim attempt.
type BeginOutcome string

const (
	BeginFresh     BeginOutcome = "FRESH"
	BeginInFlight  BeginOutcome = "IN_FLIGHT"
	BeginCompleted BeginOutcome = "COMPLETED"
	BeginConflict  BeginOutcome = "CONFLICT"
)

// IdempotencyClaim is what a caller asks the store to record when it begins.
type IdempotencyClaim struct {
	TenantID    string
	Key         string
	PayloadHash string
	Token       string
	Now         time.Time
	ExpiresAt   time.Time
}

// BeginResult carries the outcome and, for Fresh, the token needed to
// complete or fail the claim; for Completed, the cached response.
type BeginResult struct {
	Outcome  BeginOutcome
	Token    string
	Response []byte
}

// DecideBegin is the claim state machine shared by every idempotency store.
// existing is the stored record for the key, or nil. When the outcome is
// Fresh the store must persist ClaimRecord(claim) in the same atomic step.
func DecideBegin(existing *IdempotencyRecord, claim IdempotencyClaim) BeginResult {
	if existing == nil || !existing.ExpiresAt.After(claim.Now) {
		return BeginResult{Outcome: BeginFresh, Token: claim.Token}
	}
	if existing.PayloadHash != claim.PayloadHash {
		return BeginResult{Outcome: BeginConflict}
	}
	switch existing.Status {
	case IdempotencyCompleted:
		return BeginResult{Outcome: BeginCompleted, Response: existing.Response}
	case IdempotencyFailed:
		return BeginResult{Outcome: BeginFresh, Token: claim.Token}
	default:
		return BeginResult{Outcome: BeginInFlight}
	}
}

// ClaimRecord is the record written for a Fresh claim.
func ClaimRecord(claim IdempotencyClaim) IdempotencyRecord {
	return IdempotencyRecord{
		TenantID:    claim.TenantID,
		Key:         claim.Key,
		PayloadHash: claim.PayloadHash,
		Status:      IdempotencyProcessing,
		Token:       claim.Token,
		CreatedAt:   claim.Now,
		ExpiresAt:   claim.ExpiresAt,
	}
}
