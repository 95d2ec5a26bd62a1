package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so sinks
// can route money movements separately from routine activity.
type EventCategory string

const (
	// CategoryLedger covers events that moved or withheld funds.
	CategoryLedger EventCategory = "ledger"

	// CategoryEnforcement covers authority actions against a syndicate.
	CategoryEnforcement EventCategory = "enforcement"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventLaunderCleared  AuditEvent = "launder_cleared"
	EventTaxesPaid       AuditEvent = "taxes_paid"
	EventSyndicateBusted AuditEvent = "syndicate_busted"
	EventRoundNarrated   AuditEvent = "round_narrated"
	EventDecisionMade    AuditEvent = "decision_made"
	EventTurnFailed      AuditEvent = "turn_failed"
	EventDayCompleted    AuditEvent = "day_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventLaunderCleared:  CategoryLedger,
	EventTaxesPaid:       CategoryLedger,
	EventSyndicateBusted: CategoryEnforcement,
	EventRoundNarrated:   CategoryOperations,
	EventDecisionMade:    CategoryOperations,
	EventTurnFailed:      CategoryOperations,
	EventDayCompleted:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	// Agent is the service that emitted the event.
	Agent string `json:"agent"`
	// Subject is the syndicate or account the event is about.
	Subject   string `json:"subject,omitempty"`
	Day       int    `json:"day,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Lost      int64  `json:"lost,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Normalize fills the category and timestamp when the emitter left them out.
func (e *Event) Normalize(now time.Time) {
	if e.Category == "" {
		e.Category = AuditEvent(e.Action).Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
