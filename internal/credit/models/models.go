package models

import (
	"time"

	scoremodels "creditnet/internal/score/models"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
)

// EventType tags an audited credit occurrence. The set is closed: unknown
// types are rejected at the boundary rather than matched by string.
type EventType string

const (
	EventLoanRepaid      EventType = "loan_repaid"
	EventLoanDefaulted   EventType = "loan_defaulted"
	EventCollateralAdded EventType = "collateral_added"
	EventLiquidation     EventType = "liquidation"
	EventPaymentOnTime   EventType = "payment_on_time"
	EventPaymentMissed   EventType = "payment_missed"
	EventBureauDispute   EventType = "bureau_dispute"
)

// eventCategories maps each event type to the score component it adjusts.
var eventCategories = map[EventType]scoremodels.Category{
	EventLoanRepaid:      scoremodels.CategoryOnChain,
	EventLoanDefaulted:   scoremodels.CategoryOnChain,
	EventCollateralAdded: scoremodels.CategoryOnChain,
	EventLiquidation:     scoremodels.CategoryOnChain,
	EventPaymentOnTime:   scoremodels.CategoryOffChain,
	EventPaymentMissed:   scoremodels.CategoryOffChain,
	EventBureauDispute:   scoremodels.CategoryOffChain,
}

// CategoryFor resolves the score component adjusted by an event type.
func CategoryFor(eventType EventType) (scoremodels.Category, bool) {
	category, ok := eventCategories[eventType]
	return category, ok
}

// A single event may move a component by at most this much in either
// direction; larger swings arrive as multiple audited events.
const MaxScoreChange = 500

// CreditEvent is an append-only audit record. Never mutated after creation;
// each event triggers exactly one reward-propagation pass.
type CreditEvent struct {
	ID          id.EventID    `json:"id"`
	IdentityID  id.IdentityID `json:"identity_id"`
	EventType   EventType     `json:"event_type"`
	ScoreChange int           `json:"score_change"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewCreditEvent validates inputs and builds the audit record.
func NewCreditEvent(eventID id.EventID, identityID id.IdentityID, eventType EventType, scoreChange int, description string, now time.Time) (*CreditEvent, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	if _, ok := CategoryFor(eventType); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown event type")
	}
	if scoreChange == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "score change must be non-zero")
	}
	if scoreChange > MaxScoreChange || scoreChange < -MaxScoreChange {
		return nil, dErrors.New(dErrors.CodeValidation, "score change exceeds the per-event bound")
	}
	return &CreditEvent{
		ID:          eventID,
		IdentityID:  identityID,
		EventType:   eventType,
		ScoreChange: scoreChange,
		Description: description,
		CreatedAt:   now,
	}, nil
}

// Category returns the score component this event adjusts.
func (e *CreditEvent) Category() scoremodels.Category {
	category, _ := CategoryFor(e.EventType)
	return category
}
