package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
)

// EventType names a change to the expense table.
type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

// ExpenseEvent is a lightweight change notification. Consumers reload
// whatever they need from the store; the event carries only the id and
// the record's date so month-scoped consumers can filter.
type ExpenseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	ExpenseID int64     `json:"expense_id"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(t EventType, expenseID int64, date core.Date) ExpenseEvent {
	return ExpenseEvent{
		ID:        uuid.New(),
		Type:      t,
		ExpenseID: expenseID,
		Date:      date.String(),
		Timestamp: time.Now().UTC(),
	}
}

func (e ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and validates an event body.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ExpenseEvent{}, err
	}
	if !ev.Type.Valid() {
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ExpenseID <= 0 {
		return ExpenseEvent{}, fmt.Errorf("invalid expense id %d", ev.ExpenseID)
	}
	return ev, nil
}
