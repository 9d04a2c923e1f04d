package model

import "fmt"

type OrderStatus string

const (
	OrderStatusUnpaid     OrderStatus = "Unpaid"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusFailed     OrderStatus = "Failed"
)

var validStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusUnpaid:     {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusFailed},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
	OrderStatusFailed:     {},
}

func (s OrderStatus) Valid() bool {
	_, ok := validStatusTransitions[s]
	return ok
}

// NextStatuses lists the statuses an order in s may move to.
func NextStatuses(s OrderStatus) []OrderStatus {
	next := validStatusTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to OrderStatus) bool {
	for _, s := range validStatusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionError is returned when a status change is not in the transition table.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) StatusCode() int {
	return 400
}

// CheckStatusChange guards writes to an already stored order. Leaving the
// status untouched is always allowed; anything else must follow the table.
func CheckStatusChange(stored, next OrderStatus) error {
	if stored == next {
		return nil
	}
	if !CanTransition(stored, next) {
		return &TransitionError{From: stored, To: next}
	}
	return nil
}
