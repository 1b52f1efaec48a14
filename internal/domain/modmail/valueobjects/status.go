package valueobjects

import "fmt"

type TicketStatus string

const (
	StatusOpen   TicketStatus = "open"
	StatusClosed TicketStatus = "closed"
	// StatusFailed is terminal: thread creation failed and the ticket was
	// rolled back so the guard entry does not block future opens.
	StatusFailed TicketStatus = "failed"
)

var validTicketStatuses = map[TicketStatus]bool{
	StatusOpen:   true,
	StatusClosed: true,
	StatusFailed: true,
}

var ticketStatusTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen: {
		StatusClosed,
		StatusFailed,
	},
	StatusClosed: {
		StatusOpen,
	},
	StatusFailed: {},
}

func NewTicketStatus(s string) (TicketStatus, error) {
	status := TicketStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return status, nil
}

func (ts TicketStatus) String() string {
	return string(ts)
}

func (ts TicketStatus) IsValid() bool {
	return validTicketStatuses[ts]
}

func (ts TicketStatus) IsOpen() bool {
	return ts == StatusOpen
}

func (ts TicketStatus) IsClosed() bool {
	return ts == StatusClosed
}

func (ts TicketStatus) IsFailed() bool {
	return ts == StatusFailed
}

func (ts TicketStatus) CanTransitionTo(newStatus TicketStatus) bool {
	for _, allowed := range ticketStatusTransitions[ts] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}
