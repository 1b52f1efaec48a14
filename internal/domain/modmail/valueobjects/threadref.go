package valueobjects

import "fmt"

// ThreadState tags the lifecycle of a ticket's staff thread reference.
type ThreadState string

const (
	// ThreadPending means creation is in flight. A second concurrent open
	// must treat this as "someone else is already creating the thread".
	ThreadPending ThreadState = "pending"
	// ThreadActive carries the real platform thread reference.
	ThreadActive ThreadState = "active"
	// ThreadFailed means creation failed and the ticket is orphaned.
	ThreadFailed ThreadState = "failed"
)

func (s ThreadState) String() string {
	return string(s)
}

// ThreadRef is a tagged thread reference: Pending | Active(ref) | Failed.
// The zero value is not valid; construct via the factory functions.
type ThreadRef struct {
	state ThreadState
	id    string
}

func PendingThreadRef() ThreadRef {
	return ThreadRef{state: ThreadPending}
}

func FailedThreadRef() ThreadRef {
	return ThreadRef{state: ThreadFailed}
}

func ActiveThreadRef(id string) (ThreadRef, error) {
	if id == "" {
		return ThreadRef{}, fmt.Errorf("thread reference ID cannot be empty")
	}
	return ThreadRef{state: ThreadActive, id: id}, nil
}

// ReconstructThreadRef rebuilds a ThreadRef from persisted columns.
func ReconstructThreadRef(state string, id string) (ThreadRef, error) {
	switch ThreadState(state) {
	case ThreadPending:
		return PendingThreadRef(), nil
	case ThreadFailed:
		return FailedThreadRef(), nil
	case ThreadActive:
		return ActiveThreadRef(id)
	default:
		return ThreadRef{}, fmt.Errorf("invalid thread state: %s", state)
	}
}

func (r ThreadRef) State() ThreadState {
	return r.state
}

// ID returns the platform thread reference. The second return is false
// unless the ref is in the active state.
func (r ThreadRef) ID() (string, bool) {
	if r.state != ThreadActive {
		return "", false
	}
	return r.id, true
}

func (r ThreadRef) IsPending() bool {
	return r.state == ThreadPending
}

func (r ThreadRef) IsActive() bool {
	return r.state == ThreadActive
}

func (r ThreadRef) IsFailed() bool {
	return r.state == ThreadFailed
}

func (r ThreadRef) String() string {
	if r.state == ThreadActive {
		return r.id
	}
	return string(r.state)
}
