package widget

import (
	"sync"

	"github.com/google/uuid"
)

// State is where a single activation is in its lifecycle.
type State int

const (
	Idle State = iota
	// AwaitingResponse: the request is in flight.
	AwaitingResponse
	// Rendered: the output region shows the success or failure fragment.
	Rendered
	// Rejected: the input was empty and no request was made.
	Rejected
	// Discarded: a newer activation was dispatched before this one settled,
	// and the sequence guard dropped its result.
	Discarded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	case Rendered:
		return "rendered"
	case Rejected:
		return "rejected"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Invocation tracks one activation of the handler.
type Invocation struct {
	ID string
	// City is the raw field value read at activation.
	City string
	// Seq is the dispatch token; zero when no request was made.
	Seq uint64

	mu       sync.Mutex
	state    State
	err      error
	fragment string
	done     chan struct{}
}

func newInvocation(city string) *Invocation {
	return &Invocation{
		ID:    uuid.NewString(),
		City:  city,
		state: Idle,
		done:  make(chan struct{}),
	}
}

func (inv *Invocation) setState(s State) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.state = s
}

func (inv *Invocation) finish(s State, fragment string, err error) {
	inv.mu.Lock()
	inv.state = s
	inv.fragment = fragment
	inv.err = err
	inv.mu.Unlock()
	close(inv.done)
}

func (inv *Invocation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Err is the fetch or parse failure, if any. It is only informational: the
// failure has already been logged and rendered.
func (inv *Invocation) Err() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.err
}

// Fragment is what this invocation rendered or would have rendered.
func (inv *Invocation) Fragment() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.fragment
}

// Done is closed once the invocation reaches a terminal state.
func (inv *Invocation) Done() <-chan struct{} {
	return inv.done
}

// Wait blocks until Done is closed.
func (inv *Invocation) Wait() {
	<-inv.done
}
