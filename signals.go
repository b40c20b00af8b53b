package nqe

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stop is the cooperative stop request from spec.md §3 ("Signal
// envelopes"): a message, not an exception. A process that wants to honor
// it must receive it itself, typically via Case[Stop] in a Dispatch loop.
type Stop struct {
	From *Process
}

// Died is the monitor notification enqueued directly into a monitor's
// mailbox when the monitored Process terminates.
type Died struct {
	Who *Process
	Err error // nil on normal exit
}

func (d Died) String() string {
	if d.Err == nil {
		return fmt.Sprintf("Died{%s, normal}", d.Who)
	}
	return fmt.Sprintf("Died{%s, %v}", d.Who, d.Err)
}

// LinkedProcessDiedError is delivered asynchronously (via Host.Deliver) to
// every Process linked to a peer that just died.
type LinkedProcessDiedError struct {
	Who *Process
	Err error
}

func (e *LinkedProcessDiedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("linked process %s died normally", e.Who)
	}
	return fmt.Sprintf("linked process %s died: %v", e.Who, e.Err)
}

func (e *LinkedProcessDiedError) Unwrap() error { return e.Err }

// DependentActionEndedError is injected into a WithProcess child when the
// surrounding scope exits.
type DependentActionEndedError struct{}

func (*DependentActionEndedError) Error() string { return "dependent action ended: scope closed" }

// CouldNotCastDynamicError reports that an envelope's runtime type did not
// match what the caller required, as returned by Cast. Query does not
// produce it: a reply whose response type differs from the one Query waits
// for is left unmatched in the mailbox.
type CouldNotCastDynamicError struct {
	Wanted string
	Got    string
}

func (e *CouldNotCastDynamicError) Error() string {
	return fmt.Sprintf("could not cast dynamic message: wanted %s, got %s", e.Wanted, e.Got)
}

func newCouldNotCastDynamic(wanted string, got interface{}) error {
	return errors.WithStack(&CouldNotCastDynamicError{Wanted: wanted, Got: fmt.Sprintf("%T", got)})
}

// killedError wraps the reason a Process was killed asynchronously via Kill.
type killedError struct {
	reason error
}

func (e *killedError) Error() string { return fmt.Sprintf("killed: %v", e.reason) }
func (e *killedError) Unwrap() error { return e.reason }
func newKilled(reason error) error   { return &killedError{reason: reason} }

var errRemovedBySupervisor = errors.New("removed by supervisor")

// QueryTimeoutError is delivered to a querying Process when no reply arrives
// within its Config.QueryTimeout.
type QueryTimeoutError struct {
	Remote *Process
}

func (e *QueryTimeoutError) Error() string {
	return fmt.Sprintf("query to %s timed out", e.Remote)
}
