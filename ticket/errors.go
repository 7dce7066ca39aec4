package ticket

import (
	"errors"
	"fmt"
)

// ErrNotTicket is returned when a channel does not follow the ticket naming
// convention.
var ErrNotTicket = errors.New("not a ticket channel")

// ErrAlreadyClosed is returned when closing a ticket that is not open.
var ErrAlreadyClosed = errors.New("ticket already closed")

// ErrOpenInProgress is returned when the per-owner lock is already held, i.e.
// another open request for the same owner has not finished yet.
var ErrOpenInProgress = errors.New("ticket open already in progress")

// AlreadyOpenError signals that the requester already has an open ticket.
type AlreadyOpenError struct {
	ChannelID string
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("ticket already open in channel %s", e.ChannelID)
}

// PermissionDeniedError signals that the actor is neither the ticket owner
// nor staff, as required by the attempted action.
type PermissionDeniedError struct {
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}

// ChannelOperationError wraps a platform failure during a channel operation.
type ChannelOperationError struct {
	Op  string
	Err error
}

func (e *ChannelOperationError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Op, e.Err)
}

func (e *ChannelOperationError) Unwrap() error {
	return e.Err
}
