// Package delivery tracks the distribution sub-state of an assigned receive
// request. The workflow validator consults it before allowing a request into
// ready_for_handover or completed.
//
// This service initializes and reads the tracker; Advance is driven by the
// courier/logistics system, which shares the Redis keyspace and moves the
// step as the shipment progresses. The in-memory tracker exists for tests
// and single-process dev instances, where tests drive Advance directly.
package delivery

import (
	"context"

	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
)

// Step is the delivery progression for one assigned request. Forward-only.
type Step string

const (
	StepPendingDispatch  Step = "pending_dispatch"
	StepInTransit        Step = "in_transit"
	StepReadyForHandover Step = "ready_for_handover"
	StepHandedOver       Step = "handed_over"
)

// stepOrder is the single source of truth for progression. Higher means
// further along.
var stepOrder = map[Step]int{
	StepPendingDispatch:  1,
	StepInTransit:        2,
	StepReadyForHandover: 3,
	StepHandedOver:       4,
}

// ParseStep constructs a Step from external input.
func ParseStep(s string) (Step, error) {
	st := Step(s)
	if _, ok := stepOrder[st]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid delivery step")
	}
	return st, nil
}

// After reports whether s is strictly further along than other.
func (s Step) After(other Step) bool {
	return stepOrder[s] > stepOrder[other]
}

// String returns the string representation of the step.
func (s Step) String() string {
	return string(s)
}

// Tracker stores the delivery step per request.
//
// Init is idempotent: the dispatcher re-drives it safely after a crashed
// side effect. Advance is forward-only and returns sentinel.ErrInvalidState
// on an attempt to move backward, sentinel.ErrNotFound when the request was
// never initialized.
type Tracker interface {
	Init(ctx context.Context, id domain.RequestID) error
	Advance(ctx context.Context, id domain.RequestID, step Step) error
	Step(ctx context.Context, id domain.RequestID) (Step, error)
}
