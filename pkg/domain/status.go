package domain

import dErrors "bloodline/pkg/domain-errors"

// EntityType names a workflow aggregate.
type EntityType string

const (
	EntityDonation       EntityType = "donation"
	EntityReceiveRequest EntityType = "receive_request"
)

// String returns the string representation of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// Status is a workflow status value. Each entity type has its own vocabulary;
// the status registry owns the transition graph between them.
type Status string

// Donation statuses.
const (
	DonationPending   Status = "pending"
	DonationDonating  Status = "donating"
	DonationCompleted Status = "completed"
	DonationCancelled Status = "cancelled"
)

// Receive-request statuses.
const (
	ReceivePendingApproval      Status = "pending_approval"
	ReceiveRejectedRegistration Status = "rejected_registration"
	ReceiveApproved             Status = "approved"
	ReceiveAssigned             Status = "assigned"
	ReceiveReadyForHandover     Status = "ready_for_handover"
	ReceiveCompleted            Status = "completed"
	ReceiveCancelled            Status = "cancelled"
)

var validDonationStatuses = map[Status]bool{
	DonationPending:   true,
	DonationDonating:  true,
	DonationCompleted: true,
	DonationCancelled: true,
}

var validReceiveStatuses = map[Status]bool{
	ReceivePendingApproval:      true,
	ReceiveRejectedRegistration: true,
	ReceiveApproved:             true,
	ReceiveAssigned:             true,
	ReceiveReadyForHandover:     true,
	ReceiveCompleted:            true,
	ReceiveCancelled:            true,
}

// ParseDonationStatus constructs a donation Status from external input.
// Errors: CodeInvalidInput when the value is empty or not in the donation
// vocabulary.
func ParseDonationStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !validDonationStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid donation status")
	}
	return st, nil
}

// ParseReceiveStatus constructs a receive-request Status from external input.
func ParseReceiveStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !validReceiveStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid receive-request status")
	}
	return st, nil
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
