package domain

import (
	"github.com/google/uuid"

	dErrors "bloodline/pkg/domain-errors"
)

// Typed entity identifiers. Distinct types keep a DonationID from ever being
// passed where a RequestID is expected; the compiler enforces it.
type (
	// DonationID identifies a blood donation record.
	DonationID uuid.UUID
	// RequestID identifies a blood-receive request.
	RequestID uuid.UUID
	// LogID identifies a post-donation monitoring log.
	LogID uuid.UUID
	// ActorID identifies the acting user (donor, nurse, manager, admin).
	ActorID uuid.UUID
	// FacilityID identifies a donation/distribution facility.
	FacilityID uuid.UUID
	// BloodGroupID identifies a blood group reference record.
	BloodGroupID uuid.UUID
	// AssignmentID identifies a delivery/distribution assignment.
	AssignmentID uuid.UUID
	// RegistrationID links a donation back to the scheduled registration it
	// was created from.
	RegistrationID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return u, nil
}

// ParseDonationID constructs a DonationID from external input.
// Errors: CodeInvalidInput when empty, malformed, or the nil UUID.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseUUID(s, "donation id")
	return DonationID(u), err
}

// ParseRequestID constructs a RequestID from external input.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

// ParseLogID constructs a LogID from external input.
func ParseLogID(s string) (LogID, error) {
	u, err := parseUUID(s, "log id")
	return LogID(u), err
}

// ParseActorID constructs an ActorID from external input.
func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID(s, "actor id")
	return ActorID(u), err
}

// ParseAssignmentID constructs an AssignmentID from external input.
func ParseAssignmentID(s string) (AssignmentID, error) {
	u, err := parseUUID(s, "assignment id")
	return AssignmentID(u), err
}

func (id DonationID) String() string { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id LogID) String() string { return uuid.UUID(id).String() }
func (id ActorID) String() string { return uuid.UUID(id).String() }
func (id FacilityID) String() string { return uuid.UUID(id).String() }
func (id BloodGroupID) String() string { return uuid.UUID(id).String() }
func (id AssignmentID) String() string { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }

func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LogID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep the typed IDs JSON-friendly as plain UUID
// strings.
func (id DonationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *DonationID) UnmarshalText(b []byte) error {
	parsed, err := ParseDonationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id RequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *RequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id LogID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *LogID) UnmarshalText(b []byte) error {
	parsed, err := ParseLogID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ActorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *ActorID) UnmarshalText(b []byte) error {
	parsed, err := ParseActorID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id FacilityID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *FacilityID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "facility id")
	if err != nil {
		return err
	}
	*id = FacilityID(u)
	return nil
}

func (id BloodGroupID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *BloodGroupID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "blood group id")
	if err != nil {
		return err
	}
	*id = BloodGroupID(u)
	return nil
}

func (id RegistrationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *RegistrationID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b), "registration id")
	if err != nil {
		return err
	}
	*id = RegistrationID(u)
	return nil
}

func (id AssignmentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *AssignmentID) UnmarshalText(b []byte) error {
	parsed, err := ParseAssignmentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
