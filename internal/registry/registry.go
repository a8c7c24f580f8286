// Package registry defines the status vocabularies, transition graphs,
// per-transition role authorization, and display lookups for the workflow
// entities. It is pure immutable data: nothing here performs I/O or mutates
// state.
package registry

import (
	"bloodline/pkg/domain"
)

// Display is the presentation lookup for a status. Pure data for clients;
// never used in business decisions.
type Display struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type pair struct {
	from domain.Status
	to   domain.Status
}

// Registry holds the transition tables. Construct via New; the zero value is
// not usable.
type Registry struct {
	statuses    map[domain.EntityType][]domain.Status
	transitions map[domain.EntityType]map[domain.Status][]domain.Status
	roles       map[domain.EntityType]map[pair][]domain.Role
	displays    map[domain.EntityType]map[domain.Status]Display
	delivery    map[domain.Status]bool
}

// New builds the registry. The tables are fixed at construction; callers
// share a single instance.
func New() *Registry {
	r := &Registry{
		statuses: map[domain.EntityType][]domain.Status{
			domain.EntityDonation: {
				domain.DonationPending,
				domain.DonationDonating,
				domain.DonationCompleted,
				domain.DonationCancelled,
			},
			domain.EntityReceiveRequest: {
				domain.ReceivePendingApproval,
				domain.ReceiveRejectedRegistration,
				domain.ReceiveApproved,
				domain.ReceiveAssigned,
				domain.ReceiveReadyForHandover,
				domain.ReceiveCompleted,
				domain.ReceiveCancelled,
			},
		},
		transitions: map[domain.EntityType]map[domain.Status][]domain.Status{
			domain.EntityDonation: {
				domain.DonationPending:  {domain.DonationDonating, domain.DonationCancelled},
				domain.DonationDonating: {domain.DonationCompleted, domain.DonationCancelled},
			},
			domain.EntityReceiveRequest: {
				domain.ReceivePendingApproval: {
					domain.ReceiveApproved,
					domain.ReceiveRejectedRegistration,
					domain.ReceiveCancelled,
				},
				domain.ReceiveApproved:         {domain.ReceiveAssigned, domain.ReceiveCancelled},
				domain.ReceiveAssigned:         {domain.ReceiveReadyForHandover, domain.ReceiveCancelled},
				domain.ReceiveReadyForHandover: {domain.ReceiveCompleted, domain.ReceiveCancelled},
			},
		},
		roles: map[domain.EntityType]map[pair][]domain.Role{
			domain.EntityDonation: {
				{domain.DonationPending, domain.DonationDonating}:   {domain.RoleNurse},
				{domain.DonationDonating, domain.DonationCompleted}: {domain.RoleNurse},
				{domain.DonationPending, domain.DonationCancelled}:  {domain.RoleNurse, domain.RoleManager, domain.RoleAdmin},
				{domain.DonationDonating, domain.DonationCancelled}: {domain.RoleNurse, domain.RoleManager, domain.RoleAdmin},
			},
			domain.EntityReceiveRequest: {
				{domain.ReceivePendingApproval, domain.ReceiveApproved}:             {domain.RoleManager},
				{domain.ReceivePendingApproval, domain.ReceiveRejectedRegistration}: {domain.RoleManager},
				{domain.ReceiveApproved, domain.ReceiveAssigned}:                    {domain.RoleManager},
				{domain.ReceiveAssigned, domain.ReceiveReadyForHandover}:            {domain.RoleManager},
				{domain.ReceiveReadyForHandover, domain.ReceiveCompleted}:           {domain.RoleManager},
				{domain.ReceivePendingApproval, domain.ReceiveCancelled}:            {domain.RoleMember, domain.RoleAdmin},
				{domain.ReceiveApproved, domain.ReceiveCancelled}:                   {domain.RoleMember, domain.RoleAdmin},
				{domain.ReceiveAssigned, domain.ReceiveCancelled}:                   {domain.RoleMember, domain.RoleAdmin},
				{domain.ReceiveReadyForHandover, domain.ReceiveCancelled}:           {domain.RoleMember, domain.RoleAdmin},
			},
		},
		displays: map[domain.EntityType]map[domain.Status]Display{
			domain.EntityDonation: {
				domain.DonationPending:   {Label: "Pending", Color: "#FBBF24"},
				domain.DonationDonating:  {Label: "Donating", Color: "#F97316"},
				domain.DonationCompleted: {Label: "Completed", Color: "#2ED573"},
				domain.DonationCancelled: {Label: "Cancelled", Color: "#F87171"},
			},
			domain.EntityReceiveRequest: {
				domain.ReceivePendingApproval:      {Label: "Pending approval", Color: "#FBBF24"},
				domain.ReceiveRejectedRegistration: {Label: "Registration rejected", Color: "#EF4444"},
				domain.ReceiveApproved:             {Label: "Approved", Color: "#3B82F6"},
				domain.ReceiveAssigned:             {Label: "Assigned", Color: "#6366F1"},
				domain.ReceiveReadyForHandover:     {Label: "Ready for handover", Color: "#0EA5E9"},
				domain.ReceiveCompleted:            {Label: "Completed", Color: "#2ED573"},
				domain.ReceiveCancelled:            {Label: "Cancelled", Color: "#F87171"},
			},
		},
		delivery: map[domain.Status]bool{
			domain.ReceiveAssigned:  true,
			domain.ReceiveCompleted: true,
		},
	}
	return r
}

// Statuses returns the ordered status vocabulary for an entity type.
func (r *Registry) Statuses(entity domain.EntityType) []domain.Status {
	out := make([]domain.Status, len(r.statuses[entity]))
	copy(out, r.statuses[entity])
	return out
}

// NextStatuses returns the legal next statuses from the given status. A
// status absent from the transition table has no legal outgoing transition.
func (r *Registry) NextStatuses(entity domain.EntityType, from domain.Status) []domain.Status {
	next := r.transitions[entity][from]
	out := make([]domain.Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from → to is in the legal-next set.
func (r *Registry) CanTransition(entity domain.EntityType, from, to domain.Status) bool {
	for _, next := range r.transitions[entity][from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no legal outgoing transition.
func (r *Registry) IsTerminal(entity domain.EntityType, status domain.Status) bool {
	return len(r.transitions[entity][status]) == 0
}

// HasTransitionRule reports whether a role rule is defined for the pair.
// Pairs without a rule are not defined transitions at all; the legality
// check rejects them.
func (r *Registry) HasTransitionRule(entity domain.EntityType, from, to domain.Status) bool {
	_, ok := r.roles[entity][pair{from, to}]
	return ok
}

// AllowedRoles returns the roles authorized for the from → to pair.
func (r *Registry) AllowedRoles(entity domain.EntityType, from, to domain.Status) []domain.Role {
	roles := r.roles[entity][pair{from, to}]
	out := make([]domain.Role, len(roles))
	copy(out, roles)
	return out
}

// RoleAllowed reports whether the role is authorized for the from → to pair.
func (r *Registry) RoleAllowed(entity domain.EntityType, from, to domain.Status, role domain.Role) bool {
	for _, allowed := range r.roles[entity][pair{from, to}] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Display returns the label/color lookup for a status. Unknown statuses get
// a zero Display.
func (r *Registry) Display(entity domain.EntityType, status domain.Status) Display {
	return r.displays[entity][status]
}

// DeliveryTracked reports whether a receive-request status is exposed to the
// live delivery-tracking view. ready_for_handover is an intermediate gate
// and deliberately excluded.
func (r *Registry) DeliveryTracked(status domain.Status) bool {
	return r.delivery[status]
}
