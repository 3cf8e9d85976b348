// Package policy resolves an actor's role into a set of named capabilities and
// answers lifecycle permission questions against that set.
package policy

import (
	"campusbook/config"
	"campusbook/internal/domains/booking/model"
	"campusbook/shared/session"
	_ "embed"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var document []byte

type Capability string

const (
	CreateBooking              Capability = "create_booking"
	ViewAllBookings            Capability = "view_all_bookings"
	ApproveBooking             Capability = "approve_booking"
	RejectBooking              Capability = "reject_booking"
	CancelAnyBooking           Capability = "cancel_any_booking"
	AutoApprove                Capability = "auto_approve"
	ManageResources            Capability = "manage_resources"
	UpdateResourceAvailability Capability = "update_resource_availability"
	ViewAllResources           Capability = "view_all_resources"
	ManageUsers                Capability = "manage_users"
	ViewReports                Capability = "view_reports"
	ViewAuditLog               Capability = "view_audit_log"
)

var known = []Capability{
	CreateBooking, ViewAllBookings, ApproveBooking, RejectBooking, CancelAnyBooking, AutoApprove,
	ManageResources, UpdateResourceAvailability, ViewAllResources, ManageUsers, ViewReports, ViewAuditLog,
}

const (
	GrantStaffCanApprove  = "staff_can_approve"
	GrantStaffAutoApprove = "staff_auto_approve"
	GrantAdminAutoApprove = "admin_auto_approve"
)

type grant struct {
	Role         string       `yaml:"role"`
	Capabilities []Capability `yaml:"capabilities"`
}

type spec struct {
	Roles  map[string][]Capability `yaml:"roles"`
	Grants map[string]grant        `yaml:"grants"`
}

type Policy interface {
	Resolve(actor session.Actor) Capabilities
	Roles() []string
}

type policyImpl struct {
	roles map[string]map[Capability]struct{}
}

// New loads the embedded role document and applies the grants enabled in cfg.
func New(cfg *config.Config) (Policy, error) {
	grants := []string{}

	if cfg.Policy.StaffCanApprove {
		grants = append(grants, GrantStaffCanApprove)
	}

	if cfg.Policy.StaffAutoApprove {
		grants = append(grants, GrantStaffAutoApprove)
	}

	if cfg.Policy.AdminAutoApprove {
		grants = append(grants, GrantAdminAutoApprove)
	}

	return Parse(document, grants...)
}

// Parse builds a Policy from a YAML document, enabling the named grants.
func Parse(data []byte, grants ...string) (Policy, error) {
	var doc spec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode policy document: %w", err)
	}

	roles := make(map[string]map[Capability]struct{}, len(doc.Roles))

	for role, capabilities := range doc.Roles {
		set := make(map[Capability]struct{}, len(capabilities))

		for _, capability := range capabilities {
			if !slices.Contains(known, capability) {
				return nil, fmt.Errorf("role %s: unknown capability %q", role, capability)
			}

			set[capability] = struct{}{}
		}

		roles[role] = set
	}

	for _, name := range grants {
		g, ok := doc.Grants[name]
		if !ok {
			return nil, fmt.Errorf("unknown policy grant %q", name)
		}

		set, ok := roles[g.Role]
		if !ok {
			return nil, fmt.Errorf("grant %s targets unknown role %q", name, g.Role)
		}

		for _, capability := range g.Capabilities {
			if !slices.Contains(known, capability) {
				return nil, fmt.Errorf("grant %s: unknown capability %q", name, capability)
			}

			set[capability] = struct{}{}
		}

		log.Info().Str("grant", name).Str("role", g.Role).Msg("policy grant enabled")
	}

	return &policyImpl{roles: roles}, nil
}

// Resolve returns the capabilities of actor. Unknown roles resolve to nothing.
func (p *policyImpl) Resolve(actor session.Actor) Capabilities {
	set := map[Capability]struct{}{}

	if !actor.IsZero() {
		for capability := range p.roles[actor.Role] {
			set[capability] = struct{}{}
		}
	}

	return Capabilities{Actor: actor, set: set}
}

func (p *policyImpl) Roles() []string {
	roles := make([]string, 0, len(p.roles))
	for role := range p.roles {
		roles = append(roles, role)
	}

	slices.Sort(roles)

	return roles
}

// Of builds the capability set of actor from an already resolved list, such as the
// one the server reports for the signed-in user.
func Of(actor session.Actor, capabilities ...Capability) Capabilities {
	set := make(map[Capability]struct{}, len(capabilities))
	for _, capability := range capabilities {
		set[capability] = struct{}{}
	}

	return Capabilities{Actor: actor, set: set}
}

// Capabilities is the resolved permission set of one actor.
type Capabilities struct {
	Actor session.Actor
	set   map[Capability]struct{}
}

func (c Capabilities) Has(capability Capability) bool {
	_, ok := c.set[capability]

	return ok
}

// HasAny reports whether at least one of capabilities is held.
func (c Capabilities) HasAny(capabilities ...Capability) bool {
	return slices.ContainsFunc(capabilities, c.Has)
}

func (c Capabilities) List() []Capability {
	list := make([]Capability, 0, len(c.set))
	for capability := range c.set {
		list = append(list, capability)
	}

	slices.Sort(list)

	return list
}

func (c Capabilities) CanView(booking model.Booking) bool {
	return booking.OwnedBy(c.Actor.UserID) || c.Has(ViewAllBookings)
}

// Permits checks only the actor's rights to drive booking to target, regardless of
// whether the lifecycle currently allows it.
func (c Capabilities) Permits(booking model.Booking, target model.Status) bool {
	switch target {
	case model.StatusApproved:
		return c.Has(ApproveBooking)
	case model.StatusRejected:
		return c.Has(RejectBooking)
	case model.StatusCancelled:
		return booking.OwnedBy(c.Actor.UserID) || c.Has(CancelAnyBooking)
	default:
		return false
	}
}

// CanTransition combines the actor's rights with the lifecycle rules.
func (c Capabilities) CanTransition(booking model.Booking, target model.Status) bool {
	return c.Permits(booking, target) && booking.Status.CanTransitionTo(target)
}

// CanEdit allows only the owner to change a booking that is still pending.
func (c Capabilities) CanEdit(booking model.Booking) bool {
	return booking.OwnedBy(c.Actor.UserID) && booking.Status.Editable()
}

// InitialStatus is the state a booking created by this actor starts in.
func (c Capabilities) InitialStatus() model.Status {
	if c.Has(AutoApprove) {
		return model.StatusApproved
	}

	return model.StatusPending
}
