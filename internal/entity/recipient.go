package entity

import "fmt"

// SpecKind tags the audience variants of a RecipientSpec.
type SpecKind string

const (
	SpecAll      SpecKind = "all"
	SpecRole     SpecKind = "role"
	SpecZone     SpecKind = "zone"
	SpecSpecific SpecKind = "specific"
)

// RecipientSpec describes an intended audience: everyone, one role,
// one zone, or an explicit user id list. Zone and Specific carry a
// payload; an absent payload is a validation error, not an empty
// audience.
type RecipientSpec struct {
	Kind SpecKind `json:"kind"`
	Role Role     `json:"role,omitempty"`
	Zone string   `json:"zone,omitempty"`
	IDs  []string `json:"ids,omitempty"`
}

func SpecForAll() RecipientSpec {
	return RecipientSpec{Kind: SpecAll}
}

func SpecForRole(role Role) RecipientSpec {
	return RecipientSpec{Kind: SpecRole, Role: role}
}

func SpecForZone(zone string) RecipientSpec {
	return RecipientSpec{Kind: SpecZone, Zone: zone}
}

func SpecForUsers(ids []string) RecipientSpec {
	return RecipientSpec{Kind: SpecSpecific, IDs: ids}
}

func (s RecipientSpec) Validate() error {
	switch s.Kind {
	case SpecAll:
		return nil
	case SpecRole:
		if !s.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidSpec, s.Role)
		}
		return nil
	case SpecZone:
		if s.Zone == "" {
			return ErrEmptyZone
		}
		return nil
	case SpecSpecific:
		if len(s.IDs) == 0 {
			return ErrEmptyRecipients
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
}

// ParseRecipientSpec maps the wire form used by the REST API
// ("all", "admins", "operators", "responders", "zone", "specific")
// onto a RecipientSpec. Zone and id payloads come from the request body.
func ParseRecipientSpec(recipients, targetZone string, specificIDs []string) (RecipientSpec, error) {
	switch recipients {
	case "", "all":
		return SpecForAll(), nil
	case "admin", "admins":
		return SpecForRole(RoleAdmin), nil
	case "operator", "operators":
		return SpecForRole(RoleOperator), nil
	case "responder", "responders":
		return SpecForRole(RoleResponder), nil
	case "zone":
		spec := SpecForZone(targetZone)
		return spec, spec.Validate()
	case "specific":
		spec := SpecForUsers(specificIDs)
		return spec, spec.Validate()
	default:
		return RecipientSpec{}, fmt.Errorf("%w: unknown recipients value %q", ErrInvalidSpec, recipients)
	}
}

// Wire returns the string form persisted and exposed over the API.
func (s RecipientSpec) Wire() string {
	switch s.Kind {
	case SpecRole:
		return string(s.Role) + "s"
	case SpecZone:
		return "zone"
	case SpecSpecific:
		return "specific"
	default:
		return "all"
	}
}
