package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// Well-known capability names. Custom roles may define additional
// capabilities; these are the ones the storefront itself checks.
const (
	CapabilityOrders      = "orders"
	CapabilityProducts    = "products"
	CapabilityMembers     = "members"
	CapabilityRoles       = "roles"
	CapabilityInvitations = "invitations"
	CapabilitySettings    = "settings"
)

// Common action names within a capability.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionInvite = "invite"
	ActionRemove = "remove"
)

var permissionToken = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// CapabilityGrant is the per-capability half of the permission union: either
// full access to the capability or an explicit list of allowed actions.
type CapabilityGrant struct {
	All     bool
	Actions []string
}

// PermissionDocument is a validated tagged union replacing the schemaless
// permission blob: either a full-access wildcard or a map from capability to
// grant. The zero value grants nothing.
type PermissionDocument struct {
	All          bool
	Capabilities map[string]CapabilityGrant
}

// AllCapabilities returns the full-access wildcard document.
func AllCapabilities() PermissionDocument {
	return PermissionDocument{All: true}
}

// Allows reports whether the document grants the given action on the given
// capability.
func (d PermissionDocument) Allows(capability, action string) bool {
	if d.All {
		return true
	}
	grant, ok := d.Capabilities[capability]
	if !ok {
		return false
	}
	if grant.All {
		return true
	}
	for _, a := range grant.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Validate checks the document at write time so malformed permissions are
// rejected before they reach storage.
func (d PermissionDocument) Validate() error {
	if d.All {
		if len(d.Capabilities) > 0 {
			return fmt.Errorf("permission document: wildcard must not list capabilities")
		}
		return nil
	}
	for capability, grant := range d.Capabilities {
		if !permissionToken.MatchString(capability) {
			return fmt.Errorf("permission document: invalid capability name %q", capability)
		}
		if grant.All {
			if len(grant.Actions) > 0 {
				return fmt.Errorf("permission document: capability %q mixes wildcard and action list", capability)
			}
			continue
		}
		if len(grant.Actions) == 0 {
			return fmt.Errorf("permission document: capability %q grants no actions", capability)
		}
		seen := make(map[string]struct{}, len(grant.Actions))
		for _, action := range grant.Actions {
			if !permissionToken.MatchString(action) {
				return fmt.Errorf("permission document: invalid action %q for capability %q", action, capability)
			}
			if _, dup := seen[action]; dup {
				return fmt.Errorf("permission document: duplicate action %q for capability %q", action, capability)
			}
			seen[action] = struct{}{}
		}
	}
	return nil
}

// MarshalJSON encodes the union as either {"all":true} or a capability map
// whose values are true or an action list, e.g.
// {"orders":["read","create"],"products":true}.
func (d PermissionDocument) MarshalJSON() ([]byte, error) {
	if d.All {
		return json.Marshal(map[string]bool{"all": true})
	}
	out := make(map[string]any, len(d.Capabilities))
	for capability, grant := range d.Capabilities {
		if grant.All {
			out[capability] = true
			continue
		}
		actions := append([]string(nil), grant.Actions...)
		sort.Strings(actions)
		out[capability] = actions
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON. Anything that
// does not fit the union shape is an error rather than silently ignored.
func (d *PermissionDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("permission document: %w", err)
	}

	if all, ok := raw["all"]; ok && len(raw) == 1 {
		var b bool
		if err := json.Unmarshal(all, &b); err == nil && b {
			*d = PermissionDocument{All: true}
			return nil
		}
	}

	caps := make(map[string]CapabilityGrant, len(raw))
	for capability, value := range raw {
		var b bool
		if err := json.Unmarshal(value, &b); err == nil {
			if !b {
				return fmt.Errorf("permission document: capability %q set to false", capability)
			}
			caps[capability] = CapabilityGrant{All: true}
			continue
		}
		var actions []string
		if err := json.Unmarshal(value, &actions); err != nil {
			return fmt.Errorf("permission document: capability %q is neither bool nor action list", capability)
		}
		caps[capability] = CapabilityGrant{Actions: actions}
	}

	*d = PermissionDocument{Capabilities: caps}
	return d.Validate()
}
