package model

import (
	"encoding/json"
	"slices"
)

// Mode is a single access mode of the web access control vocabulary.
type Mode string

const (
	ModeRead    Mode = "Read"
	ModeAppend  Mode = "Append"
	ModeWrite   Mode = "Write"
	ModeControl Mode = "Control"
)

// AllModes lists every mode in canonical order.
var AllModes = []Mode{ModeRead, ModeAppend, ModeWrite, ModeControl}

// Capability is the set of modes a permission call changes. A mode mapped to
// true is granted, a mode mapped to false is revoked, modes not present are
// left untouched.
type Capability map[Mode]bool

// Authorization grants an agent a set of modes on the ACL's resource and,
// when Default is set, on everything created inside it later.
type Authorization struct {
	Agent    string `json:"agent"`
	Modes    []Mode `json:"modes"`
	AccessTo bool   `json:"access_to"`
	Default  bool   `json:"default"`
}

// Has reports whether the authorization includes mode.
func (a Authorization) Has(mode Mode) bool {
	return slices.Contains(a.Modes, mode)
}

// Set grants or revokes mode, keeping Modes in canonical order.
func (a *Authorization) Set(mode Mode, granted bool) {
	modes := make([]Mode, 0, len(AllModes))
	for _, m := range AllModes {
		has := a.Has(m)
		if m == mode {
			has = granted
		}
		if has {
			modes = append(modes, m)
		}
	}
	a.Modes = modes
}

// AccessControl is the access-control resource attached to a container or resource.
// An agent may hold several authorizations, for example one for the resource
// itself and another one for the defaults of its contents.
type AccessControl struct {
	Resource       string          `json:"resource"`
	Authorizations []Authorization `json:"authorizations"`
	// Preserved holds nodes that grant access to something other than single
	// agents, such as public or group authorizations. They are written back
	// unchanged.
	Preserved []json.RawMessage `json:"preserved,omitempty"`
}

// AgentModes returns the modes agent holds on the resource and the modes it
// holds by default on the resource's contents, each in canonical order.
func (acl *AccessControl) AgentModes(agent string) (accessTo, inherited []Mode) {
	var own, def Authorization
	for _, a := range acl.Authorizations {
		if a.Agent != agent {
			continue
		}
		for _, m := range a.Modes {
			if a.AccessTo {
				own.Set(m, true)
			}
			if a.Default {
				def.Set(m, true)
			}
		}
	}
	return own.Modes, def.Modes
}

// Remove drops the authorization of agent if present.
func (acl *AccessControl) Remove(agent string) {
	acl.Authorizations = slices.DeleteFunc(acl.Authorizations, func(a Authorization) bool {
		return a.Agent == agent
	})
}

// AccessGrant is a resolved view of one agent's access to a container.
type AccessGrant struct {
	Subject  UserIdentity
	Resource Container
	Read     bool
	Append   bool
	Write    bool
	Control  bool
}
