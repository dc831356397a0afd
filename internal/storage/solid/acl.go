package solid

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/dtroode/podkeeper/internal/model"
)

const (
	aclNamespace  = "http://www.w3.org/ns/auth/acl#"
	aclPrefix     = "acl:"
	authorization = "Authorization"
)

var aclContext = json.RawMessage(`{"acl":"http://www.w3.org/ns/auth/acl#"}`)

// modeledTerms are the only acl terms a node may use to be read into a
// model.Authorization. Anything else is kept as raw JSON.
var modeledTerms = map[string]bool{"agent": true, "accessTo": true, "default": true, "mode": true}

type ref struct {
	ID string `json:"@id"`
}

type aclNode struct {
	ID       string `json:"@id"`
	Type     string `json:"@type"`
	Agent    *ref   `json:"acl:agent,omitempty"`
	AccessTo *ref   `json:"acl:accessTo,omitempty"`
	Default  *ref   `json:"acl:default,omitempty"`
	Mode     []ref  `json:"acl:mode"`
}

type aclDocument struct {
	Context json.RawMessage   `json:"@context"`
	Graph   []json.RawMessage `json:"@graph"`
}

// encodeACL renders acl as a web access control document in JSON-LD.
// Preserved nodes follow the authorizations unchanged.
func encodeACL(acl *model.AccessControl) ([]byte, error) {
	taken := make(map[string]bool, len(acl.Preserved))
	for _, raw := range acl.Preserved {
		var node ref
		if err := json.Unmarshal(raw, &node); err == nil {
			taken[node.ID] = true
		}
	}

	doc := aclDocument{
		Context: aclContext,
		Graph:   make([]json.RawMessage, 0, len(acl.Authorizations)+len(acl.Preserved)),
	}
	for _, auth := range acl.Authorizations {
		n := aclNode{
			ID:    nextNodeID(taken),
			Type:  aclPrefix + authorization,
			Agent: &ref{ID: auth.Agent},
			Mode:  make([]ref, 0, len(auth.Modes)),
		}
		if auth.AccessTo {
			n.AccessTo = &ref{ID: acl.Resource}
		}
		if auth.Default {
			n.Default = &ref{ID: acl.Resource}
		}
		for _, m := range auth.Modes {
			n.Mode = append(n.Mode, ref{ID: aclPrefix + string(m)})
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		doc.Graph = append(doc.Graph, raw)
	}
	doc.Graph = append(doc.Graph, acl.Preserved...)
	return json.Marshal(doc)
}

func nextNodeID(taken map[string]bool) string {
	for i := 0; ; i++ {
		id := fmt.Sprintf("#authorization-%d", i)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

// decodeACL reads a JSON-LD access control document. Both compacted (acl:
// prefix) and expanded (full IRI) keys are understood, and relative IRIs are
// resolved against base. An authorization naming several agents becomes one
// model.Authorization per agent. Nodes using other terms, such as
// acl:agentClass or acl:agentGroup, land in Preserved.
func decodeACL(data []byte, base string) (*model.AccessControl, error) {
	docContext, nodes, err := graphNodes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access control: %w", err)
	}

	acl := &model.AccessControl{}
	for _, raw := range nodes {
		var n map[string]any
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}

		agents := ids(term(n, "agent"), base)
		if !hasTerm(n, "@type", authorization) || len(agents) == 0 || !onlyModeledTerms(n) {
			kept, err := withContext(raw, docContext)
			if err != nil {
				return nil, fmt.Errorf("failed to keep access control node: %w", err)
			}
			acl.Preserved = append(acl.Preserved, kept)
			continue
		}

		var accessTo, inherited bool
		if targets := ids(term(n, "accessTo"), base); len(targets) > 0 {
			accessTo = true
			acl.Resource = targets[0]
		}
		if targets := ids(term(n, "default"), base); len(targets) > 0 {
			inherited = true
			if acl.Resource == "" {
				acl.Resource = targets[0]
			}
		}
		var modes []model.Mode
		for _, mode := range model.AllModes {
			if hasTerm(n, "mode", string(mode)) {
				modes = append(modes, mode)
			}
		}
		for _, agent := range agents {
			acl.Authorizations = append(acl.Authorizations, model.Authorization{
				Agent:    agent,
				Modes:    slices.Clone(modes),
				AccessTo: accessTo,
				Default:  inherited,
			})
		}
	}
	return acl, nil
}

func onlyModeledTerms(n map[string]any) bool {
	for key := range n {
		if key == "@id" || key == "@type" {
			continue
		}
		name := strings.TrimPrefix(strings.TrimPrefix(key, aclNamespace), aclPrefix)
		if !modeledTerms[name] {
			return false
		}
	}
	return true
}

// withContext embeds the document context into a kept node so its
// compacted terms still resolve once it is written under another context.
func withContext(raw, docContext json.RawMessage) (json.RawMessage, error) {
	if len(docContext) == 0 {
		return raw, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["@context"]; ok {
		return raw, nil
	}
	fields["@context"] = docContext
	return json.Marshal(fields)
}

// graphNodes returns the context and the nodes of a JSON-LD document given
// either as a top-level array, an object with @graph, or a single node.
func graphNodes(data []byte) (json.RawMessage, []json.RawMessage, error) {
	var nodes []json.RawMessage
	if err := json.Unmarshal(data, &nodes); err == nil {
		return nil, nodes, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	graph, ok := doc["@graph"]
	if !ok {
		return nil, []json.RawMessage{slices.Clone(data)}, nil
	}
	if err := json.Unmarshal(graph, &nodes); err != nil {
		return nil, nil, err
	}
	return doc["@context"], nodes, nil
}

func objects(nodes []json.RawMessage) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, raw := range nodes {
		var n map[string]any
		if err := json.Unmarshal(raw, &n); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// term looks up an acl vocabulary term under its compacted or expanded key.
func term(n map[string]any, name string) any {
	for _, key := range []string{aclPrefix + name, aclNamespace + name, name} {
		if v, ok := n[key]; ok {
			return v
		}
	}
	return nil
}

func hasTerm(n map[string]any, key, want string) bool {
	var v any
	if key == "@type" {
		v = n["@type"]
	} else {
		v = term(n, key)
	}
	for _, id := range ids(v, "") {
		if localName(id) == want {
			return true
		}
	}
	return false
}

// ids flattens a JSON-LD value into the IRIs it references.
func ids(v any, base string) []string {
	var out []string
	switch x := v.(type) {
	case string:
		out = append(out, resolve(base, x))
	case map[string]any:
		if id, ok := x["@id"].(string); ok {
			out = append(out, resolve(base, id))
		}
	case []any:
		for _, item := range x {
			out = append(out, ids(item, base)...)
		}
	}
	return out
}

func localName(iri string) string {
	if idx := strings.LastIndexAny(iri, "#:/"); idx >= 0 {
		return iri[idx+1:]
	}
	return iri
}

func resolve(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
