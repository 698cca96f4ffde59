package graph

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrNodeNotFound is returned when a node ID does not exist in the document.
var ErrNodeNotFound = errors.New("node not found")

// Annotation is a comment box placed over a region of the graph.
type Annotation struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	X        int      `json:"x" yaml:"x"`
	Y        int      `json:"y" yaml:"y"`
	Width    int      `json:"width" yaml:"width"`
	Height   int      `json:"height" yaml:"height"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
	Contains []string `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// Document is one graph as stored on disk.
type Document struct {
	Name        string       `json:"name" yaml:"name"`
	Nodes       []*Node      `json:"nodes" yaml:"nodes"`
	Selection   []string     `json:"selection,omitempty" yaml:"selection,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// Node returns the node with the given ID.
func (d *Document) Node(id string) (*Node, error) {
	for _, n := range d.Nodes {
		if n != nil && n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// Selected returns the selected nodes in selection order. IDs that do not
// resolve are returned as nil entries so callers see the raw selection.
func (d *Document) Selected() []*Node {
	out := make([]*Node, 0, len(d.Selection))
	for _, id := range d.Selection {
		n, err := d.Node(id)
		if err != nil {
			out = append(out, nil)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Resolve wires pin owners and link targets. Links are made symmetric: an
// edge declared on one side is mirrored onto the other pin. Dangling
// references keep a nil Target.
func (d *Document) Resolve() {
	byID := make(map[string]*Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil {
			continue
		}
		byID[n.ID] = n
		for _, p := range n.Pins {
			if p != nil {
				p.Owner = n
			}
		}
	}

	for _, n := range d.Nodes {
		if n == nil {
			continue
		}
		for _, p := range n.Pins {
			if p == nil {
				continue
			}
			for i := range p.LinkedTo {
				l := &p.LinkedTo[i]
				target, ok := byID[l.NodeID]
				if !ok {
					continue
				}
				l.Target = target.FindPin(l.PinName)
				if l.Target != nil {
					mirror(l.Target, n.ID, p)
				}
			}
		}
	}
}

func mirror(on *Pin, nodeID string, back *Pin) {
	for _, existing := range on.LinkedTo {
		if existing.NodeID == nodeID && existing.PinName == back.Name {
			return
		}
	}
	on.LinkedTo = append(on.LinkedTo, Link{NodeID: nodeID, PinName: back.Name, Target: back})
}

// UnmarshalJSON accepts either "<node>.<pin>" or {"node": ..., "pin": ...}.
func (l *Link) UnmarshalJSON(data []byte) error {
	var ref string
	if err := json.Unmarshal(data, &ref); err == nil {
		parsed, ok := ParseLinkRef(ref)
		if !ok {
			return fmt.Errorf("invalid link reference %q", ref)
		}
		*l = parsed
		return nil
	}
	type plain Link
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid link: %w", err)
	}
	*l = Link(p)
	return nil
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON.
func (l *Link) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, ok := ParseLinkRef(strings.TrimSpace(value.Value))
		if !ok {
			return fmt.Errorf("line %d: invalid link reference %q", value.Line, value.Value)
		}
		*l = parsed
		return nil
	}
	type plain Link
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = Link(p)
	return nil
}
