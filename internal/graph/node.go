// Package graph models a visual script graph document: nodes, typed pins,
// links between pins and the comment annotations written back by the assistant.
package graph

import "strings"

// Variant tags a node with one of the node families the flattener knows about.
// A node may carry several tags (a custom event is also an event), so the
// flattener resolves them by priority rather than relying on disjoint sets.
type Variant string

const (
	VariantEvent       Variant = "event"
	VariantCall        Variant = "call"
	VariantBranch      Variant = "branch"
	VariantVariableGet Variant = "variable_get"
	VariantVariableSet Variant = "variable_set"
	VariantForEach     Variant = "foreach"
	VariantSequence    Variant = "sequence"
	VariantCustomEvent Variant = "custom_event"
	// VariantOther is the zero-tag case handled by the generic extractor.
	VariantOther Variant = ""
)

// Direction is the data-flow side of a pin.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// Category is a pin type category. Unknown names are kept verbatim.
type Category string

const (
	CategoryBool   Category = "bool"
	CategoryInt    Category = "int"
	CategoryFloat  Category = "float"
	CategoryReal   Category = "real"
	CategoryString Category = "string"
	CategoryText   Category = "text"
	CategoryObject Category = "object"
	CategoryExec   Category = "exec"
)

// FunctionRef identifies the function a call node targets.
type FunctionRef struct {
	Name  string `json:"name" yaml:"name"`
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty"`
}

// Node is a single element of the graph.
type Node struct {
	ID        string    `json:"id" yaml:"id"`
	Variants  []Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
	ClassName string    `json:"class,omitempty" yaml:"class,omitempty"`

	// ListTitle is the compact title shown in list views; FullTitle the
	// multi-line title shown on the node body.
	ListTitle string `json:"title,omitempty" yaml:"title,omitempty"`
	FullTitle string `json:"full_title,omitempty" yaml:"full_title,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`

	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`

	// Variant payloads. Only the fields matching the node's variants are set.
	EventMember        string       `json:"event_member,omitempty" yaml:"event_member,omitempty"`
	Function           *FunctionRef `json:"function,omitempty" yaml:"function,omitempty"`
	VariableName       string       `json:"variable,omitempty" yaml:"variable,omitempty"`
	CustomFunctionName string       `json:"custom_function,omitempty" yaml:"custom_function,omitempty"`

	Pins []*Pin `json:"pins,omitempty" yaml:"pins,omitempty"`
}

// Is reports whether the node carries the given variant tag.
// VariantOther matches nodes without any tag.
func (n *Node) Is(v Variant) bool {
	if v == VariantOther {
		return len(n.Variants) == 0
	}
	for _, have := range n.Variants {
		if have == v {
			return true
		}
	}
	return false
}

// FindPin returns the first pin with the given name, or nil.
func (n *Node) FindPin(name string) *Pin {
	for _, p := range n.Pins {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// Pin is a named, typed slot on a node.
type Pin struct {
	Name          string    `json:"name" yaml:"name"`
	Direction     Direction `json:"direction" yaml:"direction"`
	Category      Category  `json:"category,omitempty" yaml:"category,omitempty"`
	DefaultValue  string    `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultText   string    `json:"default_text,omitempty" yaml:"default_text,omitempty"`
	DefaultObject string    `json:"default_object,omitempty" yaml:"default_object,omitempty"`
	LinkedTo      []Link    `json:"links,omitempty" yaml:"links,omitempty"`

	// Owner is set by Document.Resolve.
	Owner *Node `json:"-" yaml:"-"`
}

// Literal returns the pin's literal default: the plain value, then the text
// value, then the referenced object name. Empty when none is set.
func (p *Pin) Literal() string {
	if p == nil {
		return ""
	}
	switch {
	case p.DefaultValue != "":
		return p.DefaultValue
	case p.DefaultText != "":
		return p.DefaultText
	default:
		return p.DefaultObject
	}
}

// IsLinked reports whether the pin has at least one link.
func (p *Pin) IsLinked() bool {
	return p != nil && len(p.LinkedTo) > 0
}

// Link is an edge to a pin on another node, written as "<node>.<pin>".
type Link struct {
	NodeID  string `json:"node" yaml:"node"`
	PinName string `json:"pin" yaml:"pin"`

	// Target is the resolved pin; nil when the reference does not resolve.
	Target *Pin `json:"-" yaml:"-"`
}

// ParseLinkRef splits "<node>.<pin>" at the last dot.
func ParseLinkRef(ref string) (Link, bool) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return Link{}, false
	}
	return Link{NodeID: ref[:i], PinName: ref[i+1:]}, true
}

// String renders the link reference.
func (l Link) String() string {
	return l.NodeID + "." + l.PinName
}

// OwningNode returns the node that owns the linked pin, or nil when the link
// is dangling.
func (l Link) OwningNode() *Node {
	if l.Target == nil {
		return nil
	}
	return l.Target.Owner
}
