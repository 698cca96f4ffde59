// Package flatten turns graph nodes into a compact, one-line-per-node text
// form suitable for an LLM prompt.
package flatten

import (
	"fmt"
	"strings"

	"github.com/bpassist/bpassist/internal/graph"
)

// Node type tags emitted in the flattened text.
const (
	TypeEvent       = "EVENT"
	TypeCall        = "CALL"
	TypeBranch      = "BRANCH"
	TypeGet         = "GET"
	TypeSet         = "SET"
	TypeForEach     = "FOREACH"
	TypeSequence    = "SEQUENCE"
	TypeCustomEvent = "CUSTOM_EVENT"
	TypeMath        = "MATH"
	TypeString      = "STRING"
	TypeCollection  = "COLLECTION"
	TypeValidation  = "VALIDATION"
	TypeTiming      = "TIMING"
	TypeUI          = "UI"
	TypeAudio       = "AUDIO"
	TypePhysics     = "PHYSICS"
	TypeAI          = "AI"
	TypeAnimation   = "ANIMATION"
	TypeNode        = "NODE"
)

// Pin names the variant extractors look at.
const (
	conditionPin = "Condition"
	enumPin      = "Enum"
	thenPrefix   = "Then"
	classPrefix  = "K2Node_"
)

// ProcessedNodeData is the flattened view of one node.
type ProcessedNodeData struct {
	NodeType    string   `json:"node_type"`
	DisplayName string   `json:"display_name,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Parameters  Params   `json:"parameters,omitempty"`
	Connections []string `json:"connections,omitempty"`
}

// priority is the order in which variant tags are tried. Tags overlap in
// the host model (a custom event is also an event) so the order decides.
var priority = []graph.Variant{
	graph.VariantEvent,
	graph.VariantCall,
	graph.VariantBranch,
	graph.VariantVariableGet,
	graph.VariantVariableSet,
	graph.VariantForEach,
	graph.VariantSequence,
	graph.VariantCustomEvent,
}

// keywordTypes maps class-name substrings to a node type for untagged nodes.
// Order matters: the first row with a match wins.
var keywordTypes = []struct {
	keywords []string
	nodeType string
}{
	{[]string{"Math", "Add", "Multiply", "Subtract"}, TypeMath},
	{[]string{"String", "Text"}, TypeString},
	{[]string{"Array", "Set", "Map"}, TypeCollection},
	{[]string{"Cast", "IsValid"}, TypeValidation},
	{[]string{"Delay", "Timeline"}, TypeTiming},
	{[]string{"Widget", "UI"}, TypeUI},
	{[]string{"Audio", "Sound"}, TypeAudio},
	{[]string{"Physics", "Collision"}, TypePhysics},
	{[]string{"AI", "Blackboard", "Behavior"}, TypeAI},
	{[]string{"Animation", "Montage"}, TypeAnimation},
}

// Classify resolves a node to the first variant it carries in priority order,
// or VariantOther.
func Classify(n *graph.Node) graph.Variant {
	for _, v := range priority {
		if n.Is(v) {
			return v
		}
	}
	return graph.VariantOther
}

// Observer is notified of flatten activity.
type Observer interface {
	NodesFlattened(n int)
}

// Preprocessor flattens nodes. The zero value is ready to use.
type Preprocessor struct {
	observer Observer
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithObserver reports the number of flattened nodes on every call.
func WithObserver(o Observer) Option {
	return func(p *Preprocessor) {
		p.observer = o
	}
}

// New creates a Preprocessor.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessNodes flattens each non-nil node. Nil entries are dropped.
func (p *Preprocessor) ProcessNodes(nodes []*graph.Node) []ProcessedNodeData {
	out := make([]ProcessedNodeData, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, p.ProcessSingleNode(n))
	}
	if p.observer != nil && len(out) > 0 {
		p.observer.NodesFlattened(len(out))
	}
	return out
}

// ProcessSingleNode flattens one node. A nil node yields the zero value.
func (p *Preprocessor) ProcessSingleNode(n *graph.Node) ProcessedNodeData {
	if n == nil {
		return ProcessedNodeData{}
	}

	var data ProcessedNodeData
	switch Classify(n) {
	case graph.VariantEvent:
		data = extractEvent(n)
	case graph.VariantCall:
		data = extractCall(n)
	case graph.VariantBranch:
		data = extractBranch(n)
	case graph.VariantVariableGet:
		data = extractVariableGet(n)
	case graph.VariantVariableSet:
		data = extractVariableSet(n)
	case graph.VariantForEach:
		data = extractForEach(n)
	case graph.VariantSequence:
		data = extractSequence(n)
	case graph.VariantCustomEvent:
		data = extractCustomEvent(n)
	case graph.VariantOther:
		data = extractGeneric(n)
	}

	data.Comment = Sanitize(n.Comment)
	data.Parameters = extractParameters(n)
	data.Connections = extractConnections(n)
	return data
}

// PreprocessNodes flattens nodes and renders them without connections.
func (p *Preprocessor) PreprocessNodes(nodes []*graph.Node) string {
	return FormatOutput(p.ProcessNodes(nodes))
}

// PreprocessNodesWithConnections flattens nodes and renders them including
// the outbound connections of every node.
func (p *Preprocessor) PreprocessNodesWithConnections(nodes []*graph.Node) string {
	return FormatOutputWithConnections(p.ProcessNodes(nodes))
}

func extractEvent(n *graph.Node) ProcessedNodeData {
	name := n.EventMember
	if name == "" {
		name = n.ListTitle
	}
	return ProcessedNodeData{NodeType: TypeEvent, DisplayName: name}
}

func extractCall(n *graph.Node) ProcessedNodeData {
	data := ProcessedNodeData{NodeType: TypeCall}
	if n.Function == nil || n.Function.Name == "" {
		data.DisplayName = n.ListTitle
		return data
	}
	data.DisplayName = n.Function.Name
	if n.Function.Owner != "" {
		data.DisplayName = n.Function.Owner + "." + n.Function.Name
	}
	return data
}

func extractBranch(n *graph.Node) ProcessedNodeData {
	data := ProcessedNodeData{NodeType: TypeBranch, DisplayName: "Condition"}
	pin := n.FindPin(conditionPin)
	switch {
	case pin == nil:
	case pin.IsLinked():
		data.DisplayName = "Connected Condition"
	case pin.Literal() != "":
		data.DisplayName = pin.Literal()
	}
	return data
}

func extractVariableGet(n *graph.Node) ProcessedNodeData {
	return ProcessedNodeData{NodeType: TypeGet, DisplayName: variableName(n)}
}

func extractVariableSet(n *graph.Node) ProcessedNodeData {
	data := ProcessedNodeData{NodeType: TypeSet, DisplayName: variableName(n)}
	if value := n.FindPin(n.VariableName).Literal(); value != "" {
		data.DisplayName += " = " + value
	}
	return data
}

func variableName(n *graph.Node) string {
	if n.VariableName != "" {
		return n.VariableName
	}
	return n.ListTitle
}

func extractForEach(n *graph.Node) ProcessedNodeData {
	data := ProcessedNodeData{NodeType: TypeForEach, DisplayName: "Array"}
	pin := n.FindPin(enumPin)
	switch {
	case pin == nil:
	case pin.IsLinked():
		data.DisplayName = "Connected Array"
	case pin.Literal() != "":
		data.DisplayName = pin.Literal()
	}
	return data
}

func extractSequence(n *graph.Node) ProcessedNodeData {
	outputs := 0
	for _, p := range n.Pins {
		if p != nil && p.Direction == graph.DirectionOutput && hasPrefixFold(p.Name, thenPrefix) {
			outputs++
		}
	}
	return ProcessedNodeData{NodeType: TypeSequence, DisplayName: fmt.Sprintf("%d outputs", outputs)}
}

// hasPrefixFold is strings.HasPrefix ignoring case; exported graphs name
// sequence outputs both "then_0" and "Then 0".
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func extractCustomEvent(n *graph.Node) ProcessedNodeData {
	return ProcessedNodeData{NodeType: TypeCustomEvent, DisplayName: n.CustomFunctionName}
}

func extractGeneric(n *graph.Node) ProcessedNodeData {
	data := ProcessedNodeData{NodeType: genericType(n.ClassName)}

	switch {
	case n.ListTitle != "":
		data.DisplayName = n.ListTitle
	case n.FullTitle != "":
		data.DisplayName = n.FullTitle
	default:
		data.DisplayName = classDisplayName(n.ClassName)
	}
	return data
}

func classDisplayName(className string) string {
	return strings.ReplaceAll(strings.TrimPrefix(className, classPrefix), "_", " ")
}

// nodeLabel names a linked node: its list title, then variable name, full
// title, class name and finally its ID.
func nodeLabel(n *graph.Node) string {
	switch {
	case n.ListTitle != "":
		return n.ListTitle
	case n.VariableName != "":
		return n.VariableName
	case n.FullTitle != "":
		return n.FullTitle
	case n.ClassName != "":
		return classDisplayName(n.ClassName)
	default:
		return n.ID
	}
}

func genericType(className string) string {
	lower := strings.ToLower(className)
	for _, row := range keywordTypes {
		for _, kw := range row.keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return row.nodeType
			}
		}
	}
	return TypeNode
}

// extractParameters renders every non-exec input pin. A link always wins
// over a literal default.
func extractParameters(n *graph.Node) Params {
	var params Params
	for _, p := range n.Pins {
		if p == nil || p.Direction != graph.DirectionInput || p.Category == graph.CategoryExec {
			continue
		}
		if value := parameterValue(p); value != "" {
			params.Set(p.Name, value)
		}
	}
	return params
}

func parameterValue(p *graph.Pin) string {
	if p.IsLinked() {
		if owner := p.LinkedTo[0].OwningNode(); owner != nil {
			return "Connected(" + nodeLabel(owner) + ")"
		}
		return "Connected"
	}
	if literal := p.Literal(); literal != "" {
		return literal
	}
	return placeholder(p.Category)
}

func placeholder(c graph.Category) string {
	switch c {
	case graph.CategoryBool:
		return "false"
	case graph.CategoryInt, graph.CategoryFloat, graph.CategoryReal:
		return "0"
	case graph.CategoryString, graph.CategoryText:
		return `""`
	default:
		return "<" + string(c) + ">"
	}
}

// extractConnections lists "<node label>.<pin>" for every link leaving an
// output pin, in pin then link order.
func extractConnections(n *graph.Node) []string {
	var conns []string
	for _, p := range n.Pins {
		if p == nil || p.Direction != graph.DirectionOutput {
			continue
		}
		for _, l := range p.LinkedTo {
			owner := l.OwningNode()
			if owner == nil {
				continue
			}
			conns = append(conns, nodeLabel(owner)+"."+l.PinName)
		}
	}
	return conns
}

// Sanitize replaces newlines, carriage returns and tabs with spaces and
// trims surrounding whitespace.
func Sanitize(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	return strings.TrimSpace(s)
}
