package flatten

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpassist/bpassist/internal/graph"
)

func decode(t *testing.T, src string) *graph.Document {
	t.Helper()
	doc, err := graph.Decode(strings.NewReader(src), graph.FormatJSON)
	require.NoError(t, err)
	return doc
}

func TestPreprocessNodes_CallWithOwner(t *testing.T) {
	node := &graph.Node{
		Variants: []graph.Variant{graph.VariantCall},
		Function: &graph.FunctionRef{Name: "Add", Owner: "Vector"},
		Pins: []*graph.Pin{
			{Name: "A", Direction: graph.DirectionInput, Category: graph.CategoryFloat, DefaultValue: "1"},
			{Name: "B", Direction: graph.DirectionInput, Category: graph.CategoryFloat},
		},
	}

	assert.Equal(t, "1. CALL: Vector.Add(A=1, B=0)", New().PreprocessNodes([]*graph.Node{node}))
}

func TestPreprocessNodes_BranchLinkedCondition(t *testing.T) {
	doc := decode(t, `{"nodes": [
		{"id": "b", "variants": ["branch"], "title": "Branch", "pins": [
			{"name": "execute", "direction": "input", "category": "exec"},
			{"name": "Condition", "direction": "input", "category": "bool", "default": "true", "links": ["g.ReturnValue"]}
		]},
		{"id": "g", "variants": ["variable_get"], "title": "Get IsOpen", "variable": "IsOpen", "pins": [
			{"name": "ReturnValue", "direction": "output", "category": "bool"}
		]}
	]}`)

	out := New().PreprocessNodes(doc.Nodes[:1])
	assert.True(t, strings.HasPrefix(out, "1. BRANCH: Connected Condition"))
	assert.Equal(t, "1. BRANCH: Connected Condition(Condition=Connected(Get IsOpen))", out)
}

func TestPreprocessNodes_Empty(t *testing.T) {
	p := New()
	assert.Equal(t, "", p.PreprocessNodes(nil))
	assert.Equal(t, "", p.PreprocessNodes([]*graph.Node{}))
	assert.Equal(t, "", p.PreprocessNodesWithConnections(nil))
}

func TestProcessNodes_SkipsNilWithoutGaps(t *testing.T) {
	event := &graph.Node{Variants: []graph.Variant{graph.VariantEvent}, EventMember: "ReceiveBeginPlay"}
	get := &graph.Node{Variants: []graph.Variant{graph.VariantVariableGet}, VariableName: "Health"}

	p := New()
	data := p.ProcessNodes([]*graph.Node{nil, event, nil, get})
	require.Len(t, data, 2)

	assert.Equal(t, "1. EVENT: ReceiveBeginPlay\n2. GET: Health", FormatOutput(data))
}

func TestProcessSingleNode_Variants(t *testing.T) {
	tests := []struct {
		name     string
		node     *graph.Node
		wantType string
		wantName string
	}{
		{
			name:     "event falls back to title",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantEvent}, ListTitle: "Event Tick"},
			wantType: TypeEvent,
			wantName: "Event Tick",
		},
		{
			name:     "custom event tagged as event resolves to event",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantCustomEvent, graph.VariantEvent}, ListTitle: "OnOpened", CustomFunctionName: "OnOpened"},
			wantType: TypeEvent,
			wantName: "OnOpened",
		},
		{
			name:     "custom event",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantCustomEvent}, CustomFunctionName: "OnDoorOpened"},
			wantType: TypeCustomEvent,
			wantName: "OnDoorOpened",
		},
		{
			name:     "call without owner",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantCall}, Function: &graph.FunctionRef{Name: "OpenDoor"}},
			wantType: TypeCall,
			wantName: "OpenDoor",
		},
		{
			name:     "call without function uses title",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantCall}, ListTitle: "Open Door"},
			wantType: TypeCall,
			wantName: "Open Door",
		},
		{
			name:     "branch without condition pin",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantBranch}},
			wantType: TypeBranch,
			wantName: "Condition",
		},
		{
			name: "branch with literal condition",
			node: &graph.Node{Variants: []graph.Variant{graph.VariantBranch}, Pins: []*graph.Pin{
				{Name: "Condition", Direction: graph.DirectionInput, Category: graph.CategoryBool, DefaultValue: "true"},
			}},
			wantType: TypeBranch,
			wantName: "true",
		},
		{
			name:     "get falls back to title",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantVariableGet}, ListTitle: "Get Speed"},
			wantType: TypeGet,
			wantName: "Get Speed",
		},
		{
			name: "set with literal",
			node: &graph.Node{Variants: []graph.Variant{graph.VariantVariableSet}, VariableName: "Health", Pins: []*graph.Pin{
				{Name: "Health", Direction: graph.DirectionInput, Category: graph.CategoryFloat, DefaultValue: "100"},
			}},
			wantType: TypeSet,
			wantName: "Health = 100",
		},
		{
			name:     "set without value pin",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantVariableSet}, VariableName: "Health"},
			wantType: TypeSet,
			wantName: "Health",
		},
		{
			name: "foreach with object default",
			node: &graph.Node{Variants: []graph.Variant{graph.VariantForEach}, Pins: []*graph.Pin{
				{Name: "Enum", Direction: graph.DirectionInput, Category: graph.CategoryObject, DefaultObject: "EColor"},
			}},
			wantType: TypeForEach,
			wantName: "EColor",
		},
		{
			name:     "foreach default",
			node:     &graph.Node{Variants: []graph.Variant{graph.VariantForEach}},
			wantType: TypeForEach,
			wantName: "Array",
		},
		{
			name: "sequence counts then pins",
			node: &graph.Node{Variants: []graph.Variant{graph.VariantSequence}, Pins: []*graph.Pin{
				{Name: "execute", Direction: graph.DirectionInput, Category: graph.CategoryExec},
				{Name: "Then 0", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
				{Name: "Then 1", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
				{Name: "Then 2", Direction: graph.DirectionInput, Category: graph.CategoryExec},
			}},
			wantType: TypeSequence,
			wantName: "2 outputs",
		},
		{
			name: "sequence counts lowercase then pins",
			node: &graph.Node{Variants: []graph.Variant{graph.VariantSequence}, Pins: []*graph.Pin{
				{Name: "execute", Direction: graph.DirectionInput, Category: graph.CategoryExec},
				{Name: "then_0", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
				{Name: "then_1", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
				{Name: "Th", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
			}},
			wantType: TypeSequence,
			wantName: "2 outputs",
		},
		{
			name:     "generic uses list title",
			node:     &graph.Node{ClassName: "K2Node_Knot", ListTitle: "Reroute", FullTitle: "Reroute Node"},
			wantType: TypeNode,
			wantName: "Reroute",
		},
		{
			name:     "generic uses full title",
			node:     &graph.Node{ClassName: "K2Node_Knot", FullTitle: "Reroute Node"},
			wantType: TypeNode,
			wantName: "Reroute Node",
		},
		{
			name:     "generic uses class name",
			node:     &graph.Node{ClassName: "K2Node_Make_Struct"},
			wantType: TypeNode,
			wantName: "Make Struct",
		},
	}

	p := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ProcessSingleNode(tt.node)
			assert.Equal(t, tt.wantType, got.NodeType)
			assert.Equal(t, tt.wantName, got.DisplayName)
		})
	}
}

func TestProcessSingleNode_Nil(t *testing.T) {
	assert.Equal(t, ProcessedNodeData{}, New().ProcessSingleNode(nil))
}

func TestGenericType_KeywordTable(t *testing.T) {
	tests := []struct {
		class string
		want  string
	}{
		{"K2Node_PromotableOperator_Add", TypeMath},
		{"k2node_MATHexpression", TypeMath},
		{"K2Node_FormatText", TypeString},
		{"K2Node_MakeMap", TypeCollection},
		{"K2Node_DynamicCast", TypeValidation},
		{"K2Node_Timeline", TypeTiming},
		{"K2Node_CreateWidget", TypeUI},
		{"K2Node_PlaySound", TypeAudio},
		{"K2Node_Collision", TypePhysics},
		{"K2Node_Blackboard", TypeAI},
		{"K2Node_PlayMontage", TypeAnimation},
		{"K2Node_Knot", TypeNode},
		{"", TypeNode},
	}
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			assert.Equal(t, tt.want, genericType(tt.class))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	n := &graph.Node{Variants: []graph.Variant{graph.VariantSequence, graph.VariantBranch, graph.VariantCall}}
	assert.Equal(t, graph.VariantCall, Classify(n))
	assert.Equal(t, graph.VariantOther, Classify(&graph.Node{}))
}

func TestParameters_Placeholders(t *testing.T) {
	node := &graph.Node{
		ClassName: "K2Node_Knot",
		ListTitle: "Reroute",
		Pins: []*graph.Pin{
			{Name: "execute", Direction: graph.DirectionInput, Category: graph.CategoryExec},
			{Name: "Flag", Direction: graph.DirectionInput, Category: graph.CategoryBool},
			{Name: "Count", Direction: graph.DirectionInput, Category: graph.CategoryInt},
			{Name: "Scale", Direction: graph.DirectionInput, Category: graph.CategoryReal},
			{Name: "Label", Direction: graph.DirectionInput, Category: graph.CategoryText},
			{Name: "Target", Direction: graph.DirectionInput, Category: graph.CategoryObject},
			{Name: "Name", Direction: graph.DirectionInput, Category: graph.CategoryString, DefaultText: "Door"},
			{Name: "Out", Direction: graph.DirectionOutput, Category: graph.CategoryObject},
		},
	}

	got := New().PreprocessNodes([]*graph.Node{node})
	assert.Equal(t, `1. NODE: Reroute(Flag=false, Count=0, Scale=0, Label="", Target=<object>, Name=Door)`, got)
}

func TestParameters_LinkBeatsDefault(t *testing.T) {
	doc := decode(t, `{"nodes": [
		{"id": "c", "variants": ["call"], "function": {"name": "SetSpeed"}, "pins": [
			{"name": "Speed", "direction": "input", "category": "float", "default": "5", "links": ["g.Value"]},
			{"name": "Orphan", "direction": "input", "category": "float", "default": "7", "links": ["ghost.Value"]}
		]},
		{"id": "g", "variants": ["variable_get"], "title": "Get MaxSpeed", "pins": [
			{"name": "Value", "direction": "output", "category": "float"}
		]}
	]}`)

	data := New().ProcessSingleNode(doc.Nodes[0])
	speed, ok := data.Parameters.Get("Speed")
	require.True(t, ok)
	assert.Equal(t, "Connected(Get MaxSpeed)", speed)

	orphan, ok := data.Parameters.Get("Orphan")
	require.True(t, ok)
	assert.Equal(t, "Connected", orphan)
}

func TestLinkLabels_FallBackForUntitledNodes(t *testing.T) {
	doc := decode(t, `{"nodes": [
		{"id": "set", "variants": ["call"], "function": {"name": "SetSpeed"}, "pins": [
			{"name": "Speed", "direction": "input", "category": "float", "links": ["get.Value"]},
			{"name": "Target", "direction": "input", "category": "object", "links": ["knot.Out"]},
			{"name": "Label", "direction": "input", "category": "string", "links": ["bare.Out"]},
			{"name": "then", "direction": "output", "category": "exec", "links": ["full.execute"]}
		]},
		{"id": "get", "variants": ["variable_get"], "variable": "MaxSpeed", "pins": [
			{"name": "Value", "direction": "output", "category": "float"}
		]},
		{"id": "knot", "class": "K2Node_Knot", "pins": [
			{"name": "Out", "direction": "output", "category": "object"}
		]},
		{"id": "bare", "pins": [
			{"name": "Out", "direction": "output", "category": "string"}
		]},
		{"id": "full", "full_title": "Print String", "pins": [
			{"name": "execute", "direction": "input", "category": "exec"}
		]}
	]}`)

	data := New().ProcessSingleNode(doc.Nodes[0])
	assert.Equal(t, "Speed=Connected(MaxSpeed), Target=Connected(Knot), Label=Connected(bare)", data.Parameters.String())
	assert.Equal(t, []string{"Print String.execute"}, data.Connections)
}

func TestPreprocessNodes_SequenceLowercasePins(t *testing.T) {
	node := &graph.Node{Variants: []graph.Variant{graph.VariantSequence}, Pins: []*graph.Pin{
		{Name: "then_0", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
		{Name: "then_1", Direction: graph.DirectionOutput, Category: graph.CategoryExec},
	}}
	assert.Equal(t, "1. SEQUENCE: 2 outputs", New().PreprocessNodes([]*graph.Node{node}))
}

func TestParameters_DuplicateNamesKeepFirstPosition(t *testing.T) {
	node := &graph.Node{Pins: []*graph.Pin{
		{Name: "X", Direction: graph.DirectionInput, Category: graph.CategoryInt, DefaultValue: "1"},
		{Name: "Y", Direction: graph.DirectionInput, Category: graph.CategoryFloat},
		{Name: "X", Direction: graph.DirectionInput, Category: graph.CategoryInt, DefaultValue: "2"},
	}}

	data := New().ProcessSingleNode(node)
	assert.Equal(t, "X=2, Y=0", data.Parameters.String())
}

func TestConnections_RenderedOnlyWithConnections(t *testing.T) {
	doc := decode(t, `{"nodes": [
		{"id": "n1", "variants": ["event"], "event_member": "ReceiveBeginPlay", "comment": "Starts\nhere\t", "pins": [
			{"name": "then", "direction": "output", "category": "exec", "links": ["n2.execute"]}
		]},
		{"id": "n2", "variants": ["call"], "title": "Print String",
		 "function": {"name": "PrintString", "owner": "KismetSystemLibrary"}, "pins": [
			{"name": "execute", "direction": "input", "category": "exec"},
			{"name": "InString", "direction": "input", "category": "string", "default": "Hello"}
		]}
	]}`)

	p := New()
	data := p.ProcessNodes(doc.Nodes)
	require.Len(t, data, 2)
	assert.Equal(t, []string{"Print String.execute"}, data[0].Connections)
	assert.Empty(t, data[1].Connections)

	assert.Equal(t,
		"1. EVENT: ReceiveBeginPlay // Starts here\n2. CALL: KismetSystemLibrary.PrintString(InString=Hello)",
		p.PreprocessNodes(doc.Nodes))
	assert.Equal(t,
		"1. EVENT: ReceiveBeginPlay -> Print String.execute // Starts here\n2. CALL: KismetSystemLibrary.PrintString(InString=Hello)",
		p.PreprocessNodesWithConnections(doc.Nodes))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"  a\nb\r\tc  ", "a b  c"},
		{"\n\ttrailing\r\n", "trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got))
		})
	}
}

type countingObserver struct{ total int }

func (c *countingObserver) NodesFlattened(n int) { c.total += n }

func TestPreprocessor_ReportsFlattenedCount(t *testing.T) {
	obs := &countingObserver{}
	p := New(WithObserver(obs))

	p.ProcessNodes([]*graph.Node{nil, {ListTitle: "A"}, {ListTitle: "B"}})
	p.ProcessNodes(nil)
	assert.Equal(t, 2, obs.total)
}
