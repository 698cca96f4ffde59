package flatten

import (
	"strconv"
	"strings"
)

// FormatOutput renders one line per node:
//
//	<index>. <TYPE>[: <DisplayName>][(<params>)][ // <Comment>]
//
// Lines are joined with "\n" and there is no trailing newline. Connections
// are not rendered; see FormatOutputWithConnections.
func FormatOutput(nodes []ProcessedNodeData) string {
	return format(nodes, false)
}

// FormatOutputWithConnections is FormatOutput with " -> c1, c2" inserted
// before the comment of every node that has outbound links.
func FormatOutputWithConnections(nodes []ProcessedNodeData) string {
	return format(nodes, true)
}

func format(nodes []ProcessedNodeData, connections bool) string {
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(n.NodeType)
		if n.DisplayName != "" {
			b.WriteString(": ")
			b.WriteString(n.DisplayName)
		}
		if len(n.Parameters) > 0 {
			b.WriteByte('(')
			b.WriteString(n.Parameters.String())
			b.WriteByte(')')
		}
		if connections && len(n.Connections) > 0 {
			b.WriteString(" -> ")
			b.WriteString(strings.Join(n.Connections, ", "))
		}
		if n.Comment != "" {
			b.WriteString(" // ")
			b.WriteString(n.Comment)
		}
	}
	return b.String()
}
