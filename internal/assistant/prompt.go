package assistant

import "fmt"

const (
	selectedTemplate = "Given the following Unreal Engine Blueprint nodes from Blueprint '%s', summarize their collective purpose and, " +
		"Please respond in this exact format :  DETAILS: [summarise the selected nodes in user-friendly manner] \n" +
		"SUMMARY: [concise one-line summary]. Blueprint Graph Nodes Data: %s\nUser Query: %s"

	wholeGraphTemplate = "Summarize the main purpose of the Blueprint named '%s'. " +
		"Please respond in this exact format :  DETAILS: [summarise the blueprint in a user-friendly manner with important information.] \n" +
		"SUMMARY: [concise one-line summary]. Blueprint Graph Data: %s\nUser Query: %s"

	plainTextSuffix = "\nRespond as if you're writing for a basic text display that cannot render formatting - " +
		"use only letters, numbers, basic punctuation, and spaces."
)

// BuildPrompt wraps flattened node text and the user's query in the
// instruction template. wholeGraph selects the template used when nothing
// is selected.
func BuildPrompt(docName, nodesText, query string, wholeGraph bool) string {
	tmpl := selectedTemplate
	if wholeGraph {
		tmpl = wholeGraphTemplate
	}
	return fmt.Sprintf(tmpl, docName, nodesText, query) + plainTextSuffix
}
