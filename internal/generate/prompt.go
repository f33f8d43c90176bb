package generate

import "strings"

const (
	promptInstruction = "Based on the following contexts, answer the question."
	contextsHeader    = "Contexts:"
	questionLabel     = "Question: "
	answerLabel       = "Answer:"
)

// BuildPrompt assembles the instruction, the retrieved chunks joined
// by single spaces, and the question into one prompt. Chunks are
// undifferentiated context: no separators, no source markers.
func BuildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString(promptInstruction)
	b.WriteString("\n\n")
	b.WriteString(contextsHeader)
	b.WriteString("\n")
	b.WriteString(strings.Join(contexts, " "))
	b.WriteString("\n\n")
	b.WriteString(questionLabel)
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(answerLabel)
	return b.String()
}
