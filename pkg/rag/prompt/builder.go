package prompt

import (
	"strings"

	"book-rag-be/pkg/llm"
)

// SystemInstruction constrains the model to the supplied context.
const SystemInstruction = "You are a helpful assistant that answers questions based only on the provided context. " +
	"Your answers must be grounded in the provided context and you should not hallucinate information. " +
	"If the answer cannot be found in the context, please say so."

const (
	contextInstruction = "You are a helpful assistant that answers questions based only on the provided context.\n" +
		"Your answers must be grounded in the provided context and you should not hallucinate information.\n" +
		"If the answer cannot be found in the context, please say so."
	passageInstruction = "You are a helpful assistant that answers questions based only on the provided selected text.\n" +
		"Your answers must be grounded in the provided selected text and you should not hallucinate information.\n" +
		"If the answer cannot be found in the selected text, please say so."

	ContextLabel     = "Context:"
	PassageLabel     = "Selected Text:"
	contextSeparator = "\n\n"
)

// BuildFromChunks joins chunk texts, in order, into one context block.
func BuildFromChunks(question string, chunks []string) string {
	return build(contextInstruction, ContextLabel, strings.Join(chunks, contextSeparator), question)
}

// BuildFromPassage uses a user supplied passage verbatim as the context block.
func BuildFromPassage(question, passage string) string {
	return build(passageInstruction, PassageLabel, passage, question)
}

// Messages wraps a user prompt with the system instruction.
func Messages(userPrompt string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemInstruction},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}

func build(instruction, label, contextBlock, question string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString(label)
	b.WriteString("\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
