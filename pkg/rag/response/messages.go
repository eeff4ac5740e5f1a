package response

// Fixed replies used when no model answer is produced.
const (
	AbstainMessage     = "I cannot find relevant information in the book to answer this question."
	QualityGateMessage = "The retrieved context does not meet quality requirements to generate a reliable answer."

	PassageReference = "Selected Text Provided by User"
)

const snippetLimit = 200

// Snippet shortens text to snippetLimit runes, marking the cut with "...".
func Snippet(text string) string {
	r := []rune(text)
	if len(r) <= snippetLimit {
		return text
	}
	return string(r[:snippetLimit]) + "..."
}
