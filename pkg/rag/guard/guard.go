// Package guard checks user input and generated output before they enter or
// leave the pipeline.
package guard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"book-rag-be/internal/entity"
)

type Limits struct {
	MaxQueryLength    int
	MaxResponseLength int
	MinPassageLength  int
}

func DefaultLimits() Limits {
	return Limits{
		MaxQueryLength:    1000,
		MaxResponseLength: 2000,
		MinPassageLength:  10,
	}
}

var (
	queryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
	}
	responsePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script`),
		regexp.MustCompile(`(?i)javascript:`),
	}
)

// ValidationError lists every problem found in one input.
type ValidationError struct {
	Field    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, strings.Join(e.Problems, "; "))
}

type Guard struct {
	limits Limits
}

func New(limits Limits) *Guard {
	d := DefaultLimits()
	if limits.MaxQueryLength <= 0 {
		limits.MaxQueryLength = d.MaxQueryLength
	}
	if limits.MaxResponseLength <= 0 {
		limits.MaxResponseLength = d.MaxResponseLength
	}
	if limits.MinPassageLength <= 0 {
		limits.MinPassageLength = d.MinPassageLength
	}
	return &Guard{limits: limits}
}

func (g *Guard) Limits() Limits { return g.limits }

// CheckQuery returns nil when text is a usable question.
func (g *Guard) CheckQuery(text string) error {
	var problems []string
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		problems = append(problems, "query content cannot be empty")
	}
	if n := utf8.RuneCountInString(trimmed); n > g.limits.MaxQueryLength {
		problems = append(problems, fmt.Sprintf("query content exceeds maximum length of %d characters", g.limits.MaxQueryLength))
	}
	if matchesAny(queryPatterns, text) {
		problems = append(problems, "query content contains disallowed patterns")
	}
	if len(problems) > 0 {
		return &ValidationError{Field: "query", Problems: problems}
	}
	return nil
}

// CheckPassage returns nil when passage is long enough to anchor retrieval.
func (g *Guard) CheckPassage(passage *string) error {
	if passage == nil || strings.TrimSpace(*passage) == "" {
		return &ValidationError{Field: "selected_text", Problems: []string{"selected text is required"}}
	}
	if utf8.RuneCountInString(strings.TrimSpace(*passage)) < g.limits.MinPassageLength {
		return &ValidationError{
			Field:    "selected_text",
			Problems: []string{fmt.Sprintf("selected text must be at least %d characters", g.limits.MinPassageLength)},
		}
	}
	return nil
}

// ValidateResponseContent checks generated text before it is returned.
func (g *Guard) ValidateResponseContent(content string) []string {
	var problems []string
	if strings.TrimSpace(content) == "" {
		problems = append(problems, "response content cannot be empty")
	}
	if utf8.RuneCountInString(content) > g.limits.MaxResponseLength {
		problems = append(problems, fmt.Sprintf("response content exceeds maximum length of %d characters", g.limits.MaxResponseLength))
	}
	if matchesAny(responsePatterns, content) {
		problems = append(problems, "response content contains potentially unsafe patterns")
	}
	return problems
}

// ValidateSourceAttribution requires a locator and a snippet on every reference.
func (g *Guard) ValidateSourceAttribution(refs []entity.SourceReference) []string {
	var problems []string
	for i, ref := range refs {
		if strings.TrimSpace(ref.Reference) == "" {
			problems = append(problems, fmt.Sprintf("source reference %d is missing a locator", i))
		}
		if strings.TrimSpace(ref.Text) == "" {
			problems = append(problems, fmt.Sprintf("source reference %d is missing text", i))
		}
	}
	return problems
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
