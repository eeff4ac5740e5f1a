package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ContextMode string

const (
	ContextModeFullCorpus      ContextMode = "FULL_CORPUS"
	ContextModeSelectedPassage ContextMode = "SELECTED_PASSAGE"
)

// ParseContextMode falls back to FULL_CORPUS for anything unrecognized.
func ParseContextMode(s string) ContextMode {
	switch ContextMode(s) {
	case ContextModeSelectedPassage:
		return ContextModeSelectedPassage
	default:
		return ContextModeFullCorpus
	}
}

type Query struct {
	Id               uuid.UUID
	SessionId        uuid.UUID
	Content          string
	ContextMode      ContextMode
	SelectedText     *string
	CreatedAt        time.Time
	SourceReferences []SourceReference
}

// Passage returns the selected passage and whether it has any non-blank text.
func (q *Query) Passage() (string, bool) {
	if q == nil || q.SelectedText == nil {
		return "", false
	}
	return *q.SelectedText, strings.TrimSpace(*q.SelectedText) != ""
}
