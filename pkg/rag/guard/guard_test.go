package guard

import (
	"strings"
	"testing"

	"book-rag-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestCheckQuery(t *testing.T) {
	g := New(DefaultLimits())

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "plain question", text: "What is a RAG system?"},
		{name: "empty", text: "", wantErr: true},
		{name: "whitespace", text: "   \n\t", wantErr: true},
		{name: "exactly max", text: strings.Repeat("a", 1000)},
		{name: "one over max", text: strings.Repeat("a", 1001), wantErr: true},
		{name: "multibyte at max", text: strings.Repeat("é", 1000)},
		{name: "script tag", text: "hello <SCRIPT>alert(1)</script>", wantErr: true},
		{name: "javascript url", text: "javascript:alert(1)", wantErr: true},
		{name: "event handler", text: `<img onerror = "x">`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckQuery(tt.text)
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.NotEmpty(t, verr.Problems)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckPassage(t *testing.T) {
	g := New(DefaultLimits())

	tests := []struct {
		name    string
		passage *string
		wantErr bool
	}{
		{name: "missing", passage: nil, wantErr: true},
		{name: "blank", passage: ptr("    "), wantErr: true},
		{name: "short", passage: ptr("short"), wantErr: true},
		{name: "padded short", passage: ptr("   short   "), wantErr: true},
		{name: "exactly ten", passage: ptr("0123456789")},
		{name: "long", passage: ptr("RAG combines retrieval with generation.")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckPassage(tt.passage)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateResponseContent(t *testing.T) {
	g := New(Limits{MaxResponseLength: 20})

	assert.Empty(t, g.ValidateResponseContent("a short answer"))
	assert.NotEmpty(t, g.ValidateResponseContent(""))
	assert.NotEmpty(t, g.ValidateResponseContent(strings.Repeat("x", 21)))
	assert.NotEmpty(t, g.ValidateResponseContent("<script>x"))
}

func TestValidateSourceAttribution(t *testing.T) {
	g := New(DefaultLimits())

	ok := []entity.SourceReference{{Reference: "Chapter 1", Text: "RAG is"}}
	assert.Empty(t, g.ValidateSourceAttribution(ok))

	bad := []entity.SourceReference{{Reference: "", Text: "RAG is"}, {Reference: "Chapter 1", Text: " "}}
	assert.Len(t, g.ValidateSourceAttribution(bad), 2)
}
