// Package extractive answers from the prompt itself: it returns the context
// sentences that share the most terms with the question. It needs no model
// and is used for offline runs and tests.
package extractive

import (
	"context"
	"sort"
	"strings"

	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/utils"
)

var contextMarkers = []string{"Context:", "Selected Text:"}

const (
	questionMarker = "Question:"
	answerMarker   = "Answer:"
	maxSentences   = 2
)

type Provider struct{}

var _ llm.LLMProvider = (*Provider)(nil)

func NewProvider() *Provider { return &Provider{} }

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var prompt string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			prompt = history[i].Content
			break
		}
	}
	return answer(prompt), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func answer(prompt string) string {
	ctxText, question := split(prompt)
	sentences := sentencesOf(ctxText)
	if len(sentences) == 0 {
		return ""
	}

	qTerms := map[string]struct{}{}
	for _, t := range utils.ContentTokens(question) {
		qTerms[t] = struct{}{}
	}

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		n := 0
		for _, t := range utils.ContentTokens(s) {
			if _, ok := qTerms[t]; ok {
				n++
			}
		}
		ranked[i] = scored{idx: i, score: n}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	n := maxSentences
	if n > len(ranked) {
		n = len(ranked)
	}
	picked := make([]int, 0, n)
	for _, r := range ranked[:n] {
		picked = append(picked, r.idx)
	}
	sort.Ints(picked)

	parts := make([]string, 0, n)
	for _, i := range picked {
		parts = append(parts, sentences[i])
	}
	return strings.Join(parts, " ")
}

func split(prompt string) (string, string) {
	ctxText := prompt
	question := ""
	for _, m := range contextMarkers {
		if i := strings.Index(prompt, m); i >= 0 {
			ctxText = prompt[i+len(m):]
			break
		}
	}
	if i := strings.LastIndex(ctxText, questionMarker); i >= 0 {
		question = ctxText[i+len(questionMarker):]
		ctxText = ctxText[:i]
	}
	if i := strings.Index(question, answerMarker); i >= 0 {
		question = question[:i]
	}
	return strings.TrimSpace(ctxText), strings.TrimSpace(question)
}

func sentencesOf(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		if r == '\n' {
			flush()
			continue
		}
		b.WriteRune(r)
		if r == '.' || r == '?' || r == '!' {
			flush()
		}
	}
	flush()
	return out
}
