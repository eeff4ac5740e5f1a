// Package grounding decides whether a generated answer is supported by the
// context it was generated from.
package grounding

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/embedding"
)

const moduleName = "GROUNDING"

const (
	phraseWords           = 5
	minPhraseChars        = 10
	semanticThreshold     = 0.3
	minTermLength         = 4
	minSharedTerms        = 2
	hallucinationMean     = 0.1
	queryCoverageMin      = 0.2
	fallbackMinTermLength = 3
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Signals are the independent checks behind a grounding verdict.
type Signals struct {
	LexicalOverlap bool
	Semantic       bool
	TermOverlap    bool
	Hallucination  bool
	MeanSimilarity float64
}

// Grounded is true when any positive signal holds and no hallucination was detected.
func (s Signals) Grounded() bool {
	return (s.LexicalOverlap || s.Semantic || s.TermOverlap) && !s.Hallucination
}

// Report is the full outcome of Validate.
type Report struct {
	Signals           Signals
	Grounding         entity.ValidationStatus
	QueryAddressed    bool
	Consistent        bool
	ZeroHallucination bool
}

// Status folds the report into the status the pipeline stores.
func (r Report) Status() entity.ValidationStatus {
	if r.Grounding == entity.ValidationPassed && r.ZeroHallucination {
		return entity.ValidationPassed
	}
	return entity.ValidationFailed
}

type Validator struct {
	embedder Embedder
	logger   logger.ILogger
}

func NewValidator(embedder Embedder, log logger.ILogger) *Validator {
	return &Validator{embedder: embedder, logger: log}
}

// ValidateGrounding classifies resp as PASSED or FAILED against rc.
func (v *Validator) ValidateGrounding(ctx context.Context, query *entity.Query, rc *entity.RetrievedContext, resp *entity.Response) entity.ValidationStatus {
	status, _ := v.grounding(ctx, query, rc, resp)
	return status
}

// ValidateZeroHallucination is the stricter gate. It is false whenever
// grounding fails; its own sub-checks degrade to true on internal errors.
func (v *Validator) ValidateZeroHallucination(ctx context.Context, query *entity.Query, resp *entity.Response, rc *entity.RetrievedContext) bool {
	status, _ := v.grounding(ctx, query, rc, resp)
	if status != entity.ValidationPassed {
		return false
	}
	return v.queryAddressed(ctx, query, resp) && v.consistent(resp, rc)
}

// Validate runs both gates once and returns every signal.
func (v *Validator) Validate(ctx context.Context, query *entity.Query, resp *entity.Response, rc *entity.RetrievedContext) Report {
	status, signals := v.grounding(ctx, query, rc, resp)
	report := Report{Signals: signals, Grounding: status}
	if status != entity.ValidationPassed {
		return report
	}
	report.QueryAddressed = v.queryAddressed(ctx, query, resp)
	report.Consistent = v.consistent(resp, rc)
	report.ZeroHallucination = report.QueryAddressed && report.Consistent

	v.logger.Info(moduleName, "Answer validated", map[string]interface{}{
		"response_id":     resp.Id.String(),
		"lexical":         signals.LexicalOverlap,
		"semantic":        signals.Semantic,
		"terms":           signals.TermOverlap,
		"mean_similarity": signals.MeanSimilarity,
		"query_addressed": report.QueryAddressed,
		"status":          report.Status(),
	})
	return report
}

func (v *Validator) grounding(ctx context.Context, query *entity.Query, rc *entity.RetrievedContext, resp *entity.Response) (status entity.ValidationStatus, signals Signals) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error(moduleName, "Grounding validation panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
			status, signals = entity.ValidationFailed, Signals{}
		}
	}()

	texts := nonEmpty(rc)
	if len(texts) == 0 {
		v.logger.Warn(moduleName, "No context text available for grounding validation", nil)
		return entity.ValidationFailed, Signals{}
	}

	signals = v.Evaluate(ctx, resp.Content, texts)
	if signals.Grounded() {
		return entity.ValidationPassed, signals
	}

	details := map[string]interface{}{
		"lexical":         signals.LexicalOverlap,
		"semantic":        signals.Semantic,
		"terms":           signals.TermOverlap,
		"hallucination":   signals.Hallucination,
		"mean_similarity": signals.MeanSimilarity,
	}
	if query != nil {
		details["query_id"] = query.Id.String()
	}
	v.logger.Warn(moduleName, "Answer is not grounded in context", details)
	return entity.ValidationFailed, signals
}

// Evaluate computes every signal for answer against the context texts. The
// answer is embedded once and the chunks once, shared by the semantic and
// hallucination checks.
func (v *Validator) Evaluate(ctx context.Context, answer string, texts []string) Signals {
	s := Signals{
		LexicalOverlap: LexicalOverlap(answer, texts),
		TermOverlap:    TermOverlap(answer, texts),
	}

	answerVec, err := v.embedder.Embed(ctx, answer)
	if err != nil {
		// Without an answer vector neither embedding check can run; the
		// hallucination heuristic then assumes nothing was invented.
		v.logger.Warn(moduleName, "Could not embed answer", map[string]interface{}{"error": err.Error()})
		return s
	}

	chunkVecs, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		v.logger.Warn(moduleName, "Could not embed context chunks", map[string]interface{}{"error": err.Error()})
	}

	var sum float64
	var n int
	for _, cv := range chunkVecs {
		if cv == nil {
			continue
		}
		sim := embedding.CosineSimilarity(answerVec, cv)
		if sim >= semanticThreshold {
			s.Semantic = true
		}
		sum += sim
		n++
	}
	if n == 0 {
		s.Hallucination = true
		return s
	}
	s.MeanSimilarity = sum / float64(n)
	s.Hallucination = s.MeanSimilarity < hallucinationMean
	return s
}

// LexicalOverlap reports whether any five-word phrase of answer longer than
// ten characters appears verbatim in a context text.
func LexicalOverlap(answer string, texts []string) bool {
	words := strings.Fields(strings.ToLower(answer))
	if len(words) < phraseWords {
		return false
	}
	lowered := make([]string, len(texts))
	for i, t := range texts {
		lowered[i] = strings.ToLower(t)
	}
	for i := 0; i+phraseWords <= len(words); i++ {
		phrase := strings.Join(words[i:i+phraseWords], " ")
		if utf8.RuneCountInString(phrase) <= minPhraseChars {
			continue
		}
		for _, t := range lowered {
			if strings.Contains(t, phrase) {
				return true
			}
		}
	}
	return false
}

// TermOverlap reports whether one context text shares at least two
// distinct longer terms with answer.
func TermOverlap(answer string, texts []string) bool {
	answerTerms := wordSet(answer)
	for _, t := range texts {
		shared := 0
		for term := range wordSet(t) {
			if utf8.RuneCountInString(term) <= minTermLength {
				continue
			}
			if _, stop := stopWords[term]; stop {
				continue
			}
			if _, ok := answerTerms[term]; ok {
				shared++
				if shared >= minSharedTerms {
					return true
				}
			}
		}
	}
	return false
}

func (v *Validator) queryAddressed(ctx context.Context, query *entity.Query, resp *entity.Response) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error(moduleName, "Query coverage check panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			ok = true
		}
	}()

	qVec, qErr := v.embedder.Embed(ctx, query.Content)
	rVec, rErr := v.embedder.Embed(ctx, resp.Content)
	if qErr != nil || rErr != nil {
		return sharesTerm(query.Content, resp.Content)
	}
	return embedding.CosineSimilarity(qVec, rVec) > queryCoverageMin
}

func (v *Validator) consistent(resp *entity.Response, rc *entity.RetrievedContext) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error(moduleName, "Consistency check panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			ok = true
		}
	}()

	answer := strings.ToLower(resp.Content)
	var hits []string
	for _, t := range nonEmpty(rc) {
		lower := strings.ToLower(t)
		for _, p := range contradictionPairs {
			if strings.Contains(lower, p[0]) && strings.Contains(answer, p[1]) {
				hits = append(hits, p[0]+"/"+p[1])
			}
		}
	}
	if len(hits) > 0 {
		v.logger.Debug(moduleName, "Possible contradiction indicators", map[string]interface{}{
			"response_id": resp.Id.String(),
			"pairs":       hits,
		})
	}
	return true
}

func sharesTerm(a, b string) bool {
	other := wordSet(b)
	for term := range wordSet(a) {
		if utf8.RuneCountInString(term) <= fallbackMinTermLength {
			continue
		}
		if _, ok := other[term]; ok {
			return true
		}
	}
	return false
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = struct{}{}
	}
	return out
}

func nonEmpty(rc *entity.RetrievedContext) []string {
	var out []string
	for _, t := range rc.Texts() {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
