package response

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/llm"
	"book-rag-be/pkg/rag/guard"
	"book-rag-be/pkg/rag/prompt"

	"github.com/google/uuid"
)

const moduleName = "GENERATOR"

var (
	ErrGenerationFailed = errors.New("generation: no answer produced")
	ErrEmptyContext     = errors.New("generation: context has no chunks")
)

var (
	pagePattern    = regexp.MustCompile(`(?i)page\s*:?\s*(\d+)`)
	chapterPattern = regexp.MustCompile(`(?i)chapter\s*:?\s*([^\s,/#()]+)`)
	sectionPattern = regexp.MustCompile(`(?i)section\s*:?\s*([^\s,/#()]+)`)
)

type Options struct {
	MaxTokens   int
	Temperature float64
}

func DefaultOptions() Options {
	return Options{MaxTokens: 500, Temperature: 0.3}
}

type Generator struct {
	llmProvider llm.LLMProvider
	guard       *guard.Guard
	opts        Options
	logger      logger.ILogger
	now         func() time.Time
}

func NewGenerator(llmProvider llm.LLMProvider, g *guard.Guard, opts Options, log logger.ILogger) *Generator {
	d := DefaultOptions()
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = d.MaxTokens
	}
	if opts.Temperature < 0 {
		opts.Temperature = d.Temperature
	}
	return &Generator{
		llmProvider: llmProvider,
		guard:       g,
		opts:        opts,
		logger:      log,
		now:         time.Now,
	}
}

// Generate answers query from the retrieved chunks. The response comes back
// PENDING; one reference is built per chunk, in context order.
func (g *Generator) Generate(ctx context.Context, query *entity.Query, rc *entity.RetrievedContext) (*entity.Response, error) {
	if rc.IsEmpty() {
		return nil, ErrEmptyContext
	}

	text, err := g.complete(ctx, prompt.BuildFromChunks(query.Content, rc.Texts()))
	if err != nil {
		g.logger.Error(moduleName, "Failed to generate answer from context", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	refs := make([]entity.SourceReference, 0, len(rc.Chunks))
	for _, c := range rc.Chunks {
		refs = append(refs, referenceFromChunk(c, rc.Id))
	}

	g.logger.Info(moduleName, "Answer generated", map[string]interface{}{
		"query_id":   query.Id.String(),
		"chunks":     len(rc.Chunks),
		"references": len(refs),
	})
	return g.newResponse(query, text, refs), nil
}

// GenerateFromSelectedPassage answers from the user's passage alone.
func (g *Generator) GenerateFromSelectedPassage(ctx context.Context, query *entity.Query, passage string) (*entity.Response, error) {
	text, err := g.complete(ctx, prompt.BuildFromPassage(query.Content, passage))
	if err != nil {
		g.logger.Error(moduleName, "Failed to generate answer from selected passage", map[string]interface{}{
			"query_id": query.Id.String(),
			"error":    err.Error(),
		})
		return nil, err
	}

	relevance := 1.0
	refs := []entity.SourceReference{{
		Reference:      PassageReference,
		Text:           Snippet(passage),
		RelevanceScore: &relevance,
	}}
	return g.newResponse(query, text, refs), nil
}

// ScoreContentValidity is the cheap local check: content and attribution
// rules, then a first-ten-words overlap heuristic against the context.
func (g *Generator) ScoreContentValidity(resp *entity.Response, rc *entity.RetrievedContext) entity.ValidationStatus {
	problems := append(g.guard.ValidateResponseContent(resp.Content), g.guard.ValidateSourceAttribution(resp.SourceReferences)...)
	if len(problems) > 0 {
		g.logger.Warn(moduleName, "Response failed content checks", map[string]interface{}{
			"response_id": resp.Id.String(),
			"problems":    problems,
		})
		return entity.ValidationFailed
	}
	if rc == nil {
		return entity.ValidationPassed
	}

	lower := strings.ToLower(resp.Content)
	mentioned := false
	nonEmpty := false
	for _, text := range rc.Texts() {
		chunk := strings.ToLower(text)
		if chunk != "" {
			nonEmpty = true
		}
		words := strings.Fields(chunk)
		if len(words) <= 10 {
			continue
		}
		for _, w := range words[:10] {
			if strings.Contains(lower, w) {
				mentioned = true
				break
			}
		}
		if mentioned {
			break
		}
	}

	if !mentioned && nonEmpty {
		g.logger.Warn(moduleName, "Response may not be grounded in context", map[string]interface{}{
			"response_id": resp.Id.String(),
		})
		return entity.ValidationFailed
	}
	return entity.ValidationPassed
}

// FixedResponse builds a reply that did not come from the model.
func (g *Generator) FixedResponse(query *entity.Query, message string, status entity.ValidationStatus) *entity.Response {
	resp := g.newResponse(query, message, []entity.SourceReference{})
	resp.ValidationStatus = status
	return resp
}

func (g *Generator) complete(ctx context.Context, userPrompt string) (string, error) {
	out, err := g.llmProvider.Chat(ctx, prompt.Messages(userPrompt),
		llm.WithMaxTokens(g.opts.MaxTokens),
		llm.WithTemperature(g.opts.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}
	return out, nil
}

func (g *Generator) newResponse(query *entity.Query, text string, refs []entity.SourceReference) *entity.Response {
	return &entity.Response{
		Id:               uuid.New(),
		QueryId:          query.Id,
		Content:          text,
		SourceReferences: refs,
		CreatedAt:        g.now(),
		ValidationStatus: entity.ValidationPending,
	}
}

func referenceFromChunk(c entity.ContentChunk, contextId uuid.UUID) entity.SourceReference {
	ref := entity.SourceReference{
		Reference: c.SourceReference,
		Text:      Snippet(c.Text),
	}
	if c.RelevanceScore != nil {
		score := *c.RelevanceScore
		ref.RelevanceScore = &score
	}

	contentId := c.ContentId
	if contentId == "" {
		contentId = contextId.String()
	}
	ref.ContentId = &contentId

	ref.PageNumber, ref.Chapter, ref.Section = ParseLocator(c.SourceReference)
	return ref
}

// ParseLocator pulls page, chapter and section tokens out of a locator.
func ParseLocator(locator string) (page *int, chapter *string, section *string) {
	if m := pagePattern.FindStringSubmatch(locator); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			page = &n
		}
	}
	if m := chapterPattern.FindStringSubmatch(locator); m != nil {
		v := m[1]
		chapter = &v
	}
	if m := sectionPattern.FindStringSubmatch(locator); m != nil {
		v := m[1]
		section = &v
	}
	return page, chapter, section
}
