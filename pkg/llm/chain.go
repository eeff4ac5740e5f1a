package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"book-rag-be/internal/pkg/logger"
)

const moduleName = "LLM"

type NamedProvider struct {
	Name     string
	Provider LLMProvider
}

// Chain tries providers in order and returns the first non-empty answer.
type Chain struct {
	providers []NamedProvider
	logger    logger.ILogger
}

var _ LLMProvider = (*Chain)(nil)

func NewChain(log logger.ILogger, providers ...NamedProvider) *Chain {
	return &Chain{providers: providers, logger: log}
}

func (c *Chain) Len() int { return len(c.providers) }

func (c *Chain) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	var errs []error
	for _, np := range c.providers {
		out, err := np.Provider.Chat(ctx, history, options...)
		if err == nil && strings.TrimSpace(out) != "" {
			return out, nil
		}
		if err == nil {
			err = errors.New("empty completion")
		}
		errs = append(errs, fmt.Errorf("%s: %w", np.Name, err))
		c.logger.Warn(moduleName, "LLM provider failed, trying next", map[string]interface{}{
			"provider": np.Name,
			"error":    err.Error(),
		})
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no providers configured", ErrNoCompletion)
	}
	return "", fmt.Errorf("%w: %v", ErrNoCompletion, errors.Join(errs...))
}

func (c *Chain) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}
