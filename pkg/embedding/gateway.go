package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"book-rag-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNoVector is returned when no configured provider produced a usable vector.
var ErrNoVector = errors.New("embedding: no vector")

const moduleName = "EMBEDDING"

// Gateway fronts an ordered list of providers. Embed is used for probes
// (queries, answers); EmbedBatch for corpus text.
type Gateway struct {
	providers []NamedProvider
	cache     *cache.Cache
	limiter   *rate.Limiter
	dimension int
	fanOut    int
	logger    logger.ILogger
}

type GatewayOption func(*Gateway)

// WithCache memoizes vectors by task type and text.
func WithCache(ttl time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.cache = cache.New(ttl, 2*ttl)
	}
}

// WithRateLimit throttles provider calls; perSecond <= 0 disables it.
func WithRateLimit(perSecond float64) GatewayOption {
	return func(g *Gateway) {
		if perSecond <= 0 {
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithDimension rejects vectors whose length differs from dim.
func WithDimension(dim int) GatewayOption {
	return func(g *Gateway) {
		g.dimension = dim
	}
}

// WithFanOut bounds concurrent single-text calls in the batch fallback.
func WithFanOut(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.fanOut = n
		}
	}
}

func NewGateway(log logger.ILogger, providers []NamedProvider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		fanOut:    4,
		logger:    log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Embed returns the first usable vector from the provider chain.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return g.embedOne(ctx, text, TaskRetrievalQuery)
}

// EmbedBatch returns one slot per input. Slots whose text could not be
// embedded are nil; the call fails only when every slot is nil.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	var missing []int
	for i, t := range texts {
		if v, ok := g.cached(TaskRetrievalDocument, t); ok {
			out[i] = v
			continue
		}
		if strings.TrimSpace(t) != "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return out, g.checkAny(out)
	}

	if g.batchFill(ctx, texts, missing, out) {
		return out, nil
	}

	// Per-item fallback for whatever the batch providers left empty.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.fanOut)
	for _, idx := range missing {
		if out[idx] != nil {
			continue
		}
		idx := idx
		eg.Go(func() error {
			v, err := g.embedOne(egCtx, texts[idx], TaskRetrievalDocument)
			if err == nil {
				out[idx] = v
			}
			return nil
		})
	}
	_ = eg.Wait()

	return out, g.checkAny(out)
}

// batchFill reports whether every missing slot was filled by a batch provider.
func (g *Gateway) batchFill(ctx context.Context, texts []string, missing []int, out [][]float32) bool {
	inputs := make([]string, len(missing))
	for i, idx := range missing {
		inputs[i] = texts[idx]
	}

	for _, np := range g.providers {
		bp, ok := np.Provider.(BatchProvider)
		if !ok {
			continue
		}
		if err := g.wait(ctx); err != nil {
			return false
		}
		resps, err := bp.GenerateBatch(ctx, inputs, TaskRetrievalDocument)
		if err != nil || len(resps) != len(inputs) {
			g.logger.Warn(moduleName, "Batch embedding failed, trying next provider", map[string]interface{}{
				"provider": np.Name,
				"inputs":   len(inputs),
				"error":    errString(err),
			})
			continue
		}

		complete := true
		for i, r := range resps {
			if r == nil || !g.usable(r.Embedding.Values) {
				complete = false
				continue
			}
			out[missing[i]] = r.Embedding.Values
			g.store(TaskRetrievalDocument, inputs[i], r.Embedding.Values)
		}
		if complete {
			return true
		}
	}
	return false
}

func (g *Gateway) embedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrNoVector)
	}
	if v, ok := g.cached(taskType, text); ok {
		return v, nil
	}

	var errs []error
	for _, np := range g.providers {
		if err := g.wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		resp, err := np.Provider.Generate(ctx, text, taskType)
		if err == nil && resp != nil && g.usable(resp.Embedding.Values) {
			g.store(taskType, text, resp.Embedding.Values)
			return resp.Embedding.Values, nil
		}
		if err == nil {
			err = fmt.Errorf("provider %s returned an unusable vector", np.Name)
		}
		errs = append(errs, fmt.Errorf("%s: %w", np.Name, err))
		g.logger.Warn(moduleName, "Embedding provider failed", map[string]interface{}{
			"provider": np.Name,
			"error":    err.Error(),
		})
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrNoVector)
	}
	return nil, fmt.Errorf("%w: %v", ErrNoVector, errors.Join(errs...))
}

func (g *Gateway) usable(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	return g.dimension <= 0 || len(v) == g.dimension
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return ctx.Err()
	}
	return g.limiter.Wait(ctx)
}

func (g *Gateway) checkAny(out [][]float32) error {
	for _, v := range out {
		if v != nil {
			return nil
		}
	}
	return ErrNoVector
}

func cacheKey(taskType, text string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (g *Gateway) cached(taskType, text string) ([]float32, bool) {
	if g.cache == nil {
		return nil, false
	}
	if v, found := g.cache.Get(cacheKey(taskType, text)); found {
		return v.([]float32), true
	}
	return nil, false
}

func (g *Gateway) store(taskType, text string, v []float32) {
	if g.cache == nil {
		return
	}
	g.cache.Set(cacheKey(taskType, text), v, cache.DefaultExpiration)
}

func errString(err error) string {
	if err == nil {
		return "length mismatch"
	}
	return err.Error()
}
