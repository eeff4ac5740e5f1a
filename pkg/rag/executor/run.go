package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/events"
	"book-rag-be/pkg/metrics"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/guard"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// run carries the bookkeeping of one pipeline invocation.
type run struct {
	p         *Pipeline
	ctx       context.Context
	log       logger.ILogger
	span      trace.Span
	mode      entity.ContextMode
	started   time.Time
	trail     []State
	sessionId uuid.UUID
	query     *entity.Query
	response  *entity.Response
	report    *grounding.Report
}

func (p *Pipeline) begin(ctx context.Context, req Request) *run {
	ctx, span := p.tracer.Start(ctx, "rag.pipeline",
		trace.WithAttributes(attribute.String("rag.context_mode", string(req.Mode))),
	)
	return &run{p: p, ctx: ctx, log: logger.Traced(p.logger, ctx), span: span, mode: req.Mode, started: p.now()}
}

func (r *run) enter(s State) {
	r.trail = append(r.trail, s)
	r.span.AddEvent(string(s))
}

func (r *run) state() State {
	if len(r.trail) == 0 {
		return ""
	}
	return r.trail[len(r.trail)-1]
}

func (r *run) end() {
	state := r.state()
	metrics.ObservePipeline(string(r.mode), string(state), r.p.now().Sub(r.started))
	r.span.SetAttributes(attribute.String("rag.terminal_state", string(state)))
	r.span.End()
}

// guarded runs one stage body, turning a panic into an error.
func (r *run) guarded(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error(moduleName, "Pipeline stage panicked", map[string]interface{}{
				"stage": string(r.state()),
				"panic": fmt.Sprint(rec),
			})
			err = fmt.Errorf("stage %s panicked: %v", r.state(), rec)
		}
	}()
	return fn()
}

func (r *run) reject(err error) (*Result, error) {
	r.enter(StateRejected)
	r.span.SetStatus(codes.Error, "input rejected")

	var problems []string
	var verr *guard.ValidationError
	if errors.As(err, &verr) {
		problems = verr.Problems
	}
	r.log.Info(moduleName, "Query rejected", map[string]interface{}{
		"context_mode": string(r.mode),
		"problems":     problems,
	})
	r.p.publish(r.ctx, events.QueryRejected(string(r.mode), problems))

	return r.result(), fmt.Errorf("%w: %w", ErrInputRejected, err)
}

func (r *run) fail(terminal State, err error) (*Result, error) {
	r.enter(terminal)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, string(terminal))

	details := map[string]interface{}{
		"state": string(terminal),
		"error": err.Error(),
	}
	if r.query != nil {
		details["query_id"] = r.query.Id.String()
	}
	r.log.Error(moduleName, "Pipeline produced no answer", details)

	return r.result(), fmt.Errorf("%w: %s: %w", ErrNoAnswer, terminal, err)
}

func (r *run) result() *Result {
	return &Result{
		Response:  r.response,
		Query:     r.query,
		SessionId: r.sessionId,
		State:     r.state(),
		Trail:     append([]State(nil), r.trail...),
		Report:    r.report,
	}
}
