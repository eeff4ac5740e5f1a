package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/logger"
	"book-rag-be/pkg/events"
	"book-rag-be/pkg/metrics"
	"book-rag-be/pkg/rag/grounding"
	"book-rag-be/pkg/rag/guard"
	"book-rag-be/pkg/rag/ledger"
	"book-rag-be/pkg/rag/response"
	"book-rag-be/pkg/rag/retrieval"
	"book-rag-be/pkg/rag/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "PIPELINE"

var (
	// ErrInputRejected wraps the *guard.ValidationError that stopped the run.
	ErrInputRejected = errors.New("pipeline: input rejected")
	// ErrNoAnswer means the input was fine but no response could be produced.
	ErrNoAnswer = errors.New("pipeline: no answer produced")
)

type Request struct {
	Text         string
	Mode         entity.ContextMode
	SelectedText *string
	SessionId    *uuid.UUID
	UserId       *uuid.UUID
	// SkipGroundingValidation swaps the full grounding check for the cheap
	// content validity score.
	SkipGroundingValidation bool
}

type Result struct {
	Response  *entity.Response
	Query     *entity.Query
	SessionId uuid.UUID
	State     State
	Trail     []State
	Report    *grounding.Report
}

type Config struct {
	TopKFullCorpus      int
	TopKSelectedPassage int
	MinChunks           int
}

func DefaultConfig() Config {
	return Config{
		TopKFullCorpus:      retrieval.DefaultTopKFullCorpus,
		TopKSelectedPassage: retrieval.DefaultTopKSelectedPassage,
		MinChunks:           1,
	}
}

type Pipeline struct {
	guard     *guard.Guard
	sessions  *session.Registry
	ledger    ledger.Ledger
	retriever *retrieval.Retriever
	generator *response.Generator
	validator *grounding.Validator
	publisher events.Publisher
	cfg       Config
	tracer    trace.Tracer
	logger    logger.ILogger
	now       func() time.Time
}

type Deps struct {
	Guard     *guard.Guard
	Sessions  *session.Registry
	Ledger    ledger.Ledger
	Retriever *retrieval.Retriever
	Generator *response.Generator
	Validator *grounding.Validator
	// Publisher is optional; nil disables audit events.
	Publisher events.Publisher
}

func NewPipeline(deps Deps, cfg Config, log logger.ILogger) *Pipeline {
	d := DefaultConfig()
	if cfg.TopKFullCorpus <= 0 {
		cfg.TopKFullCorpus = d.TopKFullCorpus
	}
	if cfg.TopKSelectedPassage <= 0 {
		cfg.TopKSelectedPassage = d.TopKSelectedPassage
	}
	if cfg.MinChunks <= 0 {
		cfg.MinChunks = d.MinChunks
	}
	return &Pipeline{
		guard:     deps.Guard,
		sessions:  deps.Sessions,
		ledger:    deps.Ledger,
		retriever: deps.Retriever,
		generator: deps.Generator,
		validator: deps.Validator,
		publisher: deps.Publisher,
		cfg:       cfg,
		tracer:    otel.Tracer("book-rag-be/pipeline"),
		logger:    log,
		now:       time.Now,
	}
}

// Execute routes req by its context mode. A selected passage mode without
// a passage, or with a blank one, runs against the full corpus.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Result, error) {
	anchor := entity.Query{SelectedText: req.SelectedText}
	if _, ok := anchor.Passage(); ok && req.Mode == entity.ContextModeSelectedPassage {
		return p.RunSelectedPassage(ctx, req)
	}
	return p.RunFullCorpus(ctx, req)
}

// RunByContextMode is Execute with the mode given as a raw string.
func (p *Pipeline) RunByContextMode(ctx context.Context, text, mode string, passage *string, sessionId, userId *uuid.UUID) (*Result, error) {
	return p.Execute(ctx, Request{
		Text:         text,
		Mode:         entity.ParseContextMode(mode),
		SelectedText: passage,
		SessionId:    sessionId,
		UserId:       userId,
	})
}

// RunFullCorpus answers from the whole indexed corpus.
func (p *Pipeline) RunFullCorpus(ctx context.Context, req Request) (*Result, error) {
	req.Mode = entity.ContextModeFullCorpus
	r := p.begin(ctx, req)
	defer r.end()

	if err := p.validateInput(r, req, false); err != nil {
		return r.reject(err)
	}
	q, err := p.openQuery(r, req)
	if err != nil {
		return r.fail(StateFailedPersistence, err)
	}

	var rc *entity.RetrievedContext
	r.enter(StateRetrieving)
	err = r.guarded(func() error {
		var rerr error
		rc, rerr = p.retriever.RetrieveFullCorpus(r.ctx, q, p.cfg.TopKFullCorpus)
		return rerr
	})
	if err != nil {
		r.log.Warn(moduleName, "Retrieval unavailable, abstaining", map[string]interface{}{
			"query_id": q.Id.String(),
			"error":    err.Error(),
		})
		rc = nil
	}
	metrics.ObserveRetrieval(len(chunksOf(rc)))
	if rc.IsEmpty() {
		return p.finishFixed(r, q, response.AbstainMessage, entity.ValidationPassed, StateAbstained)
	}

	r.enter(StateGatingContext)
	if !p.retriever.ValidateContext(rc, p.cfg.MinChunks) {
		return p.finishFixed(r, q, response.QualityGateMessage, entity.ValidationFailed, StateInsufficientContext)
	}

	var resp *entity.Response
	r.enter(StateGenerating)
	err = r.guarded(func() error {
		var gerr error
		resp, gerr = p.generator.Generate(r.ctx, q, rc)
		return gerr
	})
	if err != nil {
		return r.fail(StateFailedGeneration, err)
	}

	r.enter(StateValidatingGrounding)
	p.validate(r, req, q, resp, rc)

	return p.finish(r, q, resp, StateDone)
}

// RunSelectedPassage answers a question about a user highlighted passage.
// Retrieved context is used when it passes the gate; otherwise the passage
// alone is the context.
func (p *Pipeline) RunSelectedPassage(ctx context.Context, req Request) (*Result, error) {
	req.Mode = entity.ContextModeSelectedPassage
	r := p.begin(ctx, req)
	defer r.end()

	if err := p.validateInput(r, req, true); err != nil {
		return r.reject(err)
	}
	q, err := p.openQuery(r, req)
	if err != nil {
		return r.fail(StateFailedPersistence, err)
	}
	passage, _ := q.Passage()

	var rc *entity.RetrievedContext
	r.enter(StateRetrieving)
	err = r.guarded(func() error {
		var rerr error
		rc, rerr = p.retriever.RetrieveForSelectedPassage(r.ctx, q, p.cfg.TopKSelectedPassage)
		return rerr
	})
	if err != nil {
		r.log.Warn(moduleName, "Passage retrieval unavailable, answering from passage", map[string]interface{}{
			"query_id": q.Id.String(),
			"error":    err.Error(),
		})
		rc = nil
	}
	metrics.ObserveRetrieval(len(chunksOf(rc)))

	r.enter(StateGatingContext)
	useContext := !rc.IsEmpty() && p.retriever.ValidateContext(rc, p.cfg.MinChunks)

	var resp *entity.Response
	r.enter(StateGenerating)
	err = r.guarded(func() error {
		var gerr error
		if useContext {
			resp, gerr = p.generator.Generate(r.ctx, q, rc)
		} else {
			resp, gerr = p.generator.GenerateFromSelectedPassage(r.ctx, q, passage)
		}
		return gerr
	})
	if err != nil {
		return r.fail(StateFailedGeneration, err)
	}

	r.enter(StateValidatingGrounding)
	if useContext {
		p.validate(r, req, q, resp, rc)
	} else {
		// The passage is the ground truth for a passage-only answer.
		resp.ValidationStatus = entity.ValidationPassed
	}

	return p.finish(r, q, resp, StateDone)
}

func (p *Pipeline) validateInput(r *run, req Request, needPassage bool) error {
	r.enter(StateValidatingInput)
	if err := p.guard.CheckQuery(req.Text); err != nil {
		return err
	}
	if needPassage {
		if err := p.guard.CheckPassage(req.SelectedText); err != nil {
			return err
		}
	}
	return nil
}

// openQuery resolves the session and records the query. Both must succeed
// before anything can reference the query.
func (p *Pipeline) openQuery(r *run, req Request) (*entity.Query, error) {
	r.enter(StateResolvingSession)
	var sess *entity.ConversationSession
	err := r.guarded(func() error {
		var serr error
		sess, serr = p.sessions.Resolve(r.ctx, req.SessionId, req.UserId)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	r.sessionId = sess.Id

	q := &entity.Query{
		Id:           uuid.New(),
		SessionId:    sess.Id,
		Content:      strings.TrimSpace(req.Text),
		ContextMode:  req.Mode,
		SelectedText: req.SelectedText,
		CreatedAt:    p.now(),
	}
	r.query = q
	r.span.SetAttributes(
		attribute.String("rag.query_id", q.Id.String()),
		attribute.String("rag.session_id", sess.Id.String()),
	)

	r.enter(StatePersistingQuery)
	if err := r.guarded(func() error { return p.ledger.RecordQuery(r.ctx, q) }); err != nil {
		return nil, fmt.Errorf("record query: %w", err)
	}
	return q, nil
}

func (p *Pipeline) validate(r *run, req Request, q *entity.Query, resp *entity.Response, rc *entity.RetrievedContext) {
	if req.SkipGroundingValidation {
		resp.ValidationStatus = p.generator.ScoreContentValidity(resp, rc)
		return
	}

	err := r.guarded(func() error {
		report := p.validator.Validate(r.ctx, q, resp, rc)
		r.report = &report
		resp.ValidationStatus = report.Status()
		return nil
	})
	if err != nil {
		resp.ValidationStatus = entity.ValidationFailed
	}
	if resp.ValidationStatus == entity.ValidationFailed {
		r.log.Warn(moduleName, "Answer failed grounding validation", map[string]interface{}{
			"query_id":    q.Id.String(),
			"response_id": resp.Id.String(),
		})
	}
}

func (p *Pipeline) finishFixed(r *run, q *entity.Query, message string, status entity.ValidationStatus, terminal State) (*Result, error) {
	return p.finish(r, q, p.generator.FixedResponse(q, message, status), terminal)
}

// finish persists the response and session. Failures here are logged and
// the answer is still returned.
func (p *Pipeline) finish(r *run, q *entity.Query, resp *entity.Response, terminal State) (*Result, error) {
	if resp.ValidationStatus == entity.ValidationPending {
		resp.ValidationStatus = entity.ValidationFailed
	}

	r.enter(StatePersistingResponse)
	if err := r.guarded(func() error { return p.ledger.RecordResponse(r.ctx, resp) }); err != nil {
		r.log.Warn(moduleName, "Response not recorded", map[string]interface{}{
			"query_id":    q.Id.String(),
			"response_id": resp.Id.String(),
			"error":       err.Error(),
		})
	}
	if err := r.guarded(func() error {
		_, aerr := p.sessions.AddQuery(r.ctx, q.SessionId, q.Id, q.CreatedAt)
		return aerr
	}); err != nil {
		r.log.Warn(moduleName, "Session not updated", map[string]interface{}{
			"session_id": q.SessionId.String(),
			"error":      err.Error(),
		})
	}

	r.enter(terminal)
	r.response = resp
	metrics.ObserveValidation(string(r.mode), string(resp.ValidationStatus))

	r.log.Info(moduleName, "Query answered", map[string]interface{}{
		"query_id":          q.Id.String(),
		"session_id":        q.SessionId.String(),
		"state":             string(terminal),
		"validation_status": string(resp.ValidationStatus),
		"references":        len(resp.SourceReferences),
	})
	p.publish(r.ctx, events.QueryAnswered(q.Id.String(), q.SessionId.String(), resp.Id.String(),
		string(r.mode), string(terminal), string(resp.ValidationStatus), len(resp.SourceReferences), p.now().Sub(r.started)))

	return r.result(), nil
}

func (p *Pipeline) publish(ctx context.Context, ev events.Event) {
	if p.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.publisher.Publish(pubCtx, ev); err != nil {
		p.logger.Warn(moduleName, "Audit event not published", map[string]interface{}{
			"type":  ev.EventType(),
			"error": err.Error(),
		})
	}
}

func chunksOf(rc *entity.RetrievedContext) []entity.ContentChunk {
	if rc == nil {
		return nil
	}
	return rc.Chunks
}
