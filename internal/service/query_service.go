package service

import (
	"context"
	"fmt"
	"time"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/entity"
	"book-rag-be/internal/pkg/serverutils"
	"book-rag-be/pkg/rag/executor"
	"book-rag-be/pkg/rag/session"

	"github.com/google/uuid"
)

type IQueryService interface {
	AskFullCorpus(ctx context.Context, userId *uuid.UUID, req *dto.FullCorpusQueryRequest) (*dto.QueryResponse, error)
	AskSelectedPassage(ctx context.Context, userId *uuid.UUID, req *dto.SelectedPassageQueryRequest) (*dto.QueryResponse, error)
	AskByContextMode(ctx context.Context, userId *uuid.UUID, req *dto.ContextModeQueryRequest) (*dto.QueryResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	EndSession(ctx context.Context, id uuid.UUID) error
}

type queryService struct {
	pipeline            *executor.Pipeline
	sessions            *session.Registry
	timeout             time.Duration
	skipGroundingChecks bool
}

func NewQueryService(pipeline *executor.Pipeline, sessions *session.Registry, timeout time.Duration, validateGrounding bool) IQueryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &queryService{
		pipeline:            pipeline,
		sessions:            sessions,
		timeout:             timeout,
		skipGroundingChecks: !validateGrounding,
	}
}

func (s *queryService) AskFullCorpus(ctx context.Context, userId *uuid.UUID, req *dto.FullCorpusQueryRequest) (*dto.QueryResponse, error) {
	return s.run(ctx, executor.Request{
		Text:      req.Query,
		Mode:      entity.ContextModeFullCorpus,
		SessionId: req.SessionId,
		UserId:    userId,
	})
}

func (s *queryService) AskSelectedPassage(ctx context.Context, userId *uuid.UUID, req *dto.SelectedPassageQueryRequest) (*dto.QueryResponse, error) {
	passage := req.SelectedText
	return s.run(ctx, executor.Request{
		Text:         req.Query,
		Mode:         entity.ContextModeSelectedPassage,
		SelectedText: &passage,
		SessionId:    req.SessionId,
		UserId:       userId,
	})
}

func (s *queryService) AskByContextMode(ctx context.Context, userId *uuid.UUID, req *dto.ContextModeQueryRequest) (*dto.QueryResponse, error) {
	return s.run(ctx, executor.Request{
		Text:         req.Query,
		Mode:         entity.ParseContextMode(req.ContextMode),
		SelectedText: req.SelectedText,
		SessionId:    req.SessionId,
		UserId:       userId,
	})
}

func (s *queryService) run(ctx context.Context, req executor.Request) (*dto.QueryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req.SkipGroundingValidation = s.skipGroundingChecks
	res, err := s.pipeline.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Response == nil {
		return nil, fmt.Errorf("%w: %s", executor.ErrNoAnswer, res.State)
	}
	return toQueryResponse(res), nil
}

func (s *queryService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, serverutils.ErrNotFound
	}
	recent, err := s.sessions.RecentQueries(ctx, id, 0)
	if err != nil {
		return nil, err
	}

	return &dto.SessionResponse{
		SessionId:     sess.Id,
		UserId:        sess.UserId,
		CreatedAt:     sess.CreatedAt,
		LastActivity:  sess.LastActivity,
		Queries:       toSessionQueries(sess.Queries),
		RecentQueries: toSessionQueries(recent),
		Metadata:      sess.Metadata,
	}, nil
}

func (s *queryService) EndSession(ctx context.Context, id uuid.UUID) error {
	return s.sessions.EndSession(ctx, id)
}

func toQueryResponse(res *executor.Result) *dto.QueryResponse {
	r := res.Response
	refs := make([]dto.SourceReferenceDTO, 0, len(r.SourceReferences))
	for _, ref := range r.SourceReferences {
		refs = append(refs, dto.SourceReferenceDTO{
			Reference:      ref.Reference,
			Text:           ref.Text,
			RelevanceScore: ref.RelevanceScore,
			PageNumber:     ref.PageNumber,
			Chapter:        ref.Chapter,
			Section:        ref.Section,
			ContentId:      ref.ContentId,
		})
	}

	out := &dto.QueryResponse{
		ResponseId:       r.Id,
		QueryId:          r.QueryId,
		SessionId:        res.SessionId,
		Answer:           r.Content,
		SourceReferences: refs,
		ValidationStatus: string(r.ValidationStatus),
		State:            string(res.State),
		CreatedAt:        r.CreatedAt,
	}
	if res.Query != nil {
		out.ContextMode = string(res.Query.ContextMode)
	}
	return out
}

func toSessionQueries(qs []entity.SessionQuery) []dto.SessionQueryDTO {
	out := make([]dto.SessionQueryDTO, 0, len(qs))
	for _, q := range qs {
		out = append(out, dto.SessionQueryDTO{QueryId: q.QueryId, Timestamp: q.Timestamp})
	}
	return out
}
