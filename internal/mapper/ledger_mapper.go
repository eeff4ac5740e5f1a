package mapper

import (
	"encoding/json"

	"book-rag-be/internal/entity"
	"book-rag-be/internal/model"
	"book-rag-be/internal/pkg/logger"

	"gorm.io/datatypes"
)

type LedgerMapper struct {
	logger logger.ILogger
}

func NewLedgerMapper(log logger.ILogger) *LedgerMapper {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &LedgerMapper{logger: log}
}

// Query Mappers

func (m *LedgerMapper) QueryToModel(q *entity.Query) *model.Query {
	if q == nil {
		return nil
	}
	return &model.Query{
		Id:               q.Id,
		SessionId:        q.SessionId,
		Content:          q.Content,
		ContextMode:      string(q.ContextMode),
		SelectedText:     q.SelectedText,
		SourceReferences: m.ReferencesToJSON(q.SourceReferences),
		CreatedAt:        q.CreatedAt,
	}
}

func (m *LedgerMapper) QueryToEntity(q *model.Query) *entity.Query {
	if q == nil {
		return nil
	}
	return &entity.Query{
		Id:               q.Id,
		SessionId:        q.SessionId,
		Content:          q.Content,
		ContextMode:      entity.ParseContextMode(q.ContextMode),
		SelectedText:     q.SelectedText,
		SourceReferences: m.ReferencesFromJSON(q.SourceReferences),
		CreatedAt:        q.CreatedAt,
	}
}

// Response Mappers

func (m *LedgerMapper) ResponseToModel(r *entity.Response) *model.Response {
	if r == nil {
		return nil
	}
	return &model.Response{
		Id:               r.Id,
		QueryId:          r.QueryId,
		Content:          r.Content,
		SourceReferences: m.ReferencesToJSON(r.SourceReferences),
		ValidationStatus: string(r.ValidationStatus),
		CreatedAt:        r.CreatedAt,
	}
}

func (m *LedgerMapper) ResponseToEntity(r *model.Response) *entity.Response {
	if r == nil {
		return nil
	}
	return &entity.Response{
		Id:               r.Id,
		QueryId:          r.QueryId,
		Content:          r.Content,
		SourceReferences: m.ReferencesFromJSON(r.SourceReferences),
		ValidationStatus: entity.ValidationStatus(r.ValidationStatus),
		CreatedAt:        r.CreatedAt,
	}
}

// Session Mappers

func (m *LedgerMapper) SessionToModel(s *entity.ConversationSession) *model.ConversationSession {
	if s == nil {
		return nil
	}
	var meta datatypes.JSON
	if len(s.Metadata) > 0 {
		raw, err := json.Marshal(s.Metadata)
		if err != nil {
			m.logger.Error(moduleName, "Failed to encode session metadata", map[string]interface{}{
				"session_id": s.Id.String(),
				"error":      err.Error(),
			})
		} else {
			meta = raw
		}
	}
	return &model.ConversationSession{
		Id:           s.Id,
		UserId:       s.UserId,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Metadata:     meta,
	}
}

// SessionToEntity maps the session row; queries are attached by the caller.
func (m *LedgerMapper) SessionToEntity(s *model.ConversationSession) *entity.ConversationSession {
	if s == nil {
		return nil
	}
	meta := map[string]interface{}{}
	if len(s.Metadata) > 0 {
		if err := json.Unmarshal(s.Metadata, &meta); err != nil {
			m.logger.Warn(moduleName, "Dropping unreadable session metadata", map[string]interface{}{
				"session_id": s.Id.String(),
				"error":      err.Error(),
			})
			meta = map[string]interface{}{}
		}
	}
	return &entity.ConversationSession{
		Id:           s.Id,
		UserId:       s.UserId,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Queries:      []entity.SessionQuery{},
		Metadata:     meta,
	}
}

func (m *LedgerMapper) ReferencesToJSON(refs []entity.SourceReference) datatypes.JSON {
	if refs == nil {
		return nil
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		m.logger.Error(moduleName, "Failed to encode source references", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return raw
}

func (m *LedgerMapper) ReferencesFromJSON(raw datatypes.JSON) []entity.SourceReference {
	if len(raw) == 0 {
		return nil
	}
	var refs []entity.SourceReference
	if err := json.Unmarshal(raw, &refs); err != nil {
		m.logger.Warn(moduleName, "Dropping unreadable source references", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	return refs
}
