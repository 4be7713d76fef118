package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"supportly-be/internal/entity"
	"supportly-be/internal/repository/contract"
	"supportly-be/internal/repository/specification"

	"github.com/google/uuid"
)

var (
	errTxStarted = errors.New("transaction already started")
	errNoTx      = errors.New("no transaction")
)

type sourceRepository struct{ uow *unitOfWork }

func sourceFields(s *entity.TrainingSource) map[string]interface{} {
	return map[string]interface{}{
		"id":        s.Id,
		"tenant_id": s.TenantId,
		"bot_id":    s.BotId,
		"status":    string(s.Status),
	}
}

func (r *sourceRepository) Create(ctx context.Context, source *entity.TrainingSource) error {
	if source.Id == uuid.Nil {
		source.Id = uuid.New()
	}
	if source.Status == "" {
		source.Status = entity.TrainingStatusPending
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now()
	}
	cp := *source
	r.uow.write(func(s *Store) { s.sources[cp.Id] = &cp })
	return nil
}

func (r *sourceRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TrainingSource, error) {
	st := r.uow.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, src := range st.sources {
		if specification.MatchAll(sourceFields(src), specs...) {
			cp := *src
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *sourceRepository) TransitionStatus(ctx context.Context, id uuid.UUID, status entity.TrainingStatus) error {
	st := r.uow.store
	st.mu.Lock()
	defer st.mu.Unlock()
	src, ok := st.sources[id]
	if !ok || !src.Status.CanTransitionTo(status) {
		return contract.ErrStatusTransition
	}
	now := time.Now()
	src.Status = status
	src.UpdatedAt = &now
	return nil
}

type chunkRepository struct{ uow *unitOfWork }

func chunkFields(c *entity.Chunk) map[string]interface{} {
	return map[string]interface{}{
		"id":        c.Id,
		"tenant_id": c.TenantId,
		"bot_id":    c.BotId,
		"source_id": c.SourceId,
	}
}

func (r *chunkRepository) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	copies := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}
		cp := *c
		copies[i] = &cp
	}
	r.uow.write(func(s *Store) {
		for _, c := range copies {
			s.chunks[c.Id] = c
		}
	})
	return nil
}

func (r *chunkRepository) DeleteBySourceId(ctx context.Context, sourceId uuid.UUID) error {
	r.uow.write(func(s *Store) {
		for id, c := range s.chunks {
			if c.SourceId == sourceId {
				delete(s.chunks, id)
			}
		}
	})
	return nil
}

func (r *chunkRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	st := r.uow.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []*entity.Chunk
	for _, c := range st.chunks {
		if specification.MatchAll(chunkFields(c), specs...) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourceId != out[j].SourceId {
			return out[i].SourceId.String() < out[j].SourceId.String()
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out, nil
}

func (r *chunkRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (r *chunkRepository) SearchSimilar(ctx context.Context, tenantId, botId uuid.UUID, embedding []float32, limit int) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 3
	}
	st := r.uow.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	var hits []*entity.ScoredChunk
	for _, c := range st.chunks {
		if c.TenantId != tenantId || c.BotId != botId {
			continue
		}
		cp := *c
		hits = append(hits, &entity.ScoredChunk{Chunk: &cp, Distance: cosineDistance(c.Embedding, embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Chunk.CreatedAt.After(hits[j].Chunk.CreatedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosineDistance mirrors pgvector's <=> operator.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type conversationRepository struct{ uow *unitOfWork }

func (r *conversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.Id == uuid.Nil {
		conversation.Id = uuid.New()
	}
	if conversation.Status == "" {
		conversation.Status = entity.ConversationStatusOpen
	}
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = time.Now()
	}
	cp := *conversation
	r.uow.write(func(s *Store) { s.conversations[cp.Id] = &cp })
	return nil
}

func (r *conversationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	st := r.uow.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, c := range st.conversations {
		fields := map[string]interface{}{
			"id":        c.Id,
			"tenant_id": c.TenantId,
			"bot_id":    c.BotId,
			"status":    string(c.Status),
		}
		if specification.MatchAll(fields, specs...) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *conversationRepository) Close(ctx context.Context, tenantId, id uuid.UUID, endedAt time.Time) error {
	r.uow.write(func(s *Store) {
		c, ok := s.conversations[id]
		if !ok || c.TenantId != tenantId || c.Status != entity.ConversationStatusOpen {
			return
		}
		c.Status = entity.ConversationStatusClosed
		c.EndedAt = &endedAt
	})
	return nil
}

type messageRepository struct{ uow *unitOfWork }

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	cp := *message
	r.uow.write(func(s *Store) { s.messages = append(s.messages, &cp) })
	return nil
}

// FindAll returns messages in insertion order, which is created_at order.
func (r *messageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	st := r.uow.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []*entity.Message
	for _, m := range st.messages {
		fields := map[string]interface{}{
			"id":              m.Id,
			"conversation_id": m.ConversationId,
			"sender_type":     string(m.SenderType),
		}
		if specification.MatchAll(fields, specs...) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}
