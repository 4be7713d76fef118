package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySourceID selects the chunks produced from one training source.
type BySourceID struct {
	SourceID uuid.UUID
}

func (s BySourceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ?", s.SourceID)
}

func (s BySourceID) Matches(fields map[string]interface{}) bool {
	return fields["source_id"] == s.SourceID
}

// ByTenantAndBot is the isolation scope for chunks and conversations.
type ByTenantAndBot struct {
	TenantID uuid.UUID
	BotID    uuid.UUID
}

func (s ByTenantAndBot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ? AND bot_id = ?", s.TenantID, s.BotID)
}

func (s ByTenantAndBot) Matches(fields map[string]interface{}) bool {
	return fields["tenant_id"] == s.TenantID && fields["bot_id"] == s.BotID
}

// ByConversationID selects the transcript of one conversation.
type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

func (s ByConversationID) Matches(fields map[string]interface{}) bool {
	return fields["conversation_id"] == s.ConversationID
}
