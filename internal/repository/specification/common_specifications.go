package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

func (s ByID) Matches(fields map[string]interface{}) bool {
	return fields["id"] == s.ID
}

// ByTenant scopes a query to one tenant's rows.
type ByTenant struct {
	TenantID uuid.UUID
}

func (s ByTenant) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

func (s ByTenant) Matches(fields map[string]interface{}) bool {
	return fields["tenant_id"] == s.TenantID
}
