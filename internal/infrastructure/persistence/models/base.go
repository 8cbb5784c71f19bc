package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/shared"
)

// EntityColumns are the id and timestamp columns every billing table carries
type EntityColumns struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Entity returns the columns as a domain entity header
func (c *EntityColumns) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// SetEntity copies a domain entity header into the columns
func (c *EntityColumns) SetEntity(e shared.BaseEntity) {
	c.ID, c.CreatedAt, c.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// AggregateColumns add the version column of aggregate roots (customers, tasks,
// invoices and company revisions). Time entries are plain entities.
type AggregateColumns struct {
	EntityColumns
	Version int `gorm:"not null;default:1"`
}

// Root returns the columns as a domain aggregate root header
func (c *AggregateColumns) Root() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: c.Entity(), Version: c.Version}
}

// SetRoot copies a domain aggregate root header into the columns
func (c *AggregateColumns) SetRoot(a shared.BaseAggregateRoot) {
	c.SetEntity(a.BaseEntity)
	c.Version = a.Version
}
