package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KnowledgeDocument is a saved reference document an account can attach to a
// draft session. URL-type attachments resolve through this table: when a
// source URL is present the attachment becomes a link entry in the prompt.
type KnowledgeDocument struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AccountEmail string         `gorm:"column:account_email;not null;index" json:"account_email"`
	Title        string         `gorm:"column:title" json:"title"`
	SourceURL    string         `gorm:"column:source_url" json:"source_url"`
	StorageKey   string         `gorm:"column:storage_key" json:"storage_key"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (KnowledgeDocument) TableName() string { return "knowledge_document" }
