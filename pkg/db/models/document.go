package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/landhub-backend/pkg/enums"
)

// Document is the metadata of a title or survey document attached to a
// listing. The file itself lives in object storage under StorageKey.
type Document struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID       uuid.UUID            `gorm:"column:listing_id;type:uuid;not null"`
	UploaderID      uuid.UUID            `gorm:"column:uploader_id;type:uuid;not null"`
	Type            enums.DocumentType   `gorm:"column:document_type;type:document_type;not null"`
	FileName        string               `gorm:"column:file_name;type:text;not null"`
	ContentType     string               `gorm:"column:content_type;type:text;not null"`
	SizeBytes       int64                `gorm:"column:size_bytes;not null"`
	StorageKey      string               `gorm:"column:storage_key;type:text;not null"`
	Status          enums.DocumentStatus `gorm:"column:status;type:document_status;not null"`
	ReviewedBy      *uuid.UUID           `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt      *time.Time           `gorm:"column:reviewed_at;type:timestamptz"`
	RejectionReason string               `gorm:"column:rejection_reason;type:text;not null;default:''"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Document) TableName() string { return "documents" }
