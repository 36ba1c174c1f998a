package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeliverableKindDeliverable = "deliverable"
	DeliverableKindChange      = "change"
	DeliverableKindTest        = "test"
)

const (
	DeliverableStatusInProgress = "in_progress"
	DeliverableStatusCompleted  = "completed"
)

type Deliverable struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Org           *Org           `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrgID;references:ID" json:"org,omitempty"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description" json:"description"`
	Kind          string         `gorm:"column:kind;not null;default:'deliverable'" json:"kind"`
	Status        string         `gorm:"column:status;not null;default:'in_progress'" json:"status"`
	ClientVisible bool           `gorm:"column:client_visible;not null;default:true" json:"client_visible"`
	FileBucketKey string         `gorm:"column:file_bucket_key" json:"file_bucket_key"`
	FileURL       string         `gorm:"column:file_url" json:"file_url"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Deliverable) TableName() string { return "deliverable" }
