package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProgressStatusPending   = "pending"
	ProgressStatusCompleted = "completed"
)

// OnboardingProgress holds at most one row per (node, user). Completion
// is monotonic: normal flow never reverts a completed row.
type OnboardingProgress struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	NodeID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_node_user,unique" json:"node_id"`
	Node        *OnboardingNode `gorm:"constraint:OnDelete:CASCADE;foreignKey:NodeID;references:ID" json:"node,omitempty"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_node_user,unique" json:"user_id"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Status      string          `gorm:"column:status;not null;default:'pending'" json:"status"`
	Metadata    datatypes.JSON  `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CompletedAt *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (OnboardingProgress) TableName() string { return "onboarding_progress" }
