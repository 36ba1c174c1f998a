package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SectionTypeSummary         = "summary"
	SectionTypeMetrics         = "metrics"
	SectionTypeInsights        = "insights"
	SectionTypeRecommendations = "recommendations"
	SectionTypeNextSteps       = "next_steps"
	SectionTypeCustom          = "custom"
	SectionTypeProofOfWork     = "proof_of_work"
)

// Content is semi-structured text. next_steps sections hold a
// pipe-delimited table, insights sections hold repeated INSIGHT blocks;
// both are re-parsed at display time and degrade to plain paragraphs
// when malformed.
type ReportSection struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReportID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"report_id"`
	SectionType string         `gorm:"column:section_type;not null" json:"section_type"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Content     string         `gorm:"column:content;type:text" json:"content"`
	OrderIndex  int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ReportSection) TableName() string { return "report_section" }
