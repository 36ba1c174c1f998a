package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReportStatusDraft     = "draft"
	ReportStatusPublished = "published"
)

// Report generation tiers: where the KPI numbers come from.
const (
	ReportTierAuto = "auto"
	ReportTierKPI  = "kpi"
	ReportTierCSV  = "csv"
)

type Report struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"org_id"`
	Org           *Org            `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrgID;references:ID" json:"org,omitempty"`
	Title         string          `gorm:"column:title;not null" json:"title"`
	PeriodStart   time.Time       `gorm:"column:period_start;not null" json:"period_start"`
	PeriodEnd     time.Time       `gorm:"column:period_end;not null" json:"period_end"`
	Status        string          `gorm:"column:status;not null;default:'draft'" json:"status"`
	ClientVisible bool            `gorm:"column:client_visible;not null;default:false" json:"client_visible"`
	Tier          string          `gorm:"column:tier;not null;default:'auto'" json:"tier"`
	PublishedAt   *time.Time      `gorm:"column:published_at" json:"published_at,omitempty"`
	Sections      []ReportSection `gorm:"foreignKey:ReportID;references:ID" json:"sections,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Report) TableName() string { return "report" }
