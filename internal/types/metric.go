package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Metric struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Org            *Org           `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrgID;references:ID" json:"org,omitempty"`
	PeriodStart    time.Time      `gorm:"column:period_start;not null;index" json:"period_start"`
	PeriodEnd      time.Time      `gorm:"column:period_end;not null;index" json:"period_end"`
	Leads          float64        `gorm:"column:leads;not null;default:0" json:"leads"`
	Spend          float64        `gorm:"column:spend;not null;default:0" json:"spend"`
	Revenue        float64        `gorm:"column:revenue;not null;default:0" json:"revenue"`
	WebsiteTraffic float64        `gorm:"column:website_traffic;not null;default:0" json:"website_traffic"`
	Conversions    float64        `gorm:"column:conversions;not null;default:0" json:"conversions"`
	Source         string         `gorm:"column:source;not null;default:'manual'" json:"source"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Metric) TableName() string { return "metric" }
