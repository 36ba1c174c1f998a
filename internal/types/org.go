package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Org struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name            string         `gorm:"column:name;not null" json:"name"`
	Slug            string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	BillingEmail    string         `gorm:"column:billing_email" json:"billing_email"`
	AvatarBucketKey string         `gorm:"column:avatar_bucket_key" json:"avatar_bucket_key"`
	AvatarURL       string         `gorm:"column:avatar_url" json:"avatar_url"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Org) TableName() string { return "org" }
