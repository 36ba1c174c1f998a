package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Node types form a closed set; unrecognized values are tolerated at
// render time (they fall through to a placeholder step) so a bad row
// never breaks the traversal.
const (
	NodeTypeWelcome  = "welcome"
	NodeTypeScope    = "scope"
	NodeTypeContract = "contract"
	NodeTypeInvoice  = "invoice"
	NodeTypeTerms    = "terms"
)

type OnboardingNode struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"org_id"`
	Org         *Org           `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrgID;references:ID" json:"org,omitempty"`
	NodeType    string         `gorm:"column:node_type;not null" json:"node_type"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Config      datatypes.JSON `gorm:"type:jsonb;column:config" json:"config"`
	Position    int            `gorm:"column:position;not null;default:0;index" json:"position"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OnboardingNode) TableName() string { return "onboarding_node" }
