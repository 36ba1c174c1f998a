package types

import (
	"time"

	"github.com/google/uuid"
)

// ContractSignature is immutable once created. There is no update or
// versioning path: the first signature for a (node, user) pair wins.
type ContractSignature struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	NodeID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_sig_node_user,unique" json:"node_id"`
	Node           *OnboardingNode `gorm:"constraint:OnDelete:CASCADE;foreignKey:NodeID;references:ID" json:"node,omitempty"`
	OrgID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"org_id"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_sig_node_user,unique" json:"user_id"`
	User           *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SignedName     string          `gorm:"column:signed_name;not null" json:"signed_name"`
	SignatureImage string          `gorm:"column:signature_image;not null;type:text" json:"signature_image"`
	ContractHash   string          `gorm:"column:contract_hash;not null" json:"contract_hash"`
	TermsVersion   string          `gorm:"column:terms_version" json:"terms_version"`
	PrivacyVersion string          `gorm:"column:privacy_version" json:"privacy_version"`
	SignedAt       time.Time       `gorm:"column:signed_at;not null;default:now()" json:"signed_at"`
	CreatedAt      time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

func (ContractSignature) TableName() string { return "contract_signature" }
