package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type ContractSignatureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ContractSignature) ([]*types.ContractSignature, error)
	GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.ContractSignature, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.ContractSignature, error)
}

type contractSignatureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContractSignatureRepo(db *gorm.DB, baseLog *logger.Logger) ContractSignatureRepo {
	repoLog := baseLog.With("repo", "ContractSignatureRepo")
	return &contractSignatureRepo{db: db, log: repoLog}
}

func (r *contractSignatureRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ContractSignature) ([]*types.ContractSignature, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.ContractSignature{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contractSignatureRepo) GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.ContractSignature, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if nodeID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var results []*types.ContractSignature
	if err := transaction.WithContext(ctx).
		Where("node_id = ? AND user_id = ?", nodeID, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *contractSignatureRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.ContractSignature, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ContractSignature
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ?", orgID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
