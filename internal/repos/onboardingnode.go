package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type OnboardingNodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.OnboardingNode) ([]*types.OnboardingNode, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OnboardingNode, error)
	GetByOrgIDOrdered(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OnboardingNode, error)
	MaxPosition(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type onboardingNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingNodeRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingNodeRepo {
	repoLog := baseLog.With("repo", "OnboardingNodeRepo")
	return &onboardingNodeRepo{db: db, log: repoLog}
}

func (r *onboardingNodeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.OnboardingNode) ([]*types.OnboardingNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.OnboardingNode{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *onboardingNodeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.OnboardingNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OnboardingNode
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Org").
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByOrgIDOrdered returns the org's nodes in traversal order. Soft
// deleted nodes are excluded by the default scope, so orphaned progress
// rows never resurface a removed step.
func (r *onboardingNodeRepo) GetByOrgIDOrdered(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OnboardingNode, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OnboardingNode
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("position ASC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *onboardingNodeRepo) MaxPosition(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var max *int
	if err := transaction.WithContext(ctx).
		Model(&types.OnboardingNode{}).
		Where("org_id = ?", orgID).
		Select("MAX(position)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (r *onboardingNodeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.OnboardingNode{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *onboardingNodeRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.OnboardingNode{}).Error
}
