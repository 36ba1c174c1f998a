package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type OrgRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Org) ([]*types.Org, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Org, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Org, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type orgRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgRepo(db *gorm.DB, baseLog *logger.Logger) OrgRepo {
	repoLog := baseLog.With("repo", "OrgRepo")
	return &orgRepo{db: db, log: repoLog}
}

func (r *orgRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Org) ([]*types.Org, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Org{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *orgRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Org, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Org
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orgRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*types.Org, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Org
	if len(slugs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("slug IN ?", slugs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orgRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Org{}).
		Where("id = ?", id).
		Updates(updates).Error
}
