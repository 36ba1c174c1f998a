package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type OrgMembershipRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.OrgMembership) ([]*types.OrgMembership, error)
	GetByOrgAndUser(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (*types.OrgMembership, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.OrgMembership, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error)
	GetAdminsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.OrgMembership) error
}

type orgMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgMembershipRepo(db *gorm.DB, baseLog *logger.Logger) OrgMembershipRepo {
	repoLog := baseLog.With("repo", "OrgMembershipRepo")
	return &orgMembershipRepo{db: db, log: repoLog}
}

func (r *orgMembershipRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.OrgMembership) ([]*types.OrgMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.OrgMembership{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *orgMembershipRepo) GetByOrgAndUser(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (*types.OrgMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if orgID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var results []*types.OrgMembership
	if err := transaction.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *orgMembershipRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.OrgMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OrgMembership
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Org").
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orgMembershipRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OrgMembership
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("org_id = ?", orgID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orgMembershipRepo) GetAdminsByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.OrgMembership, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OrgMembership
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("org_id = ? AND role = ?", orgID, types.OrgRoleAdmin).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orgMembershipRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.OrgMembership) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	// Upsert by unique org_id + user_id
	return transaction.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", row.OrgID, row.UserID).
		Assign(map[string]interface{}{"role": row.Role}).
		FirstOrCreate(row).Error
}
