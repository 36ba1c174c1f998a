package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type DeliverableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Deliverable) ([]*types.Deliverable, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Deliverable, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Deliverable, error)
	GetCompletedClientVisibleInPeriod(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, start, end time.Time) ([]*types.Deliverable, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type deliverableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliverableRepo(db *gorm.DB, baseLog *logger.Logger) DeliverableRepo {
	repoLog := baseLog.With("repo", "DeliverableRepo")
	return &deliverableRepo{db: db, log: repoLog}
}

func (r *deliverableRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Deliverable) ([]*types.Deliverable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Deliverable{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *deliverableRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Deliverable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Deliverable
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

func (r *deliverableRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Deliverable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Deliverable
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deliverableRepo) GetCompletedClientVisibleInPeriod(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, start, end time.Time) ([]*types.Deliverable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Deliverable
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ? AND status = ? AND client_visible = ? AND completed_at >= ? AND completed_at <= ?",
			orgID, types.DeliverableStatusCompleted, true, start, end).
		Order("completed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deliverableRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Deliverable{}).
		Where("id = ?", id).
		Updates(updates).Error
}
