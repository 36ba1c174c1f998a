package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type MetricRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Metric) ([]*types.Metric, error)
	GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Metric, error)
	GetByOrgPeriodOverlap(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, start, end time.Time) ([]*types.Metric, error)
}

type metricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricRepo(db *gorm.DB, baseLog *logger.Logger) MetricRepo {
	repoLog := baseLog.With("repo", "MetricRepo")
	return &metricRepo{db: db, log: repoLog}
}

func (r *metricRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Metric) ([]*types.Metric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Metric{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *metricRepo) GetByOrgID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*types.Metric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Metric
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("period_start ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByOrgPeriodOverlap returns rows whose [period_start, period_end]
// overlaps [start, end].
func (r *metricRepo) GetByOrgPeriodOverlap(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, start, end time.Time) ([]*types.Metric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Metric
	if orgID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("org_id = ? AND period_start <= ? AND period_end >= ?", orgID, end, start).
		Order("period_start ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
