package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type ReportSectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ReportSection) ([]*types.ReportSection, error)
	GetByReportIDOrdered(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.ReportSection, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByReportID(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) error
}

type reportSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportSectionRepo(db *gorm.DB, baseLog *logger.Logger) ReportSectionRepo {
	repoLog := baseLog.With("repo", "ReportSectionRepo")
	return &reportSectionRepo{db: db, log: repoLog}
}

func (r *reportSectionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ReportSection) ([]*types.ReportSection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.ReportSection{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reportSectionRepo) GetByReportIDOrdered(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) ([]*types.ReportSection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ReportSection
	if reportID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("order_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reportSectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ReportSection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *reportSectionRepo) SoftDeleteByReportID(ctx context.Context, tx *gorm.DB, reportID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if reportID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("report_id = ?", reportID).
		Delete(&types.ReportSection{}).Error
}
