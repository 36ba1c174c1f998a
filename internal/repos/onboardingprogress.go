package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type OnboardingProgressRepo interface {
	GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.OnboardingProgress, error)
	GetByUserAndNodeIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, nodeIDs []uuid.UUID) ([]*types.OnboardingProgress, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.OnboardingProgress) error
}

type onboardingProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingProgressRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingProgressRepo {
	repoLog := baseLog.With("repo", "OnboardingProgressRepo")
	return &onboardingProgressRepo{db: db, log: repoLog}
}

func (r *onboardingProgressRepo) GetByNodeAndUser(ctx context.Context, tx *gorm.DB, nodeID, userID uuid.UUID) (*types.OnboardingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if nodeID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var results []*types.OnboardingProgress
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

func (r *onboardingProgressRepo) GetByUserAndNodeIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, nodeIDs []uuid.UUID) ([]*types.OnboardingProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.OnboardingProgress
	if userID == uuid.Nil || len(nodeIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND node_id IN ?", userID, nodeIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Upsert keys on the unique (node_id, user_id) pair, so calling twice
// for the same pair updates the existing row instead of inserting a
// duplicate. Completion stays terminal: a completed row is never
// reverted to pending here.
func (r *onboardingProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.OnboardingProgress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	assign := map[string]interface{}{
		"metadata": row.Metadata,
	}
	if row.Status == types.ProgressStatusCompleted {
		assign["status"] = row.Status
		assign["completed_at"] = row.CompletedAt
	}
	return transaction.WithContext(ctx).
		Where("node_id = ? AND user_id = ?", row.NodeID, row.UserID).
		Assign(assign).
		FirstOrCreate(row).Error
}
