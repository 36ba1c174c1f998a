package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/agencyloop/agencyloop-backend/internal/repos/testutil"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestOnboardingProgressRepo_UpsertIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "progress-upsert@example.com")
	org := testutil.SeedOrg(t, ctx, tx, "progress-upsert")
	node := testutil.SeedNode(t, ctx, tx, org.ID, types.NodeTypeWelcome, 0)

	repo := NewOnboardingProgressRepo(db, testutil.Logger(t))
	now := time.Now().UTC().Truncate(time.Second)

	first := &types.OnboardingProgress{
		ID:          uuid.New(),
		NodeID:      node.ID,
		UserID:      user.ID,
		Status:      types.ProgressStatusCompleted,
		Metadata:    datatypes.JSON([]byte(`{"via":"first"}`)),
		CompletedAt: &now,
	}
	if err := repo.Upsert(ctx, tx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &types.OnboardingProgress{
		ID:          uuid.New(),
		NodeID:      node.ID,
		UserID:      user.ID,
		Status:      types.ProgressStatusCompleted,
		Metadata:    datatypes.JSON([]byte(`{"via":"second"}`)),
		CompletedAt: &now,
	}
	if err := repo.Upsert(ctx, tx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	if err := tx.Model(&types.OnboardingProgress{}).
		Where("node_id = ? AND user_id = ?", node.ID, user.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row per (node, user), got %d", count)
	}

	stored, err := repo.GetByNodeAndUser(ctx, tx, node.ID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored == nil || stored.ID != first.ID {
		t.Fatalf("second upsert should keep the original row, got %+v", stored)
	}
}

func TestOnboardingProgressRepo_CompletionIsNotDowngraded(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "progress-terminal@example.com")
	org := testutil.SeedOrg(t, ctx, tx, "progress-terminal")
	node := testutil.SeedNode(t, ctx, tx, org.ID, types.NodeTypeScope, 0)

	repo := NewOnboardingProgressRepo(db, testutil.Logger(t))
	now := time.Now().UTC().Truncate(time.Second)

	completed := &types.OnboardingProgress{
		ID:          uuid.New(),
		NodeID:      node.ID,
		UserID:      user.ID,
		Status:      types.ProgressStatusCompleted,
		Metadata:    datatypes.JSON([]byte(`{}`)),
		CompletedAt: &now,
	}
	if err := repo.Upsert(ctx, tx, completed); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pending := &types.OnboardingProgress{
		ID:       uuid.New(),
		NodeID:   node.ID,
		UserID:   user.ID,
		Status:   types.ProgressStatusPending,
		Metadata: datatypes.JSON([]byte(`{"revisited":true}`)),
	}
	if err := repo.Upsert(ctx, tx, pending); err != nil {
		t.Fatalf("pending upsert: %v", err)
	}

	stored, err := repo.GetByNodeAndUser(ctx, tx, node.ID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != types.ProgressStatusCompleted {
		t.Fatalf("a pending upsert reverted a completed step: %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("completed_at cleared by a pending upsert")
	}
}

func TestOnboardingProgressRepo_GetByUserAndNodeIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, tx, "progress-list@example.com")
	other := testutil.SeedUser(t, ctx, tx, "progress-list-other@example.com")
	org := testutil.SeedOrg(t, ctx, tx, "progress-list")
	nodeA := testutil.SeedNode(t, ctx, tx, org.ID, types.NodeTypeWelcome, 0)
	nodeB := testutil.SeedNode(t, ctx, tx, org.ID, types.NodeTypeScope, 1)

	repo := NewOnboardingProgressRepo(db, testutil.Logger(t))
	now := time.Now().UTC().Truncate(time.Second)

	for _, pair := range []struct {
		nodeID uuid.UUID
		userID uuid.UUID
	}{
		{nodeA.ID, user.ID},
		{nodeB.ID, other.ID},
	} {
		row := &types.OnboardingProgress{
			ID:          uuid.New(),
			NodeID:      pair.nodeID,
			UserID:      pair.userID,
			Status:      types.ProgressStatusCompleted,
			Metadata:    datatypes.JSON([]byte(`{}`)),
			CompletedAt: &now,
		}
		if err := repo.Upsert(ctx, tx, row); err != nil {
			t.Fatalf("seed upsert: %v", err)
		}
	}

	rows, err := repo.GetByUserAndNodeIDs(ctx, tx, user.ID, []uuid.UUID{nodeA.ID, nodeB.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rows) != 1 || rows[0].NodeID != nodeA.ID {
		t.Fatalf("expected only the user's own progress, got %+v", rows)
	}

	empty, err := repo.GetByUserAndNodeIDs(ctx, tx, user.ID, nil)
	if err != nil {
		t.Fatalf("get with no ids: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no rows for an empty id set, got %d", len(empty))
	}
}
