package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/repos/testutil"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestDeliverableRepo_GetCompletedClientVisibleInPeriod(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	org := testutil.SeedOrg(t, ctx, tx, "deliverable-period")

	inPeriod := testutil.SeedDeliverable(t, ctx, tx, org.ID, types.DeliverableKindDeliverable, day(2026, 8, 10))
	_ = testutil.SeedDeliverable(t, ctx, tx, org.ID, types.DeliverableKindChange, day(2026, 7, 10))

	// Completed in the period but hidden from clients.
	hiddenAt := day(2026, 8, 12)
	hidden := &types.Deliverable{
		ID:            uuid.New(),
		OrgID:         org.ID,
		Title:         "internal cleanup",
		Kind:          types.DeliverableKindChange,
		Status:        types.DeliverableStatusCompleted,
		ClientVisible: false,
		CompletedAt:   &hiddenAt,
	}
	if err := tx.WithContext(ctx).Create(hidden).Error; err != nil {
		t.Fatalf("seed hidden deliverable: %v", err)
	}

	// Visible but still in progress.
	open := &types.Deliverable{
		ID:            uuid.New(),
		OrgID:         org.ID,
		Title:         "wip test",
		Kind:          types.DeliverableKindTest,
		Status:        types.DeliverableStatusInProgress,
		ClientVisible: true,
	}
	if err := tx.WithContext(ctx).Create(open).Error; err != nil {
		t.Fatalf("seed open deliverable: %v", err)
	}

	repo := NewDeliverableRepo(db, testutil.Logger(t))
	rows, err := repo.GetCompletedClientVisibleInPeriod(ctx, tx, org.ID, day(2026, 8, 1), day(2026, 8, 31))
	if err != nil {
		t.Fatalf("period query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one qualifying deliverable, got %d", len(rows))
	}
	if rows[0].ID != inPeriod.ID {
		t.Fatalf("expected %s, got %s", inPeriod.ID, rows[0].ID)
	}
}

func TestDeliverableRepo_UpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	org := testutil.SeedOrg(t, ctx, tx, "deliverable-update")
	row := &types.Deliverable{
		ID:     uuid.New(),
		OrgID:  org.ID,
		Title:  "pending item",
		Kind:   types.DeliverableKindDeliverable,
		Status: types.DeliverableStatusInProgress,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := NewDeliverableRepo(db, testutil.Logger(t))
	completedAt := day(2026, 8, 20)
	err := repo.UpdateFields(ctx, tx, row.ID, map[string]interface{}{
		"status":       types.DeliverableStatusCompleted,
		"completed_at": completedAt,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{row.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload: %v (%d rows)", err, len(got))
	}
	if got[0].Status != types.DeliverableStatusCompleted || got[0].CompletedAt == nil {
		t.Fatalf("update not applied: %+v", got[0])
	}
}
