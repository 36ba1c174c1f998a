package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedOrg(tb testing.TB, ctx context.Context, tx *gorm.DB, slug string) *types.Org {
	tb.Helper()
	o := &types.Org{
		ID:   uuid.New(),
		Name: "Org " + slug,
		Slug: slug,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed org: %v", err)
	}
	return o
}

func SeedNode(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, nodeType string, position int) *types.OnboardingNode {
	tb.Helper()
	n := &types.OnboardingNode{
		ID:       uuid.New(),
		OrgID:    orgID,
		NodeType: nodeType,
		Title:    nodeType,
		Config:   datatypes.JSON([]byte("{}")),
		Position: position,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed node: %v", err)
	}
	return n
}

func SeedMetric(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, start, end time.Time, leads, spend, revenue float64) *types.Metric {
	tb.Helper()
	m := &types.Metric{
		ID:          uuid.New(),
		OrgID:       orgID,
		PeriodStart: start,
		PeriodEnd:   end,
		Leads:       leads,
		Spend:       spend,
		Revenue:     revenue,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed metric: %v", err)
	}
	return m
}

func SeedDeliverable(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, kind string, completedAt time.Time) *types.Deliverable {
	tb.Helper()
	d := &types.Deliverable{
		ID:            uuid.New(),
		OrgID:         orgID,
		Title:         "item",
		Kind:          kind,
		Status:        types.DeliverableStatusCompleted,
		ClientVisible: true,
		CompletedAt:   &completedAt,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed deliverable: %v", err)
	}
	return d
}
