package repos

import (
	"context"
	"testing"
	"time"

	"github.com/agencyloop/agencyloop-backend/internal/repos/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMetricRepo_GetByOrgPeriodOverlap(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	org := testutil.SeedOrg(t, ctx, tx, "metric-overlap")
	other := testutil.SeedOrg(t, ctx, tx, "metric-overlap-other")

	// Rows relative to the queried window of August 2026.
	before := testutil.SeedMetric(t, ctx, tx, org.ID, day(2026, 7, 1), day(2026, 7, 31), 1, 10, 100)
	straddlesStart := testutil.SeedMetric(t, ctx, tx, org.ID, day(2026, 7, 25), day(2026, 8, 5), 2, 20, 200)
	inside := testutil.SeedMetric(t, ctx, tx, org.ID, day(2026, 8, 10), day(2026, 8, 17), 3, 30, 300)
	straddlesEnd := testutil.SeedMetric(t, ctx, tx, org.ID, day(2026, 8, 28), day(2026, 9, 3), 4, 40, 400)
	after := testutil.SeedMetric(t, ctx, tx, org.ID, day(2026, 9, 10), day(2026, 9, 17), 5, 50, 500)
	foreign := testutil.SeedMetric(t, ctx, tx, other.ID, day(2026, 8, 10), day(2026, 8, 17), 6, 60, 600)

	repo := NewMetricRepo(db, testutil.Logger(t))
	rows, err := repo.GetByOrgPeriodOverlap(ctx, tx, org.ID, day(2026, 8, 1), day(2026, 8, 31))
	if err != nil {
		t.Fatalf("overlap query: %v", err)
	}

	got := map[float64]bool{}
	for _, m := range rows {
		got[m.Leads] = true
	}
	for _, want := range []float64{straddlesStart.Leads, inside.Leads, straddlesEnd.Leads} {
		if !got[want] {
			t.Fatalf("expected row with leads=%v in result, got %v", want, got)
		}
	}
	for _, notWant := range []float64{before.Leads, after.Leads, foreign.Leads} {
		if got[notWant] {
			t.Fatalf("row with leads=%v should be excluded, got %v", notWant, got)
		}
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 overlapping rows, got %d", len(rows))
	}

	// The result is ordered for stable report rendering.
	for i := 1; i < len(rows); i++ {
		if rows[i].PeriodStart.Before(rows[i-1].PeriodStart) {
			t.Fatalf("rows out of period_start order: %v then %v", rows[i-1].PeriodStart, rows[i].PeriodStart)
		}
	}
}
