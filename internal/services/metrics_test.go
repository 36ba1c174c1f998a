package services

import (
	"math"
	"testing"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarizeMetrics_SumsThenDerives(t *testing.T) {
	rows := []*types.Metric{
		{Leads: 10, Spend: 100, Revenue: 500, WebsiteTraffic: 1000, Conversions: 20},
		{Leads: 20, Spend: 300, Revenue: 700, WebsiteTraffic: 3000, Conversions: 60},
	}
	s := SummarizeMetrics(rows)

	if !s.HasData {
		t.Fatalf("expected has_data=true")
	}
	if s.Rows != 2 {
		t.Fatalf("expected rows=2, got %d", s.Rows)
	}
	if s.Totals.Leads != 30 || s.Totals.Spend != 400 || s.Totals.Revenue != 1200 {
		t.Fatalf("unexpected totals: %+v", s.Totals)
	}
	// Ratios come from summed totals, not averaged per-row ratios.
	// Per-row CPL would average to (10+15)/2 = 12.5; summed is 400/30.
	if s.CPL == nil || !almostEqual(*s.CPL, 400.0/30.0) {
		t.Fatalf("unexpected cpl: %v", s.CPL)
	}
	if s.ROAS == nil || !almostEqual(*s.ROAS, 3.0) {
		t.Fatalf("unexpected roas: %v", s.ROAS)
	}
	if s.ConversionRate == nil || !almostEqual(*s.ConversionRate, 2.0) {
		t.Fatalf("unexpected conversion rate: %v", s.ConversionRate)
	}
}

func TestSummarizeMetrics_ZeroDenominatorsYieldNilRatios(t *testing.T) {
	rows := []*types.Metric{
		{Leads: 0, Spend: 0, Revenue: 150, WebsiteTraffic: 0, Conversions: 5},
	}
	s := SummarizeMetrics(rows)

	if !s.HasData {
		t.Fatalf("expected has_data=true for a present-but-zero row")
	}
	if s.CPL != nil {
		t.Fatalf("expected nil cpl with zero leads, got %v", *s.CPL)
	}
	if s.ROAS != nil {
		t.Fatalf("expected nil roas with zero spend, got %v", *s.ROAS)
	}
	if s.ConversionRate != nil {
		t.Fatalf("expected nil conversion rate with zero traffic, got %v", *s.ConversionRate)
	}
}

func TestSummarizeMetrics_EmptyIsDistinctFromZero(t *testing.T) {
	empty := SummarizeMetrics(nil)
	if empty.HasData {
		t.Fatalf("expected has_data=false for no rows")
	}
	if empty.Rows != 0 {
		t.Fatalf("expected rows=0, got %d", empty.Rows)
	}

	zeroes := SummarizeMetrics([]*types.Metric{{}})
	if !zeroes.HasData {
		t.Fatalf("expected has_data=true for an all-zero row")
	}
}

func TestSummaryFromTotals_DerivesSameRatios(t *testing.T) {
	s := SummaryFromTotals(KPITotals{Leads: 4, Spend: 200, Revenue: 800, WebsiteTraffic: 500, Conversions: 25})

	if !s.HasData || s.Rows != 1 {
		t.Fatalf("unexpected summary shell: has_data=%v rows=%d", s.HasData, s.Rows)
	}
	if s.CPL == nil || !almostEqual(*s.CPL, 50.0) {
		t.Fatalf("unexpected cpl: %v", s.CPL)
	}
	if s.ROAS == nil || !almostEqual(*s.ROAS, 4.0) {
		t.Fatalf("unexpected roas: %v", s.ROAS)
	}
	if s.ConversionRate == nil || !almostEqual(*s.ConversionRate, 5.0) {
		t.Fatalf("unexpected conversion rate: %v", s.ConversionRate)
	}
}
