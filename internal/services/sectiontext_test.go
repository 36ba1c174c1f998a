package services

import (
	"strings"
	"testing"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestParseNextSteps_SkipsHeaderRow(t *testing.T) {
	content := "Action | Why | Owner | ETA | Status\n" +
		"Launch retargeting | Warm traffic converts | Ana | 2026-09-15 | pending\n" +
		"Refresh creatives | Fatigue on ad set 3 | Ben | 2026-09-22 | in_progress"

	rows, ok := ParseNextSteps(content)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Action != "Launch retargeting" || rows[0].Owner != "Ana" || rows[0].Status != "pending" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].ETA != "2026-09-22" {
		t.Fatalf("unexpected eta: %q", rows[1].ETA)
	}
}

func TestParseNextSteps_NoHeaderStillParses(t *testing.T) {
	rows, ok := ParseNextSteps("Do the thing | Because | Me | Friday | pending")
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 row, got ok=%v rows=%d", ok, len(rows))
	}
	if rows[0].Why != "Because" {
		t.Fatalf("unexpected why: %q", rows[0].Why)
	}
}

func TestParseNextSteps_WrongCellCountFailsSoft(t *testing.T) {
	content := "Action | Why | Owner | ETA | Status\n" +
		"Only | four | cells | here"
	if _, ok := ParseNextSteps(content); ok {
		t.Fatalf("expected ok=false for a row with four cells")
	}
}

func TestParseNextSteps_HeaderOnlyFailsSoft(t *testing.T) {
	if _, ok := ParseNextSteps("Action | Why | Owner | ETA | Status"); ok {
		t.Fatalf("expected ok=false for a header with no rows")
	}
	if _, ok := ParseNextSteps("   \n\n"); ok {
		t.Fatalf("expected ok=false for blank content")
	}
}

func TestFormatNextSteps_RoundTrips(t *testing.T) {
	in := []NextStepRow{
		{Action: "A", Why: "W", Owner: "O", ETA: "E", Status: "S"},
		{Action: "A2", Why: "W2", Owner: "O2", ETA: "E2", Status: "S2"},
	}
	out, ok := ParseNextSteps(FormatNextSteps(in))
	if !ok {
		t.Fatalf("expected formatted table to parse")
	}
	if len(out) != 2 || out[1].Action != "A2" || out[1].Status != "S2" {
		t.Fatalf("unexpected round trip: %+v", out)
	}
}

func TestParseInsights_SplitsBlocksAndLabels(t *testing.T) {
	content := "INSIGHT 1: CPL dropped sharply\n" +
		"Observation: Spend held flat while leads doubled.\n" +
		"Recommendation: Shift 20% of budget to the winning ad set.\n" +
		"\n" +
		"INSIGHT 2: Traffic quality slipping\n" +
		"Observation: Sessions up, conversions flat."

	cards, ok := ParseInsights(content)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
	if cards[0].Number != 1 || cards[0].Title != "CPL dropped sharply" {
		t.Fatalf("unexpected first card: %+v", cards[0])
	}
	if len(cards[0].Lines) != 2 || cards[0].Lines[1].Label != "Recommendation" {
		t.Fatalf("unexpected first card lines: %+v", cards[0].Lines)
	}
	if cards[1].Number != 2 || len(cards[1].Lines) != 1 {
		t.Fatalf("unexpected second card: %+v", cards[1])
	}
}

func TestParseInsights_ContinuationFoldsIntoPreviousLine(t *testing.T) {
	content := "INSIGHT 1: Title\n" +
		"Observation: The first half of a sentence\n" +
		"that wraps onto a second line"

	cards, ok := ParseInsights(content)
	if !ok || len(cards) != 1 {
		t.Fatalf("expected one card, got ok=%v cards=%d", ok, len(cards))
	}
	got := cards[0].Lines[0].Text
	if got != "The first half of a sentence that wraps onto a second line" {
		t.Fatalf("unexpected folded text: %q", got)
	}
}

func TestParseInsights_NonInsightOpeningFailsSoft(t *testing.T) {
	if _, ok := ParseInsights("Some free-form paragraph of analysis."); ok {
		t.Fatalf("expected ok=false for content without an INSIGHT header")
	}
	if _, ok := ParseInsights("INSIGHT one: not a number"); ok {
		t.Fatalf("expected ok=false for a non-numeric insight number")
	}
	if _, ok := ParseInsights(""); ok {
		t.Fatalf("expected ok=false for empty content")
	}
}

func TestFormatProofOfWork_EmptyGroupsGetPlaceholder(t *testing.T) {
	out := FormatProofOfWork(nil)

	for _, header := range []string{"DELIVERABLES COMPLETED:", "CHANGES SHIPPED:", "TESTS LAUNCHED:"} {
		if !strings.Contains(out, header) {
			t.Fatalf("missing header %q in:\n%s", header, out)
		}
	}
	if strings.Count(out, "(none this period)") != 3 {
		t.Fatalf("expected three placeholders, got:\n%s", out)
	}
}

func TestFormatProofOfWork_GroupsByKind(t *testing.T) {
	items := []*types.Deliverable{
		{Title: "Landing page v2", Description: "New hero and form", Kind: types.DeliverableKindDeliverable},
		{Title: "Headline test", Kind: types.DeliverableKindTest},
	}
	out := FormatProofOfWork(items)

	if !strings.Contains(out, "- Landing page v2: New hero and form") {
		t.Fatalf("deliverable line missing in:\n%s", out)
	}
	if !strings.Contains(out, "- Headline test") || strings.Contains(out, "- Headline test:") {
		t.Fatalf("test line should omit the empty description:\n%s", out)
	}
	if strings.Count(out, "(none this period)") != 1 {
		t.Fatalf("only the changes group should be empty:\n%s", out)
	}

	// The section must keep the fixed header order regardless of input order.
	di := strings.Index(out, "DELIVERABLES COMPLETED:")
	ci := strings.Index(out, "CHANGES SHIPPED:")
	ti := strings.Index(out, "TESTS LAUNCHED:")
	if !(di < ci && ci < ti) {
		t.Fatalf("headers out of order:\n%s", out)
	}
}

func TestBuildSectionViews_ParsesByType(t *testing.T) {
	sections := []types.ReportSection{
		{SectionType: types.SectionTypeSummary, Content: "Plain paragraph."},
		{SectionType: types.SectionTypeNextSteps, Content: "Action | Why | Owner | ETA | Status\nShip v2 | Conversion | Dana | Mar 14 | pending"},
		{SectionType: types.SectionTypeInsights, Content: "INSIGHT 1: CPL dropped\nMetric: CPL fell 12%"},
	}

	views := BuildSectionViews(sections)
	if len(views) != 3 {
		t.Fatalf("expected a view per section, got %d", len(views))
	}
	if views[0].NextSteps != nil || views[0].Insights != nil {
		t.Fatal("summary sections should carry no parsed structure")
	}
	if len(views[1].NextSteps) != 1 || views[1].NextSteps[0].Action != "Ship v2" {
		t.Fatalf("next_steps not parsed: %+v", views[1].NextSteps)
	}
	if len(views[2].Insights) != 1 || views[2].Insights[0].Title != "CPL dropped" {
		t.Fatalf("insights not parsed: %+v", views[2].Insights)
	}
	for i := range views {
		if views[i].Section == nil || views[i].Section.SectionType != sections[i].SectionType {
			t.Fatalf("view %d lost its section", i)
		}
	}
}

func TestBuildSectionViews_MalformedContentFallsBack(t *testing.T) {
	sections := []types.ReportSection{
		{SectionType: types.SectionTypeNextSteps, Content: "just prose, no table"},
		{SectionType: types.SectionTypeInsights, Content: "no insight header here"},
	}

	views := BuildSectionViews(sections)
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].NextSteps != nil {
		t.Fatalf("malformed next_steps should stay unparsed, got %+v", views[0].NextSteps)
	}
	if views[1].Insights != nil {
		t.Fatalf("malformed insights should stay unparsed, got %+v", views[1].Insights)
	}
}
