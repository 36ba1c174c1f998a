package services

import (
	"strings"
	"testing"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

func TestFilterClientVisible_RequiresPublishedAndVisible(t *testing.T) {
	reports := []*types.Report{
		{Title: "draft hidden", Status: types.ReportStatusDraft, ClientVisible: false},
		{Title: "draft visible", Status: types.ReportStatusDraft, ClientVisible: true},
		{Title: "published hidden", Status: types.ReportStatusPublished, ClientVisible: false},
		{Title: "published visible", Status: types.ReportStatusPublished, ClientVisible: true},
	}

	out := FilterClientVisible(reports)
	if len(out) != 1 {
		t.Fatalf("expected exactly one report to pass, got %d", len(out))
	}
	if out[0].Title != "published visible" {
		t.Fatalf("wrong report passed the filter: %q", out[0].Title)
	}

	if got := FilterClientVisible(nil); len(got) != 0 {
		t.Fatalf("nil input should filter to empty, got %d", len(got))
	}
}

func TestFormatMetricsSection_OmitsUndefinedRatios(t *testing.T) {
	summary := SummaryFromTotals(KPITotals{Leads: 0, Spend: 0, Revenue: 1200, WebsiteTraffic: 0, Conversions: 10})
	out := formatMetricsSection(summary)

	if !strings.Contains(out, "Revenue: $1200\n") {
		t.Fatalf("revenue total missing:\n%s", out)
	}
	for _, absent := range []string{"Cost per lead", "ROAS", "Conversion rate"} {
		if strings.Contains(out, absent) {
			t.Fatalf("undefined ratio %q rendered:\n%s", absent, out)
		}
	}
}

func TestFormatMetricsSection_RendersDerivedRatios(t *testing.T) {
	summary := SummaryFromTotals(KPITotals{Leads: 30, Spend: 400, Revenue: 1200, WebsiteTraffic: 2000, Conversions: 40})
	out := formatMetricsSection(summary)

	for _, want := range []string{
		"Leads: 30\n",
		"Spend: $400\n",
		"Cost per lead: $13.33\n",
		"ROAS: 3.00x\n",
		"Conversion rate: 2.00%\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestTrimFloat_DropsTrailingZeros(t *testing.T) {
	cases := map[float64]string{
		30:      "30",
		1200.5:  "1200.5",
		0:       "0",
		13.3333: "13.3333",
	}
	for in, want := range cases {
		if got := trimFloat(in); got != want {
			t.Fatalf("trimFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
