package services

import (
	"errors"
	"strings"
	"testing"
)

func TestParseKPICSV_MapsHeaderVariants(t *testing.T) {
	csv := "Total Spend ($),New Leads,Sessions,Campaign\n" +
		"\"1,200.50\",10,400,brand\n" +
		"300,5,100,search\n"

	preview, err := ParseKPICSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", preview.RowCount)
	}
	if preview.ColumnMapping["spend"] != "Total Spend ($)" {
		t.Fatalf("unexpected spend mapping: %+v", preview.ColumnMapping)
	}
	if preview.ColumnMapping["leads"] != "New Leads" {
		t.Fatalf("unexpected leads mapping: %+v", preview.ColumnMapping)
	}
	if preview.ColumnMapping["website_traffic"] != "Sessions" {
		t.Fatalf("unexpected traffic mapping: %+v", preview.ColumnMapping)
	}
	if preview.Totals.Spend != 1500.50 || preview.Totals.Leads != 15 || preview.Totals.WebsiteTraffic != 500 {
		t.Fatalf("unexpected totals: %+v", preview.Totals)
	}
	if len(preview.Ignored) != 1 || preview.Ignored[0] != "Campaign" {
		t.Fatalf("expected Campaign to be reported as ignored, got %v", preview.Ignored)
	}
}

func TestParseKPICSV_SkipsUnparseableCells(t *testing.T) {
	csv := "Leads,Revenue\n" +
		"10,\"$2,000\"\n" +
		"n/a,500\n" +
		",\n"

	preview, err := ParseKPICSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.RowCount != 3 {
		t.Fatalf("expected 3 rows, got %d", preview.RowCount)
	}
	if preview.Totals.Leads != 10 {
		t.Fatalf("expected unparseable lead cells skipped, got %v", preview.Totals.Leads)
	}
	if preview.Totals.Revenue != 2500 {
		t.Fatalf("expected currency formatting stripped, got %v", preview.Totals.Revenue)
	}
}

func TestParseKPICSV_FirstMatchingColumnWins(t *testing.T) {
	csv := "Spend,Ad Spend\n100,900\n"

	preview, err := ParseKPICSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.Totals.Spend != 100 {
		t.Fatalf("expected only the first spend column summed, got %v", preview.Totals.Spend)
	}
	if len(preview.Ignored) != 1 || preview.Ignored[0] != "Ad Spend" {
		t.Fatalf("expected duplicate column reported as ignored, got %v", preview.Ignored)
	}
}

func TestParseKPICSV_RejectsUnusableFiles(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"no recognized columns", "Campaign,Channel\nbrand,search\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseKPICSV(strings.NewReader(tc.csv))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestCanonicalizeHeader_StripsCaseAndPunctuation(t *testing.T) {
	cases := map[string]string{
		"Total Spend ($)":  "totalspend",
		"  LEADS  ":        "leads",
		"Web-Site_Traffic": "websitetraffic",
		"%":                "",
	}
	for in, want := range cases {
		if got := canonicalizeHeader(in); got != want {
			t.Fatalf("canonicalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}
