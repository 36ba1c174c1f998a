package services

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// CSVPreview is returned to the client for confirmation before a report
// is generated from an upload: summed totals plus which raw header was
// recognized as which canonical field.
type CSVPreview struct {
	Totals        KPITotals         `json:"totals"`
	ColumnMapping map[string]string `json:"column_mapping"`
	RowCount      int               `json:"row_count"`
	Ignored       []string          `json:"ignored_columns,omitempty"`
}

// Recognized header variants, keyed by their canonical KPI field.
// Matching is case, whitespace and punctuation insensitive.
var csvHeaderVariants = map[string][]string{
	"leads":           {"leads", "lead", "totalleads", "newleads", "leadcount"},
	"spend":           {"spend", "totalspend", "adspend", "cost", "totalcost", "amountspent", "mediaspend"},
	"revenue":         {"revenue", "totalrevenue", "sales", "totalsales", "income"},
	"website_traffic": {"websitetraffic", "traffic", "visitors", "sessions", "visits", "pageviews"},
	"conversions":     {"conversions", "conversion", "totalconversions", "purchases"},
}

func canonicalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchHeader(h string) string {
	canon := canonicalizeHeader(h)
	if canon == "" {
		return ""
	}
	for field, variants := range csvHeaderVariants {
		for _, v := range variants {
			if canon == v {
				return field
			}
		}
	}
	return ""
}

// ParseKPICSV maps recognized columns onto canonical KPI fields and
// sums their numeric values. Unrecognized columns are reported, not
// errored; unparseable cells in recognized columns are skipped.
func ParseKPICSV(r io.Reader) (*CSVPreview, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, validationErrorf("csv file is empty")
	}
	if err != nil {
		return nil, validationErrorf("csv header could not be read: %v", err)
	}

	preview := &CSVPreview{ColumnMapping: map[string]string{}}
	fieldByIndex := map[int]string{}
	for i, h := range header {
		field := matchHeader(h)
		if field == "" {
			if strings.TrimSpace(h) != "" {
				preview.Ignored = append(preview.Ignored, strings.TrimSpace(h))
			}
			continue
		}
		// First matching column wins for a given field.
		if _, taken := preview.ColumnMapping[field]; taken {
			preview.Ignored = append(preview.Ignored, strings.TrimSpace(h))
			continue
		}
		preview.ColumnMapping[field] = strings.TrimSpace(h)
		fieldByIndex[i] = field
	}
	if len(fieldByIndex) == 0 {
		return nil, validationErrorf("no recognized KPI columns in csv header")
	}

	for {
		record, rErr := reader.Read()
		if rErr == io.EOF {
			break
		}
		if rErr != nil {
			return nil, validationErrorf("csv row could not be read: %v", rErr)
		}
		preview.RowCount++
		for i, field := range fieldByIndex {
			if i >= len(record) {
				continue
			}
			val, ok := parseNumericCell(record[i])
			if !ok {
				continue
			}
			switch field {
			case "leads":
				preview.Totals.Leads += val
			case "spend":
				preview.Totals.Spend += val
			case "revenue":
				preview.Totals.Revenue += val
			case "website_traffic":
				preview.Totals.WebsiteTraffic += val
			case "conversions":
				preview.Totals.Conversions += val
			}
		}
	}
	return preview, nil
}

func parseNumericCell(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
