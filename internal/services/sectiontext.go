package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// Report section content is loosely structured text, not a schema.
// next_steps sections hold a pipe-delimited table and insights sections
// hold repeated INSIGHT blocks; the parsers here are display-time
// conveniences that report ok=false on malformed input so callers can
// fall back to rendering plain paragraphs.

type NextStepRow struct {
	Action string `json:"action"`
	Why    string `json:"why"`
	Owner  string `json:"owner"`
	ETA    string `json:"eta"`
	Status string `json:"status"`
}

const nextStepsHeader = "Action | Why | Owner | ETA | Status"

// FormatNextSteps renders rows in the pipe-table convention.
func FormatNextSteps(rows []NextStepRow) string {
	var b strings.Builder
	b.WriteString(nextStepsHeader)
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join([]string{r.Action, r.Why, r.Owner, r.ETA, r.Status}, " | "))
	}
	return b.String()
}

// ParseNextSteps parses pipe-table content back into rows. A leading
// header row is skipped. Any line without exactly five cells makes the
// whole parse fail soft.
func ParseNextSteps(content string) ([]NextStepRow, bool) {
	lines := nonEmptyLines(content)
	if len(lines) == 0 {
		return nil, false
	}
	start := 0
	if normalizePipeLine(lines[0]) == normalizePipeLine(nextStepsHeader) {
		start = 1
	}
	if start >= len(lines) {
		return nil, false
	}
	rows := make([]NextStepRow, 0, len(lines)-start)
	for _, line := range lines[start:] {
		cells := strings.Split(line, "|")
		if len(cells) != 5 {
			return nil, false
		}
		rows = append(rows, NextStepRow{
			Action: strings.TrimSpace(cells[0]),
			Why:    strings.TrimSpace(cells[1]),
			Owner:  strings.TrimSpace(cells[2]),
			ETA:    strings.TrimSpace(cells[3]),
			Status: strings.TrimSpace(cells[4]),
		})
	}
	return rows, true
}

type InsightLine struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type InsightCard struct {
	Number int           `json:"number"`
	Title  string        `json:"title"`
	Lines  []InsightLine `json:"lines"`
}

// FormatInsights renders cards in the repeated-block convention.
func FormatInsights(cards []InsightCard) string {
	var b strings.Builder
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "INSIGHT %d: %s", c.Number, c.Title)
		for _, l := range c.Lines {
			fmt.Fprintf(&b, "\n%s: %s", l.Label, l.Text)
		}
	}
	return b.String()
}

// ParseInsights splits content into INSIGHT blocks. Content that does
// not open with an INSIGHT header fails soft.
func ParseInsights(content string) ([]InsightCard, bool) {
	lines := nonEmptyLines(content)
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "INSIGHT ") {
		return nil, false
	}
	var cards []InsightCard
	var current *InsightCard
	for _, line := range lines {
		if strings.HasPrefix(line, "INSIGHT ") {
			rest := strings.TrimPrefix(line, "INSIGHT ")
			numStr, title, found := strings.Cut(rest, ":")
			if !found {
				return nil, false
			}
			num, err := strconv.Atoi(strings.TrimSpace(numStr))
			if err != nil {
				return nil, false
			}
			cards = append(cards, InsightCard{Number: num, Title: strings.TrimSpace(title)})
			current = &cards[len(cards)-1]
			continue
		}
		if current == nil {
			return nil, false
		}
		label, text, found := strings.Cut(line, ":")
		if !found {
			// Unlabeled continuation text folds into the previous line.
			if len(current.Lines) == 0 {
				current.Title = strings.TrimSpace(current.Title + " " + line)
				continue
			}
			last := &current.Lines[len(current.Lines)-1]
			last.Text = strings.TrimSpace(last.Text + " " + line)
			continue
		}
		current.Lines = append(current.Lines, InsightLine{
			Label: strings.TrimSpace(label),
			Text:  strings.TrimSpace(text),
		})
	}
	return cards, true
}

// FormatProofOfWork renders completed deliverables under the fixed
// headers clients expect in a proof_of_work section.
func FormatProofOfWork(items []*types.Deliverable) string {
	groups := map[string][]*types.Deliverable{}
	for _, d := range items {
		groups[d.Kind] = append(groups[d.Kind], d)
	}

	var b strings.Builder
	writeGroup := func(header, kind string) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(header)
		list := groups[kind]
		if len(list) == 0 {
			b.WriteString("\n(none this period)")
			return
		}
		for _, d := range list {
			b.WriteString("\n- " + d.Title)
			if strings.TrimSpace(d.Description) != "" {
				b.WriteString(": " + d.Description)
			}
		}
	}
	writeGroup("DELIVERABLES COMPLETED:", types.DeliverableKindDeliverable)
	writeGroup("CHANGES SHIPPED:", types.DeliverableKindChange)
	writeGroup("TESTS LAUNCHED:", types.DeliverableKindTest)
	return b.String()
}

// SectionView pairs a stored section with its parsed structure when
// the content follows the section-type convention. A section that does
// not parse carries only its raw content and renders as paragraphs.
type SectionView struct {
	Section   *types.ReportSection `json:"section"`
	NextSteps []NextStepRow        `json:"next_steps,omitempty"`
	Insights  []InsightCard        `json:"insights,omitempty"`
}

func BuildSectionViews(sections []types.ReportSection) []SectionView {
	views := make([]SectionView, 0, len(sections))
	for i := range sections {
		s := &sections[i]
		v := SectionView{Section: s}
		switch s.SectionType {
		case types.SectionTypeNextSteps:
			if rows, ok := ParseNextSteps(s.Content); ok {
				v.NextSteps = rows
			}
		case types.SectionTypeInsights:
			if cards, ok := ParseInsights(s.Content); ok {
				v.Insights = cards
			}
		}
		views = append(views, v)
	}
	return views
}

func nonEmptyLines(content string) []string {
	raw := strings.Split(content, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func normalizePipeLine(line string) string {
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.ToLower(strings.TrimSpace(cells[i]))
	}
	return strings.Join(cells, "|")
}
