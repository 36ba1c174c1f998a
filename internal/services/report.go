package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type GenerateReportInput struct {
	Title       string
	Tier        string
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Tier kpi: manually entered totals.
	KPIData *KPITotals

	// Tier csv: uploaded file.
	CSV io.Reader
}

type GenerateReportResult struct {
	Report  *types.Report `json:"report"`
	Summary KPISummary    `json:"summary"`
	Preview *CSVPreview   `json:"csv_preview,omitempty"`
}

type ReportService interface {
	Generate(ctx context.Context, orgID uuid.UUID, input GenerateReportInput) (*GenerateReportResult, error)
	Get(ctx context.Context, orgID, reportID uuid.UUID) (*types.Report, error)
	ListForOrg(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error)
	ListClientVisible(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error)
	Publish(ctx context.Context, orgID, reportID uuid.UUID, clientVisible bool) (*types.Report, error)
	AutoPopulateProofOfWork(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (string, error)
	ExportCSV(ctx context.Context, orgID, reportID uuid.UUID) ([]byte, string, error)
}

type reportService struct {
	db              *gorm.DB
	log             *logger.Logger
	reportRepo      repos.ReportRepo
	sectionRepo     repos.ReportSectionRepo
	metricRepo      repos.MetricRepo
	deliverableRepo repos.DeliverableRepo
	membershipRepo  repos.OrgMembershipRepo
	orgRepo         repos.OrgRepo
	notifier        Notifier
}

func NewReportService(
	db *gorm.DB,
	log *logger.Logger,
	reportRepo repos.ReportRepo,
	sectionRepo repos.ReportSectionRepo,
	metricRepo repos.MetricRepo,
	deliverableRepo repos.DeliverableRepo,
	membershipRepo repos.OrgMembershipRepo,
	orgRepo repos.OrgRepo,
	notifier Notifier,
) ReportService {
	serviceLog := log.With("service", "ReportService")
	return &reportService{
		db:              db,
		log:             serviceLog,
		reportRepo:      reportRepo,
		sectionRepo:     sectionRepo,
		metricRepo:      metricRepo,
		deliverableRepo: deliverableRepo,
		membershipRepo:  membershipRepo,
		orgRepo:         orgRepo,
		notifier:        notifier,
	}
}

func (rs *reportService) Generate(ctx context.Context, orgID uuid.UUID, input GenerateReportInput) (*GenerateReportResult, error) {
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, validationErrorf("period start and end are required")
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, validationErrorf("period end is before period start")
	}

	var (
		summary KPISummary
		preview *CSVPreview
	)

	switch input.Tier {
	case types.ReportTierKPI:
		if input.KPIData == nil {
			return nil, validationErrorf("kpi data is required for a kpi-tier report")
		}
		summary = SummaryFromTotals(*input.KPIData)
	case types.ReportTierCSV:
		if input.CSV == nil {
			return nil, validationErrorf("a csv file is required for a csv-tier report")
		}
		p, err := ParseKPICSV(input.CSV)
		if err != nil {
			return nil, err
		}
		preview = p
		summary = SummaryFromTotals(p.Totals)
	case types.ReportTierAuto, "":
		input.Tier = types.ReportTierAuto
	default:
		return nil, validationErrorf("unknown report tier %q", input.Tier)
	}

	// Metric rows and deliverables are independent fetches.
	var proofOfWork string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		proofOfWork, err = rs.AutoPopulateProofOfWork(gctx, orgID, input.PeriodStart, input.PeriodEnd)
		return err
	})
	if input.Tier == types.ReportTierAuto {
		g.Go(func() error {
			rows, err := rs.metricRepo.GetByOrgPeriodOverlap(gctx, nil, orgID, input.PeriodStart, input.PeriodEnd)
			if err != nil {
				return fmt.Errorf("failed to fetch metrics for report: %w", err)
			}
			summary = SummarizeMetrics(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	title := input.Title
	if title == "" {
		title = fmt.Sprintf("Performance report %s to %s",
			input.PeriodStart.Format("Jan 2, 2006"), input.PeriodEnd.Format("Jan 2, 2006"))
	}

	report := &types.Report{
		ID:          uuid.New(),
		OrgID:       orgID,
		Title:       title,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Status:      types.ReportStatusDraft,
		Tier:        input.Tier,
	}
	sections := buildReportSections(report.ID, summary, proofOfWork)

	if err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := rs.reportRepo.Create(ctx, tx, []*types.Report{report}); err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		if _, err := rs.sectionRepo.Create(ctx, tx, sections); err != nil {
			return fmt.Errorf("failed to create report sections: %w", err)
		}
		// KPI and CSV tiers snapshot their totals as a metric row so
		// later auto-tier reports can see them.
		if input.Tier != types.ReportTierAuto && summary.HasData {
			m := &types.Metric{
				ID:             uuid.New(),
				OrgID:          orgID,
				PeriodStart:    input.PeriodStart,
				PeriodEnd:      input.PeriodEnd,
				Leads:          summary.Totals.Leads,
				Spend:          summary.Totals.Spend,
				Revenue:        summary.Totals.Revenue,
				WebsiteTraffic: summary.Totals.WebsiteTraffic,
				Conversions:    summary.Totals.Conversions,
				Source:         input.Tier,
			}
			if _, err := rs.metricRepo.Create(ctx, tx, []*types.Metric{m}); err != nil {
				return fmt.Errorf("failed to snapshot report metrics: %w", err)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	report.Sections = make([]types.ReportSection, 0, len(sections))
	for _, s := range sections {
		report.Sections = append(report.Sections, *s)
	}
	return &GenerateReportResult{Report: report, Summary: summary, Preview: preview}, nil
}

func buildReportSections(reportID uuid.UUID, summary KPISummary, proofOfWork string) []*types.ReportSection {
	summaryText := "No data recorded for this period."
	metricsText := ""
	if summary.HasData {
		summaryText = fmt.Sprintf("Across this period the campaign generated %s leads on %s of spend, returning %s in revenue.",
			trimFloat(summary.Totals.Leads), "$"+trimFloat(summary.Totals.Spend), "$"+trimFloat(summary.Totals.Revenue))
		metricsText = formatMetricsSection(summary)
	}

	mk := func(i int, sectionType, title, content string) *types.ReportSection {
		return &types.ReportSection{
			ID:          uuid.New(),
			ReportID:    reportID,
			SectionType: sectionType,
			Title:       title,
			Content:     content,
			OrderIndex:  i,
		}
	}
	return []*types.ReportSection{
		mk(0, types.SectionTypeSummary, "Summary", summaryText),
		mk(1, types.SectionTypeMetrics, "Key metrics", metricsText),
		mk(2, types.SectionTypeInsights, "Insights", ""),
		mk(3, types.SectionTypeRecommendations, "Recommendations", ""),
		mk(4, types.SectionTypeNextSteps, "Next steps", nextStepsHeader),
		mk(5, types.SectionTypeProofOfWork, "Proof of work", proofOfWork),
	}
}

func formatMetricsSection(summary KPISummary) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Leads: %s\n", trimFloat(summary.Totals.Leads))
	fmt.Fprintf(&b, "Spend: $%s\n", trimFloat(summary.Totals.Spend))
	fmt.Fprintf(&b, "Revenue: $%s\n", trimFloat(summary.Totals.Revenue))
	fmt.Fprintf(&b, "Website traffic: %s\n", trimFloat(summary.Totals.WebsiteTraffic))
	fmt.Fprintf(&b, "Conversions: %s\n", trimFloat(summary.Totals.Conversions))
	if summary.CPL != nil {
		fmt.Fprintf(&b, "Cost per lead: $%.2f\n", *summary.CPL)
	}
	if summary.ROAS != nil {
		fmt.Fprintf(&b, "ROAS: %.2fx\n", *summary.ROAS)
	}
	if summary.ConversionRate != nil {
		fmt.Fprintf(&b, "Conversion rate: %.2f%%\n", *summary.ConversionRate)
	}
	return b.String()
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (rs *reportService) Get(ctx context.Context, orgID, reportID uuid.UUID) (*types.Report, error) {
	reports, err := rs.reportRepo.GetByIDs(ctx, nil, []uuid.UUID{reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if len(reports) == 0 || reports[0].OrgID != orgID {
		return nil, notFoundErrorf("report %s", reportID)
	}
	return reports[0], nil
}

func (rs *reportService) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error) {
	reports, err := rs.reportRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (rs *reportService) ListClientVisible(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error) {
	reports, err := rs.reportRepo.GetClientVisibleByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client reports: %w", err)
	}
	return FilterClientVisible(reports), nil
}

// FilterClientVisible drops anything that is not published and client
// visible. The repo query already filters; this is the invariant stated
// once, applied everywhere a list can leave the agency view.
func FilterClientVisible(reports []*types.Report) []*types.Report {
	out := make([]*types.Report, 0, len(reports))
	for _, r := range reports {
		if r.Status == types.ReportStatusPublished && r.ClientVisible {
			out = append(out, r)
		}
	}
	return out
}

func (rs *reportService) Publish(ctx context.Context, orgID, reportID uuid.UUID, clientVisible bool) (*types.Report, error) {
	report, err := rs.Get(ctx, orgID, reportID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":         types.ReportStatusPublished,
		"client_visible": clientVisible,
		"published_at":   &now,
	}
	if err := rs.reportRepo.UpdateFields(ctx, nil, reportID, updates); err != nil {
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}
	report.Status = types.ReportStatusPublished
	report.ClientVisible = clientVisible
	report.PublishedAt = &now

	if clientVisible {
		rs.notifyReportPublished(ctx, orgID, report)
	}
	return report, nil
}

func (rs *reportService) notifyReportPublished(ctx context.Context, orgID uuid.UUID, report *types.Report) {
	if rs.notifier == nil {
		return
	}
	orgs, err := rs.orgRepo.GetByIDs(ctx, nil, []uuid.UUID{orgID})
	if err != nil || len(orgs) == 0 {
		rs.log.Warn("Failed to load org for report notification", "error", err)
		return
	}
	members, err := rs.membershipRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		rs.log.Warn("Failed to load members for report notification", "error", err)
		return
	}
	emails := make([]string, 0, len(members))
	for _, m := range members {
		if m.User != nil && m.User.Email != "" {
			emails = append(emails, m.User.Email)
		}
	}
	if err := rs.notifier.ReportPublished(ctx, orgs[0], report, emails); err != nil {
		rs.log.Warn("Report published notification failed", "error", err, "report_id", report.ID)
	}
}

func (rs *reportService) AutoPopulateProofOfWork(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (string, error) {
	items, err := rs.deliverableRepo.GetCompletedClientVisibleInPeriod(ctx, nil, orgID, periodStart, periodEnd)
	if err != nil {
		return "", fmt.Errorf("failed to fetch deliverables for proof of work: %w", err)
	}
	return FormatProofOfWork(items), nil
}

// ExportCSV emits the metric rows underlying a published report plus a
// totals row. Draft reports are not exportable.
func (rs *reportService) ExportCSV(ctx context.Context, orgID, reportID uuid.UUID) ([]byte, string, error) {
	report, err := rs.Get(ctx, orgID, reportID)
	if err != nil {
		return nil, "", err
	}
	if report.Status != types.ReportStatusPublished {
		return nil, "", validationErrorf("only published reports can be exported")
	}
	rows, err := rs.metricRepo.GetByOrgPeriodOverlap(ctx, nil, orgID, report.PeriodStart, report.PeriodEnd)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch metrics for export: %w", err)
	}
	summary := SummarizeMetrics(rows)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"period_start", "period_end", "leads", "spend", "revenue", "website_traffic", "conversions"})
	for _, m := range rows {
		_ = w.Write([]string{
			m.PeriodStart.Format("2006-01-02"),
			m.PeriodEnd.Format("2006-01-02"),
			trimFloat(m.Leads),
			trimFloat(m.Spend),
			trimFloat(m.Revenue),
			trimFloat(m.WebsiteTraffic),
			trimFloat(m.Conversions),
		})
	}
	_ = w.Write([]string{
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.Format("2006-01-02"),
		trimFloat(summary.Totals.Leads),
		trimFloat(summary.Totals.Spend),
		trimFloat(summary.Totals.Revenue),
		trimFloat(summary.Totals.WebsiteTraffic),
		trimFloat(summary.Totals.Conversions),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to write export csv: %w", err)
	}

	filename := fmt.Sprintf("report-%s.csv", report.PeriodStart.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
