package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/repos"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

// KPITotals are raw sums over a period.
type KPITotals struct {
	Leads          float64 `json:"leads"`
	Spend          float64 `json:"spend"`
	Revenue        float64 `json:"revenue"`
	WebsiteTraffic float64 `json:"website_traffic"`
	Conversions    float64 `json:"conversions"`
}

// KPISummary carries totals plus ratios derived from the summed totals.
// HasData distinguishes "no rows in the period" from "rows present but
// all zero"; an undefined ratio (zero denominator) is a nil pointer,
// never a zero.
type KPISummary struct {
	HasData        bool      `json:"has_data"`
	Rows           int       `json:"rows"`
	Totals         KPITotals `json:"totals"`
	CPL            *float64  `json:"cpl,omitempty"`
	ROAS           *float64  `json:"roas,omitempty"`
	ConversionRate *float64  `json:"conversion_rate,omitempty"`
}

// SummarizeMetrics implements the sum-then-derive policy: each KPI is
// summed independently across rows, and the ratios come from the summed
// totals. Averaging per-row ratios would be a materially different
// number and is deliberately not what this does.
func SummarizeMetrics(rows []*types.Metric) KPISummary {
	s := KPISummary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}
	s.HasData = true
	for _, m := range rows {
		s.Totals.Leads += m.Leads
		s.Totals.Spend += m.Spend
		s.Totals.Revenue += m.Revenue
		s.Totals.WebsiteTraffic += m.WebsiteTraffic
		s.Totals.Conversions += m.Conversions
	}
	s.deriveRatios()
	return s
}

func (s *KPISummary) deriveRatios() {
	if s.Totals.Leads != 0 {
		cpl := s.Totals.Spend / s.Totals.Leads
		s.CPL = &cpl
	}
	if s.Totals.Spend != 0 {
		roas := s.Totals.Revenue / s.Totals.Spend
		s.ROAS = &roas
	}
	if s.Totals.WebsiteTraffic != 0 {
		rate := s.Totals.Conversions / s.Totals.WebsiteTraffic * 100
		s.ConversionRate = &rate
	}
}

// SummaryFromTotals wraps manually entered or CSV-derived totals in the
// same summary shape, deriving ratios the same way.
func SummaryFromTotals(totals KPITotals) KPISummary {
	s := KPISummary{HasData: true, Rows: 1, Totals: totals}
	s.deriveRatios()
	return s
}

type MetricsService interface {
	AddMetric(ctx context.Context, orgID uuid.UUID, m *types.Metric) (*types.Metric, error)
	ListMetrics(ctx context.Context, orgID uuid.UUID) ([]*types.Metric, error)
	AggregateMetrics(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (KPISummary, error)
}

type metricsService struct {
	db         *gorm.DB
	log        *logger.Logger
	metricRepo repos.MetricRepo
}

func NewMetricsService(db *gorm.DB, log *logger.Logger, metricRepo repos.MetricRepo) MetricsService {
	serviceLog := log.With("service", "MetricsService")
	return &metricsService{db: db, log: serviceLog, metricRepo: metricRepo}
}

func (ms *metricsService) AddMetric(ctx context.Context, orgID uuid.UUID, m *types.Metric) (*types.Metric, error) {
	if m == nil {
		return nil, validationErrorf("metric body is required")
	}
	if m.PeriodStart.IsZero() || m.PeriodEnd.IsZero() {
		return nil, validationErrorf("period start and end are required")
	}
	if m.PeriodEnd.Before(m.PeriodStart) {
		return nil, validationErrorf("period end is before period start")
	}
	m.ID = uuid.New()
	m.OrgID = orgID
	if m.Source == "" {
		m.Source = "manual"
	}
	if _, err := ms.metricRepo.Create(ctx, nil, []*types.Metric{m}); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	return m, nil
}

func (ms *metricsService) ListMetrics(ctx context.Context, orgID uuid.UUID) ([]*types.Metric, error) {
	rows, err := ms.metricRepo.GetByOrgID(ctx, nil, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return rows, nil
}

func (ms *metricsService) AggregateMetrics(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (KPISummary, error) {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return KPISummary{}, validationErrorf("period start and end are required")
	}
	rows, err := ms.metricRepo.GetByOrgPeriodOverlap(ctx, nil, orgID, periodStart, periodEnd)
	if err != nil {
		return KPISummary{}, fmt.Errorf("failed to fetch metrics for period: %w", err)
	}
	return SummarizeMetrics(rows), nil
}
