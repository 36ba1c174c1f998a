package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type stubReportService struct {
	report      *types.Report
	exportCalls int
}

func (s *stubReportService) Generate(ctx context.Context, orgID uuid.UUID, input services.GenerateReportInput) (*services.GenerateReportResult, error) {
	return nil, nil
}

func (s *stubReportService) Get(ctx context.Context, orgID, reportID uuid.UUID) (*types.Report, error) {
	return s.report, nil
}

func (s *stubReportService) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error) {
	return nil, nil
}

func (s *stubReportService) ListClientVisible(ctx context.Context, orgID uuid.UUID) ([]*types.Report, error) {
	return nil, nil
}

func (s *stubReportService) Publish(ctx context.Context, orgID, reportID uuid.UUID, clientVisible bool) (*types.Report, error) {
	return s.report, nil
}

func (s *stubReportService) AutoPopulateProofOfWork(ctx context.Context, orgID uuid.UUID, periodStart, periodEnd time.Time) (string, error) {
	return "", nil
}

func (s *stubReportService) ExportCSV(ctx context.Context, orgID, reportID uuid.UUID) ([]byte, string, error) {
	s.exportCalls++
	return []byte("metric,value\nleads,10\n"), "report.csv", nil
}

func reportRequestContext(w *httptest.ResponseRecorder, orgID, reportID uuid.UUID, role string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/orgs/"+orgID.String()+"/reports/"+reportID.String()+"/export", nil)
	rd := &requestdata.RequestData{UserID: uuid.New(), OrgID: orgID, OrgRole: role}
	c.Request = req.WithContext(requestdata.WithRequestData(req.Context(), rd))
	c.Params = gin.Params{{Key: "reportID", Value: reportID.String()}}
	return c
}

func TestExportCSV_MemberCannotExportHiddenReport(t *testing.T) {
	orgID := uuid.New()
	svc := &stubReportService{report: &types.Report{
		ID:            uuid.New(),
		OrgID:         orgID,
		Status:        types.ReportStatusPublished,
		ClientVisible: false,
	}}
	rh := NewReportHandler(svc)

	w := httptest.NewRecorder()
	rh.ExportCSV(reportRequestContext(w, orgID, svc.report.ID, requestdata.RoleMember))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a member on a hidden report, got %d", w.Code)
	}
	if svc.exportCalls != 0 {
		t.Fatalf("expected no export for a hidden report, got %d calls", svc.exportCalls)
	}
}

func TestExportCSV_MemberCannotExportDraft(t *testing.T) {
	orgID := uuid.New()
	svc := &stubReportService{report: &types.Report{
		ID:            uuid.New(),
		OrgID:         orgID,
		Status:        types.ReportStatusDraft,
		ClientVisible: true,
	}}
	rh := NewReportHandler(svc)

	w := httptest.NewRecorder()
	rh.ExportCSV(reportRequestContext(w, orgID, svc.report.ID, requestdata.RoleMember))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a member on a draft report, got %d", w.Code)
	}
	if svc.exportCalls != 0 {
		t.Fatalf("expected no export for a draft report, got %d calls", svc.exportCalls)
	}
}

func TestExportCSV_AdminExportsHiddenReport(t *testing.T) {
	orgID := uuid.New()
	svc := &stubReportService{report: &types.Report{
		ID:            uuid.New(),
		OrgID:         orgID,
		Status:        types.ReportStatusPublished,
		ClientVisible: false,
	}}
	rh := NewReportHandler(svc)

	w := httptest.NewRecorder()
	rh.ExportCSV(reportRequestContext(w, orgID, svc.report.ID, requestdata.RoleAdmin))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", w.Code)
	}
	if svc.exportCalls != 1 {
		t.Fatalf("expected one export call, got %d", svc.exportCalls)
	}
	if !strings.Contains(w.Body.String(), "metric,value") {
		t.Fatalf("expected csv payload, got %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "report.csv") {
		t.Fatalf("expected attachment disposition, got %q", got)
	}
}

func TestExportCSV_MemberExportsVisibleReport(t *testing.T) {
	orgID := uuid.New()
	svc := &stubReportService{report: &types.Report{
		ID:            uuid.New(),
		OrgID:         orgID,
		Status:        types.ReportStatusPublished,
		ClientVisible: true,
	}}
	rh := NewReportHandler(svc)

	w := httptest.NewRecorder()
	rh.ExportCSV(reportRequestContext(w, orgID, svc.report.ID, requestdata.RoleMember))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a visible published report, got %d", w.Code)
	}
	if svc.exportCalls != 1 {
		t.Fatalf("expected one export call, got %d", svc.exportCalls)
	}
}
