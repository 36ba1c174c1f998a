package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (rh *ReportHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}

	input := services.GenerateReportInput{
		Title: c.PostForm("title"),
		Tier:  c.PostForm("tier"),
	}
	var err error
	if input.PeriodStart, err = time.Parse("2006-01-02", c.PostForm("period_start")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start, expected YYYY-MM-DD"})
		return
	}
	if input.PeriodEnd, err = time.Parse("2006-01-02", c.PostForm("period_end")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end, expected YYYY-MM-DD"})
		return
	}

	switch input.Tier {
	case "kpi":
		totals := services.KPITotals{}
		totals.Leads = formFloat(c, "leads")
		totals.Spend = formFloat(c, "spend")
		totals.Revenue = formFloat(c, "revenue")
		totals.WebsiteTraffic = formFloat(c, "website_traffic")
		totals.Conversions = formFloat(c, "conversions")
		input.KPIData = &totals
	case "csv":
		file, _, fErr := c.Request.FormFile("file")
		if fErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a csv file is required"})
			return
		}
		defer file.Close()
		input.CSV = file
	}

	result, err := rh.reportService.Generate(c.Request.Context(), rd.OrgID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Missing or malformed values read as zero.
func formFloat(c *gin.Context, key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

func (rh *ReportHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var (
		reports interface{}
		err     error
	)
	if rd.IsAdmin() {
		reports, err = rh.reportService.ListForOrg(c.Request.Context(), rd.OrgID)
	} else {
		reports, err = rh.reportService.ListClientVisible(c.Request.Context(), rd.OrgID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (rh *ReportHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	reportID, err := uuid.Parse(c.Param("reportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	report, err := rh.reportService.Get(c.Request.Context(), rd.OrgID, reportID)
	if err != nil {
		respondError(c, err)
		return
	}
	// Drafts and agency-only reports do not exist from a member's view.
	if !rd.IsAdmin() && (report.Status != types.ReportStatusPublished || !report.ClientVisible) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report":   report,
		"sections": services.BuildSectionViews(report.Sections),
	})
}

func (rh *ReportHandler) Publish(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	reportID, err := uuid.Parse(c.Param("reportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	var req struct {
		ClientVisible *bool `json:"client_visible"`
	}
	_ = c.ShouldBindJSON(&req)
	clientVisible := true
	if req.ClientVisible != nil {
		clientVisible = *req.ClientVisible
	}
	report, err := rh.reportService.Publish(c.Request.Context(), rd.OrgID, reportID, clientVisible)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (rh *ReportHandler) ExportCSV(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	reportID, err := uuid.Parse(c.Param("reportID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	report, err := rh.reportService.Get(c.Request.Context(), rd.OrgID, reportID)
	if err != nil {
		respondError(c, err)
		return
	}
	// Same visibility rule as Get: agency-only reports do not exist
	// from a member's view, exports included.
	if !rd.IsAdmin() && (report.Status != types.ReportStatusPublished || !report.ClientVisible) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	data, filename, err := rh.reportService.ExportCSV(c.Request.Context(), rd.OrgID, reportID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}
