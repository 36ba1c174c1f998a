package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
	"github.com/agencyloop/agencyloop-backend/internal/types"
)

type MetricHandler struct {
	metricsService services.MetricsService
}

func NewMetricHandler(metricsService services.MetricsService) *MetricHandler {
	return &MetricHandler{metricsService: metricsService}
}

func (mh *MetricHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	var req struct {
		PeriodStart    time.Time `json:"period_start"`
		PeriodEnd      time.Time `json:"period_end"`
		Leads          float64   `json:"leads"`
		Spend          float64   `json:"spend"`
		Revenue        float64   `json:"revenue"`
		WebsiteTraffic float64   `json:"website_traffic"`
		Conversions    float64   `json:"conversions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	metric := &types.Metric{
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		Leads:          req.Leads,
		Spend:          req.Spend,
		Revenue:        req.Revenue,
		WebsiteTraffic: req.WebsiteTraffic,
		Conversions:    req.Conversions,
	}
	created, err := mh.metricsService.AddMetric(c.Request.Context(), rd.OrgID, metric)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metric": created})
}

func (mh *MetricHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	metrics, err := mh.metricsService.ListMetrics(c.Request.Context(), rd.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

func (mh *MetricHandler) Aggregate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, expected YYYY-MM-DD"})
		return
	}
	summary, err := mh.metricsService.AggregateMetrics(c.Request.Context(), rd.OrgID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
