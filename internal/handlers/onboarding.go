package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
)

type OnboardingHandler struct {
	onboardingService services.OnboardingService
}

func NewOnboardingHandler(onboardingService services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

func (oh *OnboardingHandler) ListSteps(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	steps, err := oh.onboardingService.ListSteps(c.Request.Context(), rd.OrgID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (oh *OnboardingHandler) CreateNode(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	var req services.CreateNodeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	node, err := oh.onboardingService.CreateNode(c.Request.Context(), rd.OrgID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"node": node})
}

func (oh *OnboardingHandler) UpdateNode(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	node, err := oh.onboardingService.UpdateNode(c.Request.Context(), rd.OrgID, nodeID, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"node": node})
}

func (oh *OnboardingHandler) DeleteNode(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	if err := oh.onboardingService.DeleteNode(c.Request.Context(), rd.OrgID, nodeID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (oh *OnboardingHandler) ViewInvoice(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	html, paid, err := oh.onboardingService.InvoiceHTML(c.Request.Context(), rd.OrgID, nodeID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if paid {
		c.JSON(http.StatusOK, gin.H{"view": "invoice_paid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": "invoice", "html": html})
}

func (oh *OnboardingHandler) CompleteStep(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	var req struct {
		Metadata map[string]interface{} `json:"metadata"`
	}
	// Body is optional; most step types complete with no metadata.
	_ = c.ShouldBindJSON(&req)
	progress, err := oh.onboardingService.RecordCompletion(c.Request.Context(), rd.OrgID, rd.UserID, nodeID, req.Metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (oh *OnboardingHandler) NextStep(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	node, err := oh.onboardingService.NextStep(c.Request.Context(), rd.OrgID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if node == nil {
		c.JSON(http.StatusOK, gin.H{"done": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": false, "node": node})
}
