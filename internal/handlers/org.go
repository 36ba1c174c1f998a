package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
)

type OrgHandler struct {
	orgService services.OrgService
}

func NewOrgHandler(orgService services.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

func (oh *OrgHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	var req struct {
		Name         string `json:"name"`
		BillingEmail string `json:"billing_email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	org, err := oh.orgService.CreateOrg(c.Request.Context(), rd.UserID, req.Name, req.BillingEmail)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"org": org})
}

func (oh *OrgHandler) ListMine(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	memberships, err := oh.orgService.ListMyOrgs(c.Request.Context(), rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}

func (oh *OrgHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	org, err := oh.orgService.GetOrg(c.Request.Context(), rd.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"org": org})
}

func (oh *OrgHandler) ListMembers(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	members, err := oh.orgService.ListMembers(c.Request.Context(), rd.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (oh *OrgHandler) InviteMember(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}
	membership, err := oh.orgService.InviteMember(c.Request.Context(), rd.OrgID, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"membership": membership})
}
