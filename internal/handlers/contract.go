package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
)

type ContractHandler struct {
	contractService services.ContractService
}

func NewContractHandler(contractService services.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func (ch *ContractHandler) View(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	html, hash, err := ch.contractService.ComposeForViewing(c.Request.Context(), rd.OrgID, nodeID, rd.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_html": html, "contract_hash": hash})
}

func (ch *ContractHandler) Sign(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req services.ContractSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	nodeID, err := uuid.Parse(c.Param("nodeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}
	req.NodeID = nodeID
	signature, err := ch.contractService.Sign(c.Request.Context(), rd.OrgID, rd.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": signature})
}
