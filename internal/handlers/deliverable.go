package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyloop/agencyloop-backend/internal/requestdata"
	"github.com/agencyloop/agencyloop-backend/internal/services"
)

type DeliverableHandler struct {
	deliverableService services.DeliverableService
}

func NewDeliverableHandler(deliverableService services.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{deliverableService: deliverableService}
}

func (dh *DeliverableHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	input := services.CreateDeliverableInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Kind:        c.PostForm("kind"),
	}
	if v := c.PostForm("client_visible"); v != "" {
		visible := v == "true" || v == "1"
		input.ClientVisible = &visible
	}
	if file, header, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		input.File = file
		input.FileName = header.Filename
		input.FileMimeType = header.Header.Get("Content-Type")
	}

	result, err := dh.deliverableService.Create(c.Request.Context(), rd.OrgID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (dh *DeliverableHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	rows, err := dh.deliverableService.List(c.Request.Context(), rd.OrgID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliverables": rows})
}

func (dh *DeliverableHandler) Complete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if !rd.IsAdmin() {
		respondError(c, errAdminRequired)
		return
	}
	deliverableID, err := uuid.Parse(c.Param("deliverableID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deliverable id"})
		return
	}
	row, err := dh.deliverableService.Complete(c.Request.Context(), rd.OrgID, deliverableID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliverable": row})
}
