// internal/handlers/patent.go
package handlers

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/services"
	"github.com/lexfield/filings-backend/internal/utils"
)

type PatentHandler struct {
	patentService  *services.PatentService
	storageService *services.StorageService
	maxFiles       int
}

func NewPatentHandler(patentService *services.PatentService, storageService *services.StorageService, maxFiles int) *PatentHandler {
	return &PatentHandler{
		patentService:  patentService,
		storageService: storageService,
		maxFiles:       maxFiles,
	}
}

// POST /api/patents
func (h *PatentHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreatePatentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.patentService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.CreatedResponse(c, gin.H{"application": app})
}

// GET /api/patents
func (h *PatentHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	apps, total, err := h.patentService.List(principal, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(apps, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/patents/:id
func (h *PatentHandler) Get(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	app, err := h.patentService.Get(id, principal)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/patents/:id/technical-drawings
func (h *PatentHandler) UploadTechnicalDrawings(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	stored, err := saveMultipartFiles(c, h.storageService, services.ResourcePatents, "drawings", h.maxFiles)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	app, err := h.patentService.AttachDrawings(id, principal, stored)
	if err != nil {
		removeStored(h.storageService, stored)
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/patents/:id/supporting-documents
func (h *PatentHandler) UploadSupportingDocuments(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	stored, err := saveMultipartFiles(c, h.storageService, services.ResourcePatents, "documents", h.maxFiles)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	app, err := h.patentService.AttachDocuments(id, principal, stored)
	if err != nil {
		removeStored(h.storageService, stored)
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// PATCH /api/patents/:id/step
func (h *PatentHandler) UpdateStep(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req services.AdvanceStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.patentService.AdvanceStep(id, principal, &req)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/patents/:id/payment
func (h *PatentHandler) RecordPayment(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req services.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.patentService.RecordPayment(c.Request.Context(), id, principal, &req)
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// PATCH /api/patents/:id/status (admin review)
func (h *PatentHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.patentService.UpdateStatus(id, models.ApplicationStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// DELETE /api/patents/:id
func (h *PatentHandler) Delete(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	if err := h.patentService.Delete(id, principal); err != nil {
		respondServiceError(c, err, "Patent application")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Application deleted"})
}

// GET /api/patents/:id/download/:fileId
func (h *PatentHandler) Download(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file ID", nil)
		return
	}

	attachment, err := h.patentService.FindAttachment(id, fileID, principal)
	if err != nil {
		respondServiceError(c, err, "File")
		return
	}

	if _, err := os.Stat(attachment.Path); err != nil {
		utils.NotFoundResponse(c, "File")
		return
	}

	c.FileAttachment(attachment.Path, attachment.OriginalName)
}

func (h *PatentHandler) principalAndID(c *gin.Context) (services.Principal, uuid.UUID, bool) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return services.Principal{}, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return services.Principal{}, uuid.Nil, false
	}

	return principal, id, true
}
