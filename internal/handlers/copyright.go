// internal/handlers/copyright.go
package handlers

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/services"
	"github.com/lexfield/filings-backend/internal/utils"
)

type CopyrightHandler struct {
	copyrightService *services.CopyrightService
	storageService   *services.StorageService
	maxFiles         int
}

func NewCopyrightHandler(copyrightService *services.CopyrightService, storageService *services.StorageService, maxFiles int) *CopyrightHandler {
	return &CopyrightHandler{
		copyrightService: copyrightService,
		storageService:   storageService,
		maxFiles:         maxFiles,
	}
}

// POST /api/copyright
func (h *CopyrightHandler) Create(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateCopyrightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.copyrightService.Create(c.Request.Context(), principal.UserID, &req)
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.CreatedResponse(c, gin.H{"application": app})
}

// GET /api/copyright
func (h *CopyrightHandler) List(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	apps, total, err := h.copyrightService.List(principal, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(apps, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/copyright/:id
func (h *CopyrightHandler) Get(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	app, err := h.copyrightService.Get(id, principal)
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/copyright/:id/primary-file
func (h *CopyrightHandler) UploadPrimaryFile(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("primary")
	if err != nil {
		utils.BadRequestResponse(c, "A file is required in the 'primary' field", nil)
		return
	}

	stored, err := h.storageService.SaveUpload(fileHeader, services.ResourceCopyright, "primary")
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	app, err := h.copyrightService.AttachPrimary(id, principal, stored)
	if err != nil {
		// The file was already written; undo it before reporting.
		h.storageService.Remove(stored.Path)
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/copyright/:id/supporting-documents
func (h *CopyrightHandler) UploadSupportingDocuments(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	stored, err := h.saveMultiFiles(c, "documents")
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	app, err := h.copyrightService.AttachDocuments(id, principal, stored)
	if err != nil {
		removeStored(h.storageService, stored)
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// PATCH /api/copyright/:id/step
func (h *CopyrightHandler) UpdateStep(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req services.AdvanceStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.copyrightService.AdvanceStep(id, principal, &req)
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// POST /api/copyright/:id/payment
func (h *CopyrightHandler) RecordPayment(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req services.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	app, err := h.copyrightService.RecordPayment(c.Request.Context(), id, principal, &req)
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// PATCH /api/copyright/:id/status (admin review)
func (h *CopyrightHandler) UpdateStatus(c *gin.Context) {
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

	app, err := h.copyrightService.UpdateStatus(id, models.ApplicationStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"application": app})
}

// DELETE /api/copyright/:id
func (h *CopyrightHandler) Delete(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	if err := h.copyrightService.Delete(id, principal); err != nil {
		respondServiceError(c, err, "Copyright application")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Application deleted"})
}

// GET /api/copyright/:id/download/:fileId
func (h *CopyrightHandler) Download(c *gin.Context) {
	principal, id, ok := h.principalAndID(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file ID", nil)
		return
	}

	attachment, err := h.copyrightService.FindAttachment(id, fileID, principal)
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

func (h *CopyrightHandler) principalAndID(c *gin.Context) (services.Principal, uuid.UUID, bool) {
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

// saveMultiFiles validates and persists a bounded multi-file upload field.
// When a later file fails, files already written for this request are
// removed so a rejected request leaves no orphans behind.
func (h *CopyrightHandler) saveMultiFiles(c *gin.Context, field string) ([]*services.StoredFile, error) {
	return saveMultipartFiles(c, h.storageService, services.ResourceCopyright, field, h.maxFiles)
}

func saveMultipartFiles(c *gin.Context, storage *services.StorageService, resource, field string, maxFiles int) ([]*services.StoredFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, services.ErrNoFiles
	}

	files := form.File[field]
	if len(files) == 0 {
		return nil, services.ErrNoFiles
	}
	if len(files) > maxFiles {
		return nil, services.ErrTooManyFiles
	}

	stored := make([]*services.StoredFile, 0, len(files))
	for _, fileHeader := range files {
		sf, err := storage.SaveUpload(fileHeader, resource, field)
		if err != nil {
			removeStored(storage, stored)
			return nil, err
		}
		stored = append(stored, sf)
	}

	return stored, nil
}

func removeStored(storage *services.StorageService, stored []*services.StoredFile) {
	for _, sf := range stored {
		storage.Remove(sf.Path)
	}
}
