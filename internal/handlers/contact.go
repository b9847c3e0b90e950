// internal/handlers/contact.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexfield/filings-backend/internal/models"
	"github.com/lexfield/filings-backend/internal/services"
	"github.com/lexfield/filings-backend/internal/utils"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// POST /api/contact
func (h *ContactHandler) Create(c *gin.Context) {
	var req services.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	contact, err := h.contactService.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Contact")
		return
	}

	utils.CreatedResponse(c, gin.H{"contact": contact})
}

// GET /api/contact
func (h *ContactHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := services.ContactListFilter{
		Status:      c.Query("status"),
		ServiceType: c.Query("serviceType"),
	}

	contacts, total, err := h.contactService.List(params, filter)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(contacts, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /api/contact/:id
func (h *ContactHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contact ID", nil)
		return
	}

	contact, err := h.contactService.Get(id)
	if err != nil {
		respondServiceError(c, err, "Contact")
		return
	}

	utils.SuccessResponse(c, gin.H{"contact": contact})
}

// PATCH /api/contact/:id/status
func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contact ID", nil)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	contact, err := h.contactService.UpdateStatus(id, models.ContactStatus(req.Status))
	if err != nil {
		respondServiceError(c, err, "Contact")
		return
	}

	utils.SuccessResponse(c, gin.H{"contact": contact})
}

// DELETE /api/contact/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid contact ID", nil)
		return
	}

	if err := h.contactService.Delete(id); err != nil {
		respondServiceError(c, err, "Contact")
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "Contact deleted"})
}
