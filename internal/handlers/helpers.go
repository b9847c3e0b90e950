// internal/handlers/helpers.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lexfield/filings-backend/internal/services"
	"github.com/lexfield/filings-backend/internal/utils"
)

func principalFromContext(c *gin.Context) (services.Principal, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return services.Principal{}, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return services.Principal{}, false
	}

	return services.Principal{
		UserID: userID,
		Admin:  utils.IsAdminFromContext(c),
	}, true
}

// respondServiceError translates the service error taxonomy into the uniform
// response envelope.
func respondServiceError(c *gin.Context, err error, resource string) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrNotOwner):
		utils.ForbiddenResponse(c, "You do not own this application")
	case errors.Is(err, services.ErrInvalidStep):
		utils.BadRequestResponse(c, "Step is outside the valid range", nil)
	case errors.Is(err, services.ErrInvalidStatus):
		utils.BadRequestResponse(c, "Invalid status transition", nil)
	case errors.Is(err, services.ErrDuplicateContact):
		utils.TooManyRequestsResponse(c, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		utils.PayloadTooLargeResponse(c, err.Error())
	case errors.Is(err, services.ErrDisallowedFileType),
		errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrTooManyFiles):
		utils.ErrorResponse(c, 400, "UPLOAD_REJECTED", err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
