// internal/services/errors.go
package services

import (
	"errors"

	"github.com/google/uuid"
)

// Service error taxonomy. Handlers map these onto the HTTP envelope:
// validation 400, not-found 404, ownership 403, duplicates/throttle 429,
// upload rejections 400/413, everything else 500. No operation retries; a
// failure is terminal for its request.
var (
	ErrNotFound           = errors.New("record not found")
	ErrNotOwner           = errors.New("not the owner of this application")
	ErrInvalidStep        = errors.New("step outside the valid range")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrDuplicateContact   = errors.New("a matching inquiry was already received in the last 24 hours")
	ErrFileTooLarge       = errors.New("file exceeds the 50MB upload limit")
	ErrDisallowedFileType = errors.New("file type is not allowed")
	ErrNoFiles            = errors.New("no files in request")
	ErrTooManyFiles       = errors.New("too many files in request")
)

// Principal is the authenticated caller as seen by the services. Admins pass
// every ownership check.
type Principal struct {
	UserID uuid.UUID
	Admin  bool
}

func (p Principal) owns(applicantID uuid.UUID) bool {
	return p.Admin || p.UserID == applicantID
}
