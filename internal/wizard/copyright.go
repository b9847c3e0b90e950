// internal/wizard/copyright.go
package wizard

import (
	"context"

	"github.com/lexfield/filings-backend/internal/apiclient"
)

// NewCopyrightFlow builds the six-step copyright filing flow:
// work details, author and applicant, file upload, payment, review,
// confirmation.
func NewCopyrightFlow(svc Service) *Flow {
	steps := []Step{
		{
			Number:   1,
			Name:     "Work Details",
			Validate: requireFields(1, "title"),
			Run: func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
				if s.ApplicationID != "" {
					return svc.SaveStep(ctx, s.Resource, s.ApplicationID, 2, s.Fields)
				}
				return svc.CreateApplication(ctx, s.Resource, s.Fields)
			},
		},
		{
			Number:   2,
			Name:     "Author & Applicant",
			Validate: requireFields(2, "applicant_name", "applicant_email"),
			Run:      saveStep(2),
		},
		{
			Number: 3,
			Name:   "Work File Upload",
			Validate: func(s *State) error {
				if len(s.Files["primary"]) == 0 {
					return &ValidationError{Step: 3, Missing: []string{"primary"}}
				}
				return nil
			},
			Run: func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
				if s.ApplicationID == "" {
					return nil, ErrNoApplication
				}
				app, err := svc.UploadPrimaryFile(ctx, s.ApplicationID, s.Files["primary"][0])
				if err != nil {
					return nil, err
				}
				if docs := s.Files["documents"]; len(docs) > 0 {
					app, err = svc.UploadSupportingDocuments(ctx, s.Resource, s.ApplicationID, docs)
					if err != nil {
						return nil, err
					}
				}
				if _, err := svc.SaveStep(ctx, s.Resource, s.ApplicationID, 4, s.Fields); err != nil {
					return nil, err
				}
				return app, nil
			},
		},
		{
			Number:   4,
			Name:     "Payment",
			Validate: validatePayment(4),
			Run:      runPayment(4),
		},
		{
			Number: 5,
			Name:   "Review",
			Run:    runRefresh,
		},
		{
			Number: 6,
			Name:   "Confirmation",
		},
	}

	return newFlow(svc, apiclient.ResourceCopyright, steps)
}
