// internal/wizard/patent.go
package wizard

import (
	"context"

	"github.com/lexfield/filings-backend/internal/apiclient"
)

// NewPatentFlow builds the seven-step patent filing flow: invention
// details, inventor and applicant, claims, drawings and documents,
// payment, review, confirmation.
func NewPatentFlow(svc Service) *Flow {
	steps := []Step{
		{
			Number:   1,
			Name:     "Invention Details",
			Validate: requireFields(1, "invention_title"),
			Run: func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
				if s.ApplicationID != "" {
					return svc.SaveStep(ctx, s.Resource, s.ApplicationID, 2, s.Fields)
				}
				return svc.CreateApplication(ctx, s.Resource, s.Fields)
			},
		},
		{
			Number:   2,
			Name:     "Inventor & Applicant",
			Validate: requireFields(2, "inventor_name", "applicant_name"),
			Run:      saveStep(2),
		},
		{
			Number:   3,
			Name:     "Claims & Abstract",
			Validate: requireFields(3, "abstract"),
			Run:      saveStep(3),
		},
		{
			Number: 4,
			Name:   "Drawings & Documents",
			Run: func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
				if s.ApplicationID == "" {
					return nil, ErrNoApplication
				}
				app, err := svc.GetApplication(ctx, s.Resource, s.ApplicationID)
				if err != nil {
					return nil, err
				}
				if drawings := s.Files["drawings"]; len(drawings) > 0 {
					app, err = svc.UploadTechnicalDrawings(ctx, s.ApplicationID, drawings)
					if err != nil {
						return nil, err
					}
				}
				if docs := s.Files["documents"]; len(docs) > 0 {
					app, err = svc.UploadSupportingDocuments(ctx, s.Resource, s.ApplicationID, docs)
					if err != nil {
						return nil, err
					}
				}
				if _, err := svc.SaveStep(ctx, s.Resource, s.ApplicationID, 5, s.Fields); err != nil {
					return nil, err
				}
				return app, nil
			},
		},
		{
			Number:   5,
			Name:     "Payment",
			Validate: validatePayment(5),
			Run:      runPayment(5),
		},
		{
			Number: 6,
			Name:   "Review",
			Run:    runRefresh,
		},
		{
			Number: 7,
			Name:   "Confirmation",
		},
	}

	return newFlow(svc, apiclient.ResourcePatents, steps)
}
