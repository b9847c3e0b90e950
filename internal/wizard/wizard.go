// Package wizard drives the multi-step filing flows. A Flow walks a
// fixed sequence of steps, validating collected fields locally before
// running the step's server call, and never advances past a step whose
// call failed. The server keeps the authoritative step and form
// snapshot, so an interrupted flow can be resumed from any client.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexfield/filings-backend/internal/apiclient"
)

var (
	ErrFlowComplete  = errors.New("flow is already complete")
	ErrNoApplication = errors.New("no application has been created yet")
)

// Service is the slice of the filings API a flow needs. It is satisfied
// by *apiclient.Client.
type Service interface {
	CreateApplication(ctx context.Context, resource string, fields map[string]interface{}) (*apiclient.Application, error)
	GetApplication(ctx context.Context, resource, id string) (*apiclient.Application, error)
	SaveStep(ctx context.Context, resource, id string, step int, fields map[string]interface{}) (*apiclient.Application, error)
	RecordPayment(ctx context.Context, resource, id string, amount float64, method string) (*apiclient.Application, error)
	UploadPrimaryFile(ctx context.Context, id, path string) (*apiclient.Application, error)
	UploadSupportingDocuments(ctx context.Context, resource, id string, paths []string) (*apiclient.Application, error)
	UploadTechnicalDrawings(ctx context.Context, id string, paths []string) (*apiclient.Application, error)
}

// State is the client-side working copy of an in-progress filing.
type State struct {
	Resource          string
	ApplicationID     string
	ApplicationNumber string
	Status            string
	Step              int
	Fields            map[string]interface{}
	Files             map[string][]string
}

// SetField records a collected form value.
func (s *State) SetField(key string, value interface{}) {
	if s.Fields == nil {
		s.Fields = make(map[string]interface{})
	}
	s.Fields[key] = value
}

// AddFile queues a local file path under an upload field.
func (s *State) AddFile(field, path string) {
	if s.Files == nil {
		s.Files = make(map[string][]string)
	}
	s.Files[field] = append(s.Files[field], path)
}

func (s *State) stringField(key string) string {
	v, ok := s.Fields[key]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return strings.TrimSpace(str)
}

func (s *State) floatField(key string) float64 {
	switch v := s.Fields[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// ValidationError reports fields a step still needs before it can run.
type ValidationError struct {
	Step    int
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d is missing required fields: %s", e.Step, strings.Join(e.Missing, ", "))
}

// Step is one stop in a flow. Validate checks the local state, Run
// performs the step's server call and returns the refreshed
// application. Either may be nil.
type Step struct {
	Number   int
	Name     string
	Validate func(s *State) error
	Run      func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error)
}

// Flow is a linear sequence of steps over a single application.
type Flow struct {
	svc   Service
	steps []Step
	state State
	done  bool
}

func newFlow(svc Service, resource string, steps []Step) *Flow {
	return &Flow{
		svc:   svc,
		steps: steps,
		state: State{
			Resource: resource,
			Step:     1,
			Fields:   make(map[string]interface{}),
			Files:    make(map[string][]string),
		},
	}
}

// State returns the mutable working state. Callers fill fields and
// queue files on it between calls to Next.
func (f *Flow) State() *State {
	return &f.state
}

// Current returns the step the flow is waiting on.
func (f *Flow) Current() Step {
	return f.steps[f.state.Step-1]
}

// StepCount reports the total number of steps in the flow.
func (f *Flow) StepCount() int {
	return len(f.steps)
}

// Done reports whether the final step has completed.
func (f *Flow) Done() bool {
	return f.done
}

// Next validates and runs the current step, then advances. On any
// error the flow stays on the current step so the caller can fix the
// state and retry.
func (f *Flow) Next(ctx context.Context) error {
	if f.done {
		return ErrFlowComplete
	}

	step := f.Current()
	if step.Validate != nil {
		if err := step.Validate(&f.state); err != nil {
			return err
		}
	}
	if step.Run != nil {
		app, err := step.Run(ctx, f.svc, &f.state)
		if err != nil {
			return err
		}
		f.apply(app)
	}

	if f.state.Step < len(f.steps) {
		f.state.Step++
	} else {
		f.done = true
	}
	return nil
}

// Back moves to the previous step without touching the server. The
// server snapshot is only moved forward, so going back is free.
func (f *Flow) Back() {
	if f.done {
		f.done = false
		return
	}
	if f.state.Step > 1 {
		f.state.Step--
	}
}

func (f *Flow) apply(app *apiclient.Application) {
	if app == nil {
		return
	}
	f.state.ApplicationID = app.ID
	if app.ApplicationNumber != "" {
		f.state.ApplicationNumber = app.ApplicationNumber
	}
	if app.Status != "" {
		f.state.Status = app.Status
	}
}

// Resume rebuilds a flow from the server's snapshot of an existing
// application, so a filing started elsewhere can be continued here.
func Resume(ctx context.Context, svc Service, resource, id string) (*Flow, error) {
	var flow *Flow
	switch resource {
	case apiclient.ResourceCopyright:
		flow = NewCopyrightFlow(svc)
	case apiclient.ResourcePatents:
		flow = NewPatentFlow(svc)
	default:
		return nil, fmt.Errorf("unknown resource %q", resource)
	}

	app, err := svc.GetApplication(ctx, resource, id)
	if err != nil {
		return nil, err
	}

	flow.apply(app)
	if len(app.FormData) > 0 {
		flow.state.Fields = app.FormData
	}
	if app.CurrentStep >= 1 && app.CurrentStep <= len(flow.steps) {
		flow.state.Step = app.CurrentStep
	}
	return flow, nil
}

// requireFields is the shared validator for steps that only need a set
// of non-empty string fields.
func requireFields(number int, keys ...string) func(s *State) error {
	return func(s *State) error {
		var missing []string
		for _, key := range keys {
			if s.stringField(key) == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{Step: number, Missing: missing}
		}
		return nil
	}
}

// saveStep persists the accumulated fields and moves the server-side
// snapshot to the step after this one.
func saveStep(number int) func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
	return func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
		if s.ApplicationID == "" {
			return nil, ErrNoApplication
		}
		return svc.SaveStep(ctx, s.Resource, s.ApplicationID, number+1, s.Fields)
	}
}

// runPayment records the payment, then moves the server snapshot past
// the payment step so a resumed flow does not pay twice.
func runPayment(number int) func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
	return func(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
		if s.ApplicationID == "" {
			return nil, ErrNoApplication
		}
		app, err := svc.RecordPayment(ctx, s.Resource, s.ApplicationID, s.floatField("amount"), s.stringField("payment_method"))
		if err != nil {
			return nil, err
		}
		if _, err := svc.SaveStep(ctx, s.Resource, s.ApplicationID, number+1, s.Fields); err != nil {
			return nil, err
		}
		return app, nil
	}
}

func validatePayment(number int) func(s *State) error {
	return func(s *State) error {
		if s.floatField("amount") <= 0 {
			return &ValidationError{Step: number, Missing: []string{"amount"}}
		}
		return nil
	}
}

func runRefresh(ctx context.Context, svc Service, s *State) (*apiclient.Application, error) {
	if s.ApplicationID == "" {
		return nil, ErrNoApplication
	}
	return svc.GetApplication(ctx, s.Resource, s.ApplicationID)
}
