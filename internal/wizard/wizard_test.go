package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/apiclient"
)

type fakeService struct {
	app         *apiclient.Application
	createCalls int
	stepCalls   []int
	payments    []float64
	primary     []string
	documents   [][]string
	drawings    [][]string
	failNext    error
}

func newFakeService() *fakeService {
	return &fakeService{
		app: &apiclient.Application{
			ID:                "11111111-1111-1111-1111-111111111111",
			ApplicationNumber: "CR-2026-00042",
			CurrentStep:       1,
			Status:            "draft",
		},
	}
}

func (f *fakeService) fail() error {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakeService) CreateApplication(ctx context.Context, resource string, fields map[string]interface{}) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.createCalls++
	return f.app, nil
}

func (f *fakeService) GetApplication(ctx context.Context, resource, id string) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.app, nil
}

func (f *fakeService) SaveStep(ctx context.Context, resource, id string, step int, fields map[string]interface{}) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.stepCalls = append(f.stepCalls, step)
	f.app.CurrentStep = step
	f.app.FormData = fields
	return f.app, nil
}

func (f *fakeService) RecordPayment(ctx context.Context, resource, id string, amount float64, method string) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.payments = append(f.payments, amount)
	f.app.Status = "submitted"
	return f.app, nil
}

func (f *fakeService) UploadPrimaryFile(ctx context.Context, id, path string) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.primary = append(f.primary, path)
	return f.app, nil
}

func (f *fakeService) UploadSupportingDocuments(ctx context.Context, resource, id string, paths []string) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.documents = append(f.documents, paths)
	return f.app, nil
}

func (f *fakeService) UploadTechnicalDrawings(ctx context.Context, id string, paths []string) (*apiclient.Application, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	f.drawings = append(f.drawings, paths)
	return f.app, nil
}

func TestCopyrightFlowHappyPath(t *testing.T) {
	svc := newFakeService()
	flow := NewCopyrightFlow(svc)
	ctx := context.Background()

	assert.Equal(t, 6, flow.StepCount())
	assert.Equal(t, "Work Details", flow.Current().Name)

	state := flow.State()
	state.SetField("title", "Field Notes")
	state.SetField("work_type", "literary")
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, 1, svc.createCalls)
	assert.Equal(t, "CR-2026-00042", state.ApplicationNumber)
	assert.Equal(t, 2, state.Step)

	state.SetField("applicant_name", "Dana Ellis")
	state.SetField("applicant_email", "dana@example.com")
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, 3, state.Step)

	state.AddFile("primary", "manuscript.pdf")
	state.AddFile("documents", "contract.pdf")
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, []string{"manuscript.pdf"}, svc.primary)
	require.Len(t, svc.documents, 1)
	assert.Equal(t, []string{"contract.pdf"}, svc.documents[0])

	state.SetField("amount", 150.0)
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, []float64{150}, svc.payments)
	assert.Equal(t, "submitted", state.Status)

	require.NoError(t, flow.Next(ctx)) // review
	require.NoError(t, flow.Next(ctx)) // confirmation
	assert.True(t, flow.Done())
	assert.ErrorIs(t, flow.Next(ctx), ErrFlowComplete)
}

func TestFlowValidationBlocksAdvance(t *testing.T) {
	svc := newFakeService()
	flow := NewCopyrightFlow(svc)

	err := flow.Next(context.Background())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.Step)
	assert.Contains(t, vErr.Missing, "title")
	assert.Equal(t, 1, flow.State().Step)
	assert.Equal(t, 0, svc.createCalls)
}

func TestFlowStaysPutWhenServerCallFails(t *testing.T) {
	svc := newFakeService()
	flow := NewCopyrightFlow(svc)
	ctx := context.Background()

	flow.State().SetField("title", "Field Notes")
	svc.failNext = errors.New("boom")
	require.Error(t, flow.Next(ctx))
	assert.Equal(t, 1, flow.State().Step)

	// Retrying after the failure succeeds and advances.
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, 2, flow.State().Step)
}

func TestFlowBack(t *testing.T) {
	svc := newFakeService()
	flow := NewCopyrightFlow(svc)

	flow.State().SetField("title", "Field Notes")
	require.NoError(t, flow.Next(context.Background()))
	assert.Equal(t, 2, flow.State().Step)

	flow.Back()
	assert.Equal(t, 1, flow.State().Step)
	flow.Back()
	assert.Equal(t, 1, flow.State().Step)
}

func TestCreateNotRepeatedOnRevisit(t *testing.T) {
	svc := newFakeService()
	flow := NewCopyrightFlow(svc)
	ctx := context.Background()

	flow.State().SetField("title", "Field Notes")
	require.NoError(t, flow.Next(ctx))
	flow.Back()
	require.NoError(t, flow.Next(ctx))

	assert.Equal(t, 1, svc.createCalls)
	assert.Contains(t, svc.stepCalls, 2)
}

func TestPatentFlowHappyPath(t *testing.T) {
	svc := newFakeService()
	svc.app.ApplicationNumber = "PAT-2026-00007"
	flow := NewPatentFlow(svc)
	ctx := context.Background()

	assert.Equal(t, 7, flow.StepCount())

	state := flow.State()
	state.SetField("invention_title", "Self-sealing valve")
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, "PAT-2026-00007", state.ApplicationNumber)

	state.SetField("inventor_name", "Priya Nair")
	state.SetField("applicant_name", "Nair Industries")
	require.NoError(t, flow.Next(ctx))

	state.SetField("abstract", "A valve that seals itself under backpressure.")
	require.NoError(t, flow.Next(ctx))

	state.AddFile("drawings", "figure-1.png")
	state.AddFile("drawings", "figure-2.png")
	require.NoError(t, flow.Next(ctx))
	require.Len(t, svc.drawings, 1)
	assert.Len(t, svc.drawings[0], 2)

	state.SetField("amount", 320.0)
	state.SetField("payment_method", "card")
	require.NoError(t, flow.Next(ctx))
	assert.Equal(t, []float64{320}, svc.payments)

	require.NoError(t, flow.Next(ctx))
	require.NoError(t, flow.Next(ctx))
	assert.True(t, flow.Done())
}

func TestPatentDrawingsOptional(t *testing.T) {
	svc := newFakeService()
	flow := NewPatentFlow(svc)
	ctx := context.Background()

	state := flow.State()
	state.SetField("invention_title", "Self-sealing valve")
	require.NoError(t, flow.Next(ctx))
	state.SetField("inventor_name", "Priya Nair")
	state.SetField("applicant_name", "Nair Industries")
	require.NoError(t, flow.Next(ctx))
	state.SetField("abstract", "A valve.")
	require.NoError(t, flow.Next(ctx))

	// No files queued: the step still advances without uploading.
	require.NoError(t, flow.Next(ctx))
	assert.Empty(t, svc.drawings)
	assert.Empty(t, svc.documents)
	assert.Equal(t, 5, state.Step)
}

func TestResumeRestoresServerSnapshot(t *testing.T) {
	svc := newFakeService()
	svc.app.CurrentStep = 4
	svc.app.FormData = map[string]interface{}{"title": "Field Notes"}

	flow, err := Resume(context.Background(), svc, apiclient.ResourceCopyright, svc.app.ID)
	require.NoError(t, err)

	state := flow.State()
	assert.Equal(t, 4, state.Step)
	assert.Equal(t, "Field Notes", state.Fields["title"])
	assert.Equal(t, svc.app.ID, state.ApplicationID)
	assert.Equal(t, "Payment", flow.Current().Name)
}

func TestResumeUnknownResource(t *testing.T) {
	_, err := Resume(context.Background(), newFakeService(), "trademarks", "some-id")
	require.Error(t, err)
}
