package submission

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/internal/storage"
)

type fakeCreator struct {
	calls atomic.Int32
	err   error
	key   string
	got   *Payload
}

func (f *fakeCreator) CreateProjectRequest(_ context.Context, payload interface{}, key string) (*backend.CreatedRequest, error) {
	f.calls.Add(1)
	f.key = key
	f.got, _ = payload.(*Payload)
	if f.err != nil {
		return nil, f.err
	}
	return &backend.CreatedRequest{ID: "88", Status: "pending"}, nil
}

func studentSession() *models.Session {
	f := models.NewProjectForm(models.UserStudent)
	f.ProjectTitle = "Library <b>System</b>"
	f.ProjectCategory = "Web Development"
	f.CoreFeatures = []string{"Search", "<script>alert(1)</script>"}
	f.SelectedServices = []string{"3"}
	f.Academic.Institution = "UDSM"
	return &models.Session{
		ID:             "sess-1",
		Mode:           models.ModeNew,
		UserType:       models.UserStudent,
		Status:         models.SessionOpen,
		Project:        f,
		IdempotencyKey: "idem-1",
	}
}

var codePattern = regexp.MustCompile(`^PV-(STUDENT|CLIENT|BUSINESS)-\d{6}$`)

func TestReferenceCode(t *testing.T) {
	at := time.UnixMilli(1735689642117)
	assert.Equal(t, "PV-STUDENT-642117", ReferenceCode(models.UserStudent, at))
	assert.Equal(t, "PV-BUSINESS-000005", ReferenceCode(models.UserBusiness, time.UnixMilli(5)))
	assert.Regexp(t, codePattern, ReferenceCode(models.UserClient, time.Now()))
}

func TestSubmitRemote(t *testing.T) {
	creator := &fakeCreator{}
	repo := storage.NewMemorySubmissionRepository()
	sub := NewSubmitter(ModeRemote, creator, repo, pricing.NewEstimator(nil))

	ref := &models.ReferenceData{ServicePackages: []models.ServicePackage{{ID: "3", Price: 300000}}}
	sess := studentSession()

	res, err := sub.Submit(context.Background(), sess, ref)
	require.NoError(t, err)
	assert.Regexp(t, codePattern, res.Record.ReferenceCode)
	assert.Equal(t, models.SubmissionCreated, res.Record.Status)
	assert.Equal(t, "88", res.Record.RemoteID)
	assert.Equal(t, 1350000.0, res.Record.EstimatedCost)
	assert.Equal(t, "TSH 1,350,000", res.Summary.EstimatedCostLabel)
	assert.Equal(t, 1, res.Summary.Services)
	assert.Equal(t, models.PriorityStandard, res.Summary.Priority)

	assert.Equal(t, "idem-1", creator.key)
	require.NotNil(t, creator.got)
	assert.Equal(t, "Library System", creator.got.Title)
	assert.Equal(t, []string{"Search"}, creator.got.FeaturesRequired)
	assert.Equal(t, "UDSM", creator.got.Institution)
	assert.Equal(t, RequestNew, creator.got.RequestType)

	var stored Payload
	require.NoError(t, json.Unmarshal(res.Record.Payload, &stored))
	assert.Equal(t, "student", stored.UserType)

	// the submitter never mutates the session
	assert.Equal(t, models.SessionOpen, sess.Status)
}

func TestSubmitRetryDoesNotPostTwice(t *testing.T) {
	creator := &fakeCreator{}
	repo := storage.NewMemorySubmissionRepository()
	sub := NewSubmitter(ModeRemote, creator, repo, pricing.NewEstimator(nil))
	ctx := context.Background()

	first, err := sub.Submit(ctx, studentSession(), nil)
	require.NoError(t, err)
	second, err := sub.Submit(ctx, studentSession(), nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), creator.calls.Load())
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Record.ReferenceCode, second.Record.ReferenceCode)
}

func TestSubmitFailureKeepsNothing(t *testing.T) {
	creator := &fakeCreator{err: errors.New("HTTP error! status: 502")}
	repo := storage.NewMemorySubmissionRepository()
	sub := NewSubmitter(ModeRemote, creator, repo, pricing.NewEstimator(nil))
	sess := studentSession()

	_, err := sub.Submit(context.Background(), sess, nil)
	require.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Contains(t, err.Error(), "502")

	list, err := repo.ListSubmissions(context.Background(), models.SubmissionFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, "Library <b>System</b>", sess.Project.ProjectTitle)
}

func TestSubmitSimulated(t *testing.T) {
	repo := storage.NewMemorySubmissionRepository()
	at := time.UnixMilli(1735689000042)
	sub := NewSubmitter(ModeSimulate, nil, repo, pricing.NewEstimator(nil), WithClock(func() time.Time { return at }))

	first, err := sub.Submit(context.Background(), studentSession(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionSimulated, first.Record.Status)
	assert.Equal(t, "PV-STUDENT-000042", first.Record.ReferenceCode)

	// same millisecond, different session: the code moves forward
	other := studentSession()
	other.ID, other.IdempotencyKey = "sess-2", "idem-2"
	second, err := sub.Submit(context.Background(), other, nil)
	require.NoError(t, err)
	assert.Equal(t, "PV-STUDENT-000043", second.Record.ReferenceCode)
}

func TestSubmitSimulatedHonoursContext(t *testing.T) {
	sub := NewSubmitter(ModeSimulate, nil, storage.NewMemorySubmissionRepository(), pricing.NewEstimator(nil),
		WithSimulateDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sub.Submit(ctx, studentSession(), nil)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
}

func TestCustomizationPayload(t *testing.T) {
	tmpl := &models.ProjectTemplate{ID: "7", Title: "School Portal", Category: "Management Systems", EstimatedPrice: 1500000}
	f := models.NewCustomizationForm(models.UserClient, tmpl)
	f.AdditionalFeatures = []string{"SMS alerts"}
	f.TechnologyChanges = []string{"Vue instead of React"}
	f.Urgency = "urgent"
	sess := &models.Session{ID: "c", Mode: models.ModeCustomization, UserType: models.UserClient, Custom: f, Template: tmpl}

	p := BuildPayload(sess, 10)
	assert.Equal(t, RequestTemplate, p.RequestType)
	assert.Equal(t, "7", p.Template)
	assert.Equal(t, "School Portal", p.Title)
	assert.Equal(t, "Management Systems", p.Category)
	assert.Equal(t, "strict", p.TimelineFlexibility)
	require.NotNil(t, p.Customizations)
	assert.True(t, p.Customizations.KeepOriginalFeatures)
	assert.Equal(t, []string{"Vue instead of React"}, p.Customizations.TechnologyChanges)
	assert.Empty(t, p.Institution)

	f.Priority = models.PriorityUrgent
	sum := Summarize(sess, &models.SubmissionRecord{ReferenceCode: "PV-CLIENT-000001", EstimatedCost: 2340000}, pricing.Breakdown{})
	assert.Equal(t, models.PriorityUrgent, sum.Priority)
	assert.Equal(t, "School Portal", sum.BaseProject)
	assert.Equal(t, "TSH 2,340,000", sum.EstimatedCostLabel)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSimulate, m)

	m, err = ParseMode("REMOTE")
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, m)

	_, err = ParseMode("carrier-pigeon")
	assert.Error(t, err)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "R&D lab", sanitizeText("  <i>R&amp;D</i> lab "))
	assert.Equal(t, "", sanitizeText("<script>x</script>"))
	assert.Nil(t, sanitizeList(nil))
}
